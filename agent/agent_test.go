package agent

import (
	"context"
	"testing"

	"github.com/erikmagkekse/nfs-exports/model"

	"github.com/stretchr/testify/assert"
)

func TestParseTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{"empty", "", nil},
		{"single", "ops:abc", map[string]string{"abc": "ops"}},
		{"multiple with spaces", " ops : abc , backup:def ", map[string]string{"abc": "ops", "def": "backup"}},
		{"token keeps colons", "ops:a:b", map[string]string{"a:b": "ops"}},
		{"malformed dropped", "ops,:abc,backup:", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTokens(tt.in))
		})
	}
}

func TestStartRequiresTokens(t *testing.T) {
	a := NewAgent(&model.AgentConfig{Tokens: ","}, "dev", "none")
	assert.Error(t, a.Start(context.Background()))
}
