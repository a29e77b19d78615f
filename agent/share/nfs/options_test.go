package nfs

import (
	"os"
	"slices"
	"testing"

	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	if os.Getenv(helperEnv) != "" {
		os.Exit(runHelper())
	}
	os.Exit(m.Run())
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		opts string
		want Options
	}{
		{
			name: "empty publishes nothing",
			opts: "",
			want: nil,
		},
		{
			name: "off publishes nothing",
			opts: "off",
			want: nil,
		},
		{
			name: "on shorthand",
			opts: "on",
			want: Options{"no_subtree_check", "mountpoint", "crossmnt"},
		},
		{
			name: "host and security tokens are skipped",
			opts: "rw=192.168.1.0/24,sec=sys,no_root_squash",
			want: Options{"no_subtree_check", "mountpoint", "no_root_squash"},
		},
		{
			name: "anon renamed",
			opts: "anon=65534",
			want: Options{"no_subtree_check", "mountpoint", "anonuid=65534"},
		},
		{
			name: "root_mapping becomes root_squash plus anonuid",
			opts: "root_mapping=1000,sync",
			want: Options{"no_subtree_check", "mountpoint", "root_squash", "anonuid=1000", "sync"},
		},
		{
			name: "nosub renamed",
			opts: "nosub",
			want: Options{"no_subtree_check", "mountpoint", "subtree_check"},
		},
		{
			name: "empty tokens skipped",
			opts: ",,async,,",
			want: Options{"no_subtree_check", "mountpoint", "async"},
		},
		{
			name: "last token without delimiter",
			opts: "ro,fsid=7",
			want: Options{"no_subtree_check", "mountpoint", "fsid=7"},
		},
		{
			name: "duplicates kept in order",
			opts: "sync,async,sync",
			want: Options{"no_subtree_check", "mountpoint", "sync", "async", "sync"},
		},
		{
			name: "empty value is kept",
			opts: "fsid=",
			want: Options{"no_subtree_check", "mountpoint", "fsid="},
		},
		{
			name: "value split on first equals only",
			opts: "refer=/a@host=x",
			want: Options{"no_subtree_check", "mountpoint", "refer=/a@host=x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(tt.opts)
			if err != nil {
				t.Fatalf("Translate(%q) error: %v", tt.opts, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Translate(%q) = %v, want %v", tt.opts, got, tt.want)
			}
		})
	}
}

func TestTranslateErrors(t *testing.T) {
	for _, opts := range []string{
		"frobnicate",
		"rw,frobnicate=1",
		"sync,ro=host1 host2",
		"fsid=1\n/etc *(rw)",
		"anon=(0)",
	} {
		t.Run(opts, func(t *testing.T) {
			got, err := Translate(opts)
			if err == nil {
				t.Fatalf("Translate(%q) should fail", opts)
			}
			if Code(err) != ErrSyntax {
				t.Errorf("Code() = %q, want %q", Code(err), ErrSyntax)
			}
			if got != nil {
				t.Errorf("Translate(%q) returned partial output %v", opts, got)
			}
		})
	}
}

func TestTranslateIsPure(t *testing.T) {
	opts := "rw=@10.0.0.0/8,root_mapping=0,no_wdelay,sec=krb5"
	first, err := Translate(opts)
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	second, err := Translate(opts)
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if !slices.Equal(first, second) {
		t.Errorf("Translate() not deterministic: %v vs %v", first, second)
	}
}

func TestOptionsString(t *testing.T) {
	o := Options{"no_subtree_check", "mountpoint", "anonuid=0"}
	if got := o.String(); got != "no_subtree_check,mountpoint,anonuid=0" {
		t.Errorf("String() = %q", got)
	}
	if got := Options(nil).String(); got != "" {
		t.Errorf("nil String() = %q", got)
	}
}
