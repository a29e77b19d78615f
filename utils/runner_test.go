package utils

import (
	"context"
	"errors"
	"testing"
)

func TestShellRunner(t *testing.T) {
	r := &ShellRunner{}

	t.Run("success", func(t *testing.T) {
		out, err := r.Run(context.Background(), "sh", "-c", "echo ok")
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
		if out != "ok\n" {
			t.Errorf("Run() output = %q, want %q", out, "ok\n")
		}
	})

	t.Run("exit status", func(t *testing.T) {
		_, err := r.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
		var ee *ExitError
		if !errors.As(err, &ee) {
			t.Fatalf("Run() error = %v, want *ExitError", err)
		}
		if ee.Status != 3 {
			t.Errorf("Status = %d, want 3", ee.Status)
		}
		if ee.Output != "boom" {
			t.Errorf("Output = %q, want %q", ee.Output, "boom")
		}
	})

	t.Run("missing binary", func(t *testing.T) {
		_, err := r.Run(context.Background(), "/nonexistent/bin/exportfs", "-ra")
		var ee *ExitError
		if !errors.As(err, &ee) {
			t.Fatalf("Run() error = %v, want *ExitError", err)
		}
		if ee.Status != -1 {
			t.Errorf("Status = %d, want -1", ee.Status)
		}
	})
}

func TestMockRunner(t *testing.T) {
	m := &MockRunner{
		RunFn: func(bin string, args []string) (string, error) {
			if bin == "fail" {
				return "", errors.New("failed")
			}
			return "done", nil
		},
	}

	if out, err := m.Run(context.Background(), "exportfs", "-ra"); err != nil || out != "done" {
		t.Fatalf("Run() = %q, %v", out, err)
	}
	if _, err := m.Run(context.Background(), "fail"); err == nil {
		t.Fatal("Run() should return error from RunFn")
	}
	if len(m.Calls) != 2 || m.Bins[0] != "exportfs" || m.Calls[0][0] != "-ra" {
		t.Errorf("recorded calls = %v %v", m.Bins, m.Calls)
	}
}
