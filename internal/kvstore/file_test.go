package kvstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFile_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	f, err := Open(path, "xeon-pwm")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := f.Uint("pwm-frequency", 25000); got != 25000 {
		t.Fatalf("Uint=%d want default 25000", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file before first write, stat err=%v", err)
	}
}

func TestFile_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "prefs.yaml")
	f, err := Open(path, "xeon-pwm")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := f.PutUint("pwm-frequency", 30000); err != nil {
		t.Fatalf("PutUint: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	g, err := Open(path, "xeon-pwm")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := g.Uint("pwm-frequency", 25000); got != 30000 {
		t.Fatalf("Uint=%d want 30000", got)
	}
}

func TestFile_ClearKeepsOtherNamespaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := os.WriteFile(path, []byte("other:\n  k: 7\nxeon-pwm:\n  pwm-channel: 3\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := Open(path, "xeon-pwm")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := f.Uint("pwm-channel", 0); got != 3 {
		t.Fatalf("Uint=%d want 3", got)
	}
	if err := f.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := f.Uint("pwm-channel", 0); got != 0 {
		t.Fatalf("after clear Uint=%d want 0", got)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(b), "other:") {
		t.Fatalf("other namespace lost: %q", b)
	}
	if strings.Contains(string(b), "xeon-pwm") {
		t.Fatalf("namespace not cleared: %q", b)
	}
}

func TestFile_WritesAfterCloseFail(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "prefs.yaml"), "xeon-pwm")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = f.Close()
	if err := f.PutUint("k", 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("PutUint err=%v want ErrClosed", err)
	}
	if err := f.Clear(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Clear err=%v want ErrClosed", err)
	}
}

func TestOpen_Validation(t *testing.T) {
	if _, err := Open("", "ns"); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := Open(filepath.Join(t.TempDir(), "x.yaml"), ""); err == nil {
		t.Fatalf("expected error for empty namespace")
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("xeon-pwm: [1, 2"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Open(bad, "xeon-pwm"); err == nil {
		t.Fatalf("expected parse error")
	}
}
