package history

import (
	"os"
	"testing"
)

func TestTouchAndLastOpened(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := Touch("web1"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, err := LastOpened()
	if err != nil {
		t.Fatalf("last opened: %v", err)
	}
	if got["web1"] <= 0 {
		t.Fatalf("expected timestamp for web1, got %+v", got)
	}
}

func TestLastOpened_EmptyWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	got, err := LastOpened()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %+v", got)
	}
}

func TestLoad_IgnoresCorruptFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := Touch("web1"); err != nil {
		t.Fatal(err)
	}
	path, err := filePath()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not-json"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := LastOpened()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected reset map on corrupt file, got %+v", got)
	}
}
