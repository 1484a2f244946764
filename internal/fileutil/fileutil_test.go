package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.srt")
	dst := filepath.Join(dir, "dst.srt")

	content := []byte("1\n00:00:01,000 --> 00:00:02,000\nHello.\n")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "dst")); !os.IsNotExist(statErr) {
		t.Fatal("destination should not be created when source is missing")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte(`{"title":"new"}`), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"title":"new"}` {
		t.Fatalf("unexpected content %q", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected mode %v", info.Mode().Perm())
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	if err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "x"), []byte("x"), 0o644); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestCreateUniqueDir(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "out")
	want := []string{"talk", "talk_02", "talk_03"}
	for _, name := range want {
		got, err := CreateUniqueDir(parent, "talk")
		if err != nil {
			t.Fatalf("CreateUniqueDir: %v", err)
		}
		if got != filepath.Join(parent, name) {
			t.Fatalf("got %q, want %q", got, filepath.Join(parent, name))
		}
		if info, err := os.Stat(got); err != nil || !info.IsDir() {
			t.Fatalf("expected directory at %q", got)
		}
	}
}

func TestCreateUniqueDir_SkipsFiles(t *testing.T) {
	parent := t.TempDir()
	if err := os.WriteFile(filepath.Join(parent, "talk"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := CreateUniqueDir(parent, "talk")
	if err != nil {
		t.Fatalf("CreateUniqueDir: %v", err)
	}
	if filepath.Base(got) != "talk_02" {
		t.Fatalf("expected talk_02, got %q", got)
	}
}

func TestCreateUniqueDir_RejectsBadNames(t *testing.T) {
	for _, name := range []string{"", ".", ".."} {
		if _, err := CreateUniqueDir(t.TempDir(), name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}
