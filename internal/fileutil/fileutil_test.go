package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	content := []byte("hello world")
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

func TestWriteJSONAtomicCreatesParentAndIndents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "record.json")

	payload := map[string]any{"points": 3, "userId": "u1"}
	if err := WriteJSONAtomic(path, payload); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "\n  \"points\": 3") {
		t.Fatalf("expected two-space indentation, got %q", raw)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("temp file should not remain: %v", err)
	}
}

func TestReadJSONMissingFileIsNotExist(t *testing.T) {
	var v map[string]any
	err := ReadJSON(filepath.Join(t.TempDir(), "absent.json"), &v)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestReadJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	type record struct {
		Score int    `json:"score"`
		Nick  string `json:"nick"`
	}
	if err := WriteJSONAtomic(path, record{Score: 42, Nick: "gracz"}); err != nil {
		t.Fatal(err)
	}

	var got record
	if err := ReadJSON(path, &got); err != nil {
		t.Fatal(err)
	}
	if got.Score != 42 || got.Nick != "gracz" {
		t.Fatalf("unexpected round trip: %+v", got)
	}
}

func TestReadJSONMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	var v map[string]any
	if err := ReadJSON(path, &v); err == nil {
		t.Fatal("expected parse error")
	}
}
