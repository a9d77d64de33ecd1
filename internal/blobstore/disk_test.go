package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndOpen(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	ctx := context.Background()

	ref, err := store.Save(ctx, "picture.JPG", strings.NewReader("image bytes"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if ref == "" {
		t.Fatal("Expected non-empty reference")
	}
	if !strings.HasSuffix(ref, ".jpg") {
		t.Errorf("Expected lowercased extension, got: %s", ref)
	}

	f, err := store.Open(ctx, ref)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "image bytes" {
		t.Errorf("Expected stored bytes back, got: %s", data)
	}
}

func TestSaveGeneratesUniqueRefs(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	ctx := context.Background()

	ref1, err := store.Save(ctx, "a.png", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	ref2, err := store.Save(ctx, "a.png", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if ref1 == ref2 {
		t.Errorf("Expected distinct references for identical names, got: %s", ref1)
	}
}

func TestSaveRejectsOversizedBlob(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, 8)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	_, err = store.Save(context.Background(), "big.bin", strings.NewReader("way more than eight bytes"))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Expected ErrTooLarge, got: %v", err)
	}

	// Nothing should be left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty directory after rejected upload, got %d entries", len(entries))
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	ctx := context.Background()

	for _, ref := range []string{"", ".", "..", "../etc/passwd", "a/b.jpg"} {
		if _, err := store.Open(ctx, ref); !errors.Is(err, ErrInvalidRef) {
			t.Errorf("Open(%q): expected ErrInvalidRef, got: %v", ref, err)
		}
		if err := store.Remove(ctx, ref); !errors.Is(err, ErrInvalidRef) {
			t.Errorf("Remove(%q): expected ErrInvalidRef, got: %v", ref, err)
		}
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, 0)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	ctx := context.Background()

	ref, err := store.Save(ctx, "gone.gif", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Remove(ctx, ref); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, ref)); !os.IsNotExist(err) {
		t.Errorf("Expected blob to be gone, stat err: %v", err)
	}
}

func TestSafeExt(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.jpg", ".jpg"},
		{"PHOTO.JPG", ".jpg"},
		{"archive.tar.gz", ".gz"},
		{"noext", ""},
		{"trailing.", ""},
		{"weird.j pg", ""},
		{"dots..", ""},
		{"long.reallylongext", ""},
	}

	for _, tt := range tests {
		if got := safeExt(tt.filename); got != tt.want {
			t.Errorf("safeExt(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
