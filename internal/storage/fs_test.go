package storage

import (
	"bytes"
	"strings"
	"testing"
)

func newTestFS(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestSaveReadDelete(t *testing.T) {
	fs := newTestFS(t)
	content := []byte("stored bytes")

	handle, err := fs.Save(content, ".pdf")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(handle, ".pdf") {
		t.Errorf("handle = %q, want .pdf suffix", handle)
	}
	if strings.ContainsAny(handle, "/\\") {
		t.Errorf("handle %q contains a separator", handle)
	}

	got, err := fs.Read(handle)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Read = %q", got)
	}

	if err := fs.Delete(handle); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := fs.Read(handle); err == nil {
		t.Error("Read after Delete succeeded")
	}
	// Deleting a missing handle is a no-op.
	if err := fs.Delete(handle); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestSaveNormalisesExtension(t *testing.T) {
	fs := newTestFS(t)

	handle, err := fs.Save([]byte("x"), "JPG")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(handle, ".jpg") {
		t.Errorf("handle = %q, want lowercased dotted extension", handle)
	}

	handle, err = fs.Save([]byte("x"), "")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(handle, ".") {
		t.Errorf("extensionless handle = %q", handle)
	}
}

func TestHandlesAreUnique(t *testing.T) {
	fs := newTestFS(t)
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		handle, err := fs.Save([]byte("same content"), ".txt")
		if err != nil {
			t.Fatal(err)
		}
		if seen[handle] {
			t.Fatalf("handle %q repeated", handle)
		}
		seen[handle] = true
	}
}

func TestTraversalHandlesRejected(t *testing.T) {
	fs := newTestFS(t)
	for _, handle := range []string{
		"",
		"../escape.txt",
		"a/b.txt",
		"..",
		"nested/../../etc/passwd",
	} {
		if _, err := fs.Read(handle); err == nil {
			t.Errorf("Read(%q) succeeded", handle)
		}
		if err := fs.Delete(handle); err == nil {
			t.Errorf("Delete(%q) succeeded", handle)
		}
	}
}
