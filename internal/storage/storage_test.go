package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/files/")
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}
	return store
}

func TestSaveAndPublicURL(t *testing.T) {
	store := newTestStore(t)

	key := "7/abc123_logo.ai"
	if err := store.Save(key, strings.NewReader("binary content")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), "7", "abc123_logo.ai"))
	if err != nil {
		t.Fatalf("stored blob not readable: %v", err)
	}
	if string(data) != "binary content" {
		t.Errorf("stored content = %q", data)
	}

	url := store.PublicURL(key)
	if url != "http://localhost:8080/files/7/abc123_logo.ai" {
		t.Errorf("PublicURL() = %q", url)
	}
	if url == "" {
		t.Error("PublicURL() should never be empty for a stored key")
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	key := "1/k_file.png"
	if err := store.Save(key, strings.NewReader("x")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "1", "k_file.png")); !os.IsNotExist(err) {
		t.Error("blob should be gone after Delete()")
	}

	// Deleting a missing key is not an error
	if err := store.Delete("1/missing"); err != nil {
		t.Errorf("Delete() of missing key error = %v", err)
	}
}

func TestResolve_RejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	for _, key := range []string{"", ".", "..", "../escape"} {
		p, err := store.resolve(key)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(p, store.Dir()) {
			t.Errorf("resolve(%q) escaped root: %q", key, p)
		}
	}
}

func TestBuildKey(t *testing.T) {
	key1 := BuildKey(7, "logo.ai")
	key2 := BuildKey(7, "logo.ai")

	if !strings.HasPrefix(key1, "7/") {
		t.Errorf("key should start with the owner id: %q", key1)
	}
	if !strings.HasSuffix(key1, "_logo.ai") {
		t.Errorf("key should end with the original file name: %q", key1)
	}
	if key1 == key2 {
		t.Error("keys for repeated uploads must be unique")
	}

	// Path components in the name must not leak into the key structure
	key3 := BuildKey(7, "../../etc/passwd")
	if strings.Contains(key3, "..") {
		t.Errorf("key should not carry traversal segments: %q", key3)
	}
}

func TestListOlderThan(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("2/old_a.png", strings.NewReader("a")); err != nil {
		t.Fatal(err)
	}
	if err := store.Save("2/new_b.png", strings.NewReader("b")); err != nil {
		t.Fatal(err)
	}

	// Age the first blob
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(store.Dir(), "2", "old_a.png"), past, past); err != nil {
		t.Fatal(err)
	}

	keys, err := store.ListOlderThan(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("ListOlderThan() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != "2/old_a.png" {
		t.Errorf("ListOlderThan() = %v, expected only the aged blob", keys)
	}
}
