package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"vetted-backend/internal/shared/storage/object"
)

func TestPutThenOpen(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	n, err := store.Put(ctx, "analyses/a1/thread_1.txt", "text/plain", strings.NewReader("raw reply"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != int64(len("raw reply")) {
		t.Fatalf("expected %d bytes, got %d", len("raw reply"), n)
	}

	rc, err := store.Open(ctx, "analyses/a1/thread_1.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "raw reply" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	store := New(t.TempDir())
	for _, key := range []string{"../etc/passwd", "/abs/path", ""} {
		if _, err := store.Put(context.Background(), key, "text/plain", strings.NewReader("x")); !errors.Is(err, object.ErrInvalidKey) {
			t.Fatalf("Put(%q): expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestOpenMissing(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "nope.txt"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
