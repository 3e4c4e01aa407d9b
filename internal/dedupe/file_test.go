package dedupe

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bakkerme/reviewbot/internal/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileStoreStartsEmptyWithConfiguredLocales(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(discardLogger(), dir, []string{"de", "fr"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	android, ios := store.Snapshot()
	if len(android) != 0 {
		t.Fatalf("expected empty android ids, got %v", android)
	}
	if len(ios) != 2 || ios["de"] == nil || ios["fr"] == nil {
		t.Fatalf("expected initialised locales, got %v", ios)
	}
}

func TestFileStoreTreatsCorruptFilesAsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, AndroidFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, IOSFileName), []byte(`["wrong shape"]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store, err := NewFileStore(discardLogger(), dir, []string{"de"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	android, ios := store.Snapshot()
	if len(android) != 0 || len(ios) != 1 || len(ios["de"]) != 0 {
		t.Fatalf("expected empty state, got %v %v", android, ios)
	}
}

func TestFileStorePersistsAfterEachMark(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(discardLogger(), dir, []string{"de", "fr"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if err := store.MarkSeen(ctx, Scope{Platform: core.PlatformAndroid}, "r1"); err != nil {
		t.Fatalf("mark android: %v", err)
	}
	if err := store.MarkSeen(ctx, Scope{Platform: core.PlatformIOS, Locale: "de"}, "i1"); err != nil {
		t.Fatalf("mark ios: %v", err)
	}

	var android []string
	readFile(t, filepath.Join(dir, AndroidFileName), &android)
	if len(android) != 1 || android[0] != "r1" {
		t.Fatalf("unexpected android file %v", android)
	}

	var ios map[string][]string
	readFile(t, filepath.Join(dir, IOSFileName), &ios)
	if len(ios["de"]) != 1 || ios["de"][0] != "i1" {
		t.Fatalf("unexpected ios file %v", ios)
	}
	if ids, ok := ios["fr"]; !ok || len(ids) != 0 {
		t.Fatalf("expected empty fr entry, got %v", ios)
	}

	reloaded, err := NewFileStore(discardLogger(), dir, []string{"de", "fr"})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	seen, err := reloaded.HasSeen(ctx, Scope{Platform: core.PlatformIOS, Locale: "de"}, "i1")
	if err != nil || !seen {
		t.Fatalf("expected i1 to be seen after reload (err=%v)", err)
	}
	seen, err = reloaded.HasSeen(ctx, Scope{Platform: core.PlatformIOS, Locale: "fr"}, "i1")
	if err != nil || seen {
		t.Fatalf("expected i1 unseen for fr (err=%v)", err)
	}
}

func TestFileStoreRejectsIOSScopeWithoutLocale(t *testing.T) {
	store, err := NewFileStore(discardLogger(), t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.MarkSeen(context.Background(), Scope{Platform: core.PlatformIOS}, "i1"); err == nil {
		t.Fatalf("expected error for missing locale")
	}
}

func readFile(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}
