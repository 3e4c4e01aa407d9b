package dedupe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/bakkerme/reviewbot/internal/core"
)

const (
	AndroidFileName = "lastAndroidIds.id"
	IOSFileName     = "lastIosIds.id"
)

// FileStore keeps seen ids in two JSON files under a data directory:
// a flat array for Android and a locale -> array object for iOS.
// Each MarkSeen rewrites the whole file of the affected platform.
type FileStore struct {
	mu          sync.Mutex
	androidPath string
	iosPath     string
	android     []string
	ios         map[string][]string
}

// NewFileStore loads both files. Missing or unreadable state is logged and treated as empty;
// every locale in locales starts with an empty list if absent.
func NewFileStore(logger *slog.Logger, dir string, locales []string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &FileStore{
		androidPath: filepath.Join(dir, AndroidFileName),
		iosPath:     filepath.Join(dir, IOSFileName),
		ios:         map[string][]string{},
	}

	if err := readJSON(s.androidPath, &s.android); err != nil {
		logger.Warn("could not load android seen ids, starting empty", "path", s.androidPath, "error", err)
		s.android = nil
	} else {
		logger.Info("loaded android seen ids", "count", len(s.android))
	}
	if err := readJSON(s.iosPath, &s.ios); err != nil || s.ios == nil {
		if err != nil {
			logger.Warn("could not load ios seen ids, starting empty", "path", s.iosPath, "error", err)
		}
		s.ios = map[string][]string{}
	} else {
		logger.Info("loaded ios seen ids", "locales", len(s.ios))
	}
	for _, locale := range locales {
		if _, ok := s.ios[locale]; !ok {
			s.ios[locale] = []string{}
		}
	}
	return s, nil
}

func (s *FileStore) HasSeen(ctx context.Context, scope Scope, id string) (bool, error) {
	_ = ctx
	if id == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch scope.Platform {
	case core.PlatformAndroid:
		return slices.Contains(s.android, id), nil
	case core.PlatformIOS:
		return slices.Contains(s.ios[scope.Locale], id), nil
	default:
		return false, fmt.Errorf("unknown platform %q", scope.Platform)
	}
}

// MarkSeen appends id to the scope and rewrites that platform's file. The in-memory record is
// kept even when the write fails so the id is not sent twice within one run.
func (s *FileStore) MarkSeen(ctx context.Context, scope Scope, id string) error {
	_ = ctx
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch scope.Platform {
	case core.PlatformAndroid:
		if !slices.Contains(s.android, id) {
			s.android = append(s.android, id)
		}
		return writeJSON(s.androidPath, s.android)
	case core.PlatformIOS:
		if scope.Locale == "" {
			return fmt.Errorf("ios scope requires a locale")
		}
		if !slices.Contains(s.ios[scope.Locale], id) {
			s.ios[scope.Locale] = append(s.ios[scope.Locale], id)
		}
		return writeJSON(s.iosPath, s.ios)
	default:
		return fmt.Errorf("unknown platform %q", scope.Platform)
	}
}

// Snapshot returns copies of the current in-memory state.
func (s *FileStore) Snapshot() ([]string, map[string][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ios := make(map[string][]string, len(s.ios))
	for locale, ids := range s.ios {
		ios[locale] = slices.Clone(ids)
	}
	return slices.Clone(s.android), ios
}

func (s *FileStore) Close() error {
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
