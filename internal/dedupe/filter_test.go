package dedupe

import (
	"context"
	"errors"
	"testing"

	"github.com/bakkerme/reviewbot/internal/core"
)

type fakeSeenStore struct {
	seen map[Scope]map[string]bool
	err  error
}

func (s *fakeSeenStore) HasSeen(ctx context.Context, scope Scope, id string) (bool, error) {
	_ = ctx
	if s.err != nil {
		return false, s.err
	}
	return s.seen[scope][id], nil
}

func (s *fakeSeenStore) MarkSeen(ctx context.Context, scope Scope, id string) error {
	_ = ctx
	if s.seen[scope] == nil {
		s.seen[scope] = map[string]bool{}
	}
	s.seen[scope][id] = true
	return nil
}

func (s *fakeSeenStore) Close() error {
	return nil
}

func TestFilterNewSkipsSeenAndBatchDuplicates(t *testing.T) {
	store := &fakeSeenStore{seen: map[Scope]map[string]bool{
		{Platform: core.PlatformAndroid}: {"r1": true},
	}}
	reviews := []core.Review{
		{Platform: core.PlatformAndroid, ID: "r1", Locale: "en"},
		{Platform: core.PlatformAndroid, ID: "r2", Locale: "de"},
		{Platform: core.PlatformAndroid, ID: "r2", Locale: "de"},
		{Platform: core.PlatformAndroid, ID: "r3", Locale: "fr"},
		{Platform: core.PlatformAndroid, ID: ""},
	}

	fresh, err := FilterNew(context.Background(), store, reviews)
	if err != nil {
		t.Fatalf("filter failed: %v", err)
	}
	if len(fresh) != 2 || fresh[0].ID != "r2" || fresh[1].ID != "r3" {
		t.Fatalf("expected [r2 r3], got %+v", fresh)
	}
}

func TestFilterNewTracksIOSLocalesIndependently(t *testing.T) {
	store := &fakeSeenStore{seen: map[Scope]map[string]bool{
		{Platform: core.PlatformIOS, Locale: "de"}: {"i1": true},
	}}
	reviews := []core.Review{
		{Platform: core.PlatformIOS, ID: "i1", Locale: "de"},
		{Platform: core.PlatformIOS, ID: "i1", Locale: "fr"},
	}

	fresh, err := FilterNew(context.Background(), store, reviews)
	if err != nil {
		t.Fatalf("filter failed: %v", err)
	}
	if len(fresh) != 1 || fresh[0].Locale != "fr" {
		t.Fatalf("expected only the fr review, got %+v", fresh)
	}
}

func TestFilterNewPropagatesStoreErrors(t *testing.T) {
	store := &fakeSeenStore{err: errors.New("boom")}
	_, err := FilterNew(context.Background(), store, []core.Review{{Platform: core.PlatformIOS, ID: "x", Locale: "de"}})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestScopeOfIgnoresAndroidLocale(t *testing.T) {
	got := ScopeOf(core.Review{Platform: core.PlatformAndroid, Locale: "de"})
	if got != (Scope{Platform: core.PlatformAndroid}) {
		t.Fatalf("unexpected scope %+v", got)
	}
}
