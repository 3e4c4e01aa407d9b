package format

import (
	"strings"
	"testing"

	"github.com/bakkerme/reviewbot/internal/core"
)

func TestMessageAndroidReview(t *testing.T) {
	review := core.Review{
		Platform: core.PlatformAndroid,
		ID:       "r1",
		Author:   "A",
		Rating:   5,
		Body:     "Great",
		Locale:   "en",
		Version:  "1.0",
	}

	got := Message(review)
	want := "[:star::star::star::star::star: by **A** :en: on Version 1.0](): ****\nGreat"
	if got != want {
		t.Fatalf("Message()=%q, want %q", got, want)
	}
}

func TestMessageIsDeterministicAndPassesTextThrough(t *testing.T) {
	review := core.Review{
		Platform: core.PlatformIOS,
		Author:   "Kunde",
		Rating:   4,
		Title:    "Gut *oder* nicht",
		Body:     "a [link](x) & <b>",
		Locale:   "de",
		Version:  "2.3.1",
		Link:     "https://itunes.apple.com/de/review?id=1",
	}

	first := Message(review)
	if second := Message(review); first != second {
		t.Fatalf("expected identical output, got %q and %q", first, second)
	}
	if !strings.HasPrefix(first, "[:star::star::star::star: by **Kunde** :de: on Version 2.3.1](https://itunes.apple.com/de/review?id=1): **Gut *oder* nicht**\n") {
		t.Fatalf("unexpected message %q", first)
	}
	if !strings.HasSuffix(first, "a [link](x) & <b>") {
		t.Fatalf("expected raw body, got %q", first)
	}
}

func TestStarsCountMatchesRating(t *testing.T) {
	for rating := -1; rating <= 5; rating++ {
		want := rating
		if want < 0 {
			want = 0
		}
		if got := strings.Count(Stars(rating), StarGlyph); got != want {
			t.Fatalf("Stars(%d) has %d glyphs, want %d", rating, got, want)
		}
	}
}
