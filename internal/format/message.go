// Package format renders reviews as Mattermost markdown messages.
package format

import (
	"fmt"
	"strings"

	"github.com/bakkerme/reviewbot/internal/core"
)

const StarGlyph = ":star:"

// Message renders one review as
// "[<stars> by **<author>** :<locale>: on Version <version>](<link>): **<title>**\n<body>".
// Free text fields are passed through unescaped.
func Message(review core.Review) string {
	return fmt.Sprintf("[%s by **%s** :%s: on Version %s](%s): **%s**\n%s",
		Stars(review.Rating),
		review.Author,
		review.Locale,
		review.Version,
		review.Link,
		review.Title,
		review.Body,
	)
}

func Stars(rating int) string {
	if rating <= 0 {
		return ""
	}
	return strings.Repeat(StarGlyph, rating)
}
