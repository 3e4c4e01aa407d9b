package core

// Platform identifies the store a review was left on.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// Label is the human readable platform name used in logs.
func (p Platform) Label() string {
	switch p {
	case PlatformAndroid:
		return "Android"
	case PlatformIOS:
		return "iOS"
	default:
		return string(p)
	}
}

// Review is the normalized record produced by every review source.
type Review struct {
	Platform Platform `json:"platform"`
	ID       string   `json:"id"`
	Author   string   `json:"author"`
	Rating   int      `json:"rating"`
	Title    string   `json:"title,omitempty"`
	Body     string   `json:"body"`
	Locale   string   `json:"locale"`
	Version  string   `json:"version"`
	Link     string   `json:"link,omitempty"`
}

// TwoLetterLocale truncates a source locale tag such as "de_DE" to its language prefix.
func TwoLetterLocale(tag string) string {
	if len(tag) <= 2 {
		return tag
	}
	return tag[:2]
}
