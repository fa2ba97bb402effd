package imagesearch

import (
	"net/url"
	"strings"
)

const (
	placeholderBase = "https://via.placeholder.com/400x300/4CAF50/FFFFFF"
	defaultEmoji    = "🐾"
)

// emojiTable is matched in order against the lowercased animal name
var emojiTable = []struct {
	fragment string
	emoji    string
}{
	{"hawk", "🦅"},
	{"eagle", "🦅"},
	{"owl", "🦉"},
	{"coyote", "🦊"},
	{"fox", "🦊"},
	{"raccoon", "🦝"},
	{"deer", "🦌"},
	{"bat", "🦇"},
	{"whale", "🐋"},
	{"seal", "🦭"},
	{"turtle", "🐢"},
	{"salamander", "🐸"},
	{"frog", "🐸"},
	{"bird", "🐦"},
	{"sparrow", "🐦"},
	{"goose", "🦢"},
	{"rat", "🐭"},
	{"crab", "🦀"},
}

// Emoji returns the placeholder glyph for an animal name
func Emoji(name string) string {
	lower := strings.ToLower(name)
	for _, e := range emojiTable {
		if strings.Contains(lower, e.fragment) {
			return e.emoji
		}
	}
	return defaultEmoji
}

// PlaceholderURL returns a generated image showing the animal's emoji
func PlaceholderURL(name string) string {
	return placeholderBase + "?text=" + url.QueryEscape(Emoji(name))
}

// Placeholder is the last link of the chain
func Placeholder(name string) Result {
	return Result{URL: PlaceholderURL(name), Emoji: Emoji(name), Source: SourcePlaceholder}
}
