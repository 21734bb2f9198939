package feed

import (
	"strings"
	"unicode/utf8"
)

// SkipMarker marks promotional text that is passed through untouched.
const SkipMarker = "HE ARK HAS THE STORY IN THIS WEEK'S ARK • Click the link in our bio for digital-edition access"

// mojibake pairs are applied in order; some sequences are prefixes of others.
var mojibake = [][2]string{
	{"‚Äôt", "'"},
	{"‚Äò", "'"},
	{"‚Äô", "'"},
	{"‚Äú", `"`},
	{"‚Äù", `"`},
	{"‚Äôs", "'s"},
	{"¬†", " "},
	{"â€™", "'"},
	{"â€œ", `"`},
	{"â€", `"`},
	{"â€˜", "'"},
}

// CleanText repairs UTF-8 punctuation that was decoded as Mac Roman or
// Windows-1252 and then drops anything outside ASCII.
func CleanText(text string) string {
	if strings.Contains(text, SkipMarker) {
		return text
	}
	for _, pair := range mojibake {
		text = strings.ReplaceAll(text, pair[0], pair[1])
	}
	return stripNonASCII(text)
}

func stripNonASCII(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] < utf8.RuneSelf {
			b.WriteByte(text[i])
		}
	}
	return b.String()
}
