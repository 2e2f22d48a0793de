package negotiation

import "strings"

type Language string

const (
	English Language = "english"
	French  Language = "french"
	Pidgin  Language = "pidgin"
)

// Languages lists every language the catalog must cover.
var Languages = []Language{English, French, Pidgin}

// ParseLanguage maps a user-supplied code to a supported language.
// Unrecognised codes fall back to English.
func ParseLanguage(code string) Language {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "french", "fr", "francais", "français":
		return French
	case "pidgin", "pcm", "pidgin-english":
		return Pidgin
	default:
		return English
	}
}
