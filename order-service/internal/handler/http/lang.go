package http

import (
	"net/http"

	"golang.org/x/text/language"
)

const defaultLanguage = "uz"

var (
	supportedTags  = []language.Tag{language.Uzbek, language.Russian, language.English}
	supportedCodes = []string{"uz", "ru", "en"}
	langMatcher    = language.NewMatcher(supportedTags)
)

// requestLanguage picks uz, ru or en from Accept-Language, defaulting to uz.
func requestLanguage(r *http.Request) string {
	accept := r.Header.Get("Accept-Language")
	if accept == "" {
		return defaultLanguage
	}

	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return defaultLanguage
	}

	_, idx, confidence := langMatcher.Match(tags...)
	if confidence == language.No {
		return defaultLanguage
	}
	return supportedCodes[idx]
}
