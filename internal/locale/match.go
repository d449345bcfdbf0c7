package locale

import "golang.org/x/text/language"

// Supported display languages, preferred first.
var Supported = []language.Tag{language.English, language.Tamil}

var matcher = language.NewMatcher(Supported)

// Match resolves an Accept-Language header or a bare language code to one of
// the supported languages. Anything unrecognized resolves to English.
func Match(accept string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return language.English
	}
	return Supported[idx]
}
