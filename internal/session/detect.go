package session

import "strings"

// Language detection only needs to answer one question: does the content
// already match the session's preferred language. A lightweight heuristic
// over diacritics and stopwords is enough for that; anything finer belongs
// behind the Translator boundary.

var stopwords = map[string][]string{
	"en": {" the ", " and ", " is ", " of ", " to ", " in "},
	"pl": {" nie ", " jest ", " się ", " oraz ", " aby ", " dla "},
	"de": {" der ", " die ", " und ", " ist ", " nicht ", " ein "},
	"es": {" el ", " la ", " que ", " de ", " los ", " una "},
	"fr": {" le ", " la ", " les ", " est ", " une ", " dans "},
}

var diacritics = map[string]string{
	"pl": "ąćęłńóśźż",
	"de": "äöüß",
	"es": "ñ¿¡",
	"fr": "àâçèéêîôù",
}

// DetectLanguage guesses the language code of the content. Defaults to
// "en" when nothing distinctive is found.
func DetectLanguage(content string) string {
	lower := " " + strings.ToLower(content) + " "

	best, bestScore := "en", 0
	for lang, words := range stopwords {
		score := 0
		for _, w := range words {
			score += strings.Count(lower, w)
		}
		for _, r := range diacritics[lang] {
			score += 2 * strings.Count(lower, string(r))
		}
		if score > bestScore {
			best, bestScore = lang, score
		}
	}
	return best
}
