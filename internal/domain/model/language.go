package model

import (
	"strings"
)

// Language is a judge-supported language. JudgeID is the Judge0 language id.
type Language struct {
	Slug    string   `json:"slug"`
	Name    string   `json:"name"`
	JudgeID int      `json:"judge_id"`
	Aliases []string `json:"aliases,omitempty"`
}

var languages = []Language{
	{Slug: "c++", Name: "C++ (GCC 9.2.0)", JudgeID: 54, Aliases: []string{"cpp"}},
	{Slug: "java", Name: "Java (OpenJDK 13.0.1)", JudgeID: 62},
	{Slug: "javascript", Name: "JavaScript (Node.js 12.14.0)", JudgeID: 63, Aliases: []string{"js"}},
	{Slug: "python", Name: "Python (3.8.1)", JudgeID: 71, Aliases: []string{"py", "python3"}},
}

var languageIndex = func() map[string]Language {
	idx := make(map[string]Language)
	for _, l := range languages {
		idx[l.Slug] = l
		for _, a := range l.Aliases {
			idx[a] = l
		}
	}
	return idx
}()

// LookupLanguage resolves a slug or alias, case-insensitively.
func LookupLanguage(name string) (Language, bool) {
	l, ok := languageIndex[strings.ToLower(strings.TrimSpace(name))]
	return l, ok
}

// CanonicalLanguage returns the registry slug for name, or the lowercased
// input when the language is unknown.
func CanonicalLanguage(name string) string {
	if l, ok := LookupLanguage(name); ok {
		return l.Slug
	}
	return strings.ToLower(strings.TrimSpace(name))
}

func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}
