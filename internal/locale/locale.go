// Package locale resolves the language tag sent with each submission.
package locale

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// Default is used when nothing better is known.
const Default = "en-US"

// Normalize parses tag and returns its canonical BCP 47 form, or "" when it
// cannot be parsed. POSIX forms such as "de_DE.UTF-8" are accepted.
func Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, ".@"); i >= 0 {
		tag = tag[:i]
	}
	tag = strings.ReplaceAll(tag, "_", "-")
	if tag == "" || strings.EqualFold(tag, "C") || strings.EqualFold(tag, "POSIX") {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil || t == language.Und {
		return ""
	}
	return t.String()
}

// Detect returns configured when it parses, otherwise the first parseable of
// LC_ALL, LC_MESSAGES and LANG, otherwise Default.
func Detect(configured string) string {
	if tag := Normalize(configured); tag != "" {
		return tag
	}
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if tag := Normalize(os.Getenv(key)); tag != "" {
			return tag
		}
	}
	return Default
}

// FromAcceptLanguage returns the highest weighted tag of an Accept-Language
// header, or fallback when the header is empty or unusable.
func FromAcceptLanguage(header, fallback string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err == nil {
		for _, t := range tags {
			if t != language.Und {
				return t.String()
			}
		}
	}
	if tag := Normalize(fallback); tag != "" {
		return tag
	}
	return Default
}
