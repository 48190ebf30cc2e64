// Package langmeta resolves target language input into the English language
// name used in translation prompts. Users may pass either a name ("Spanish")
// or a locale code ("es", "pt_BR", "en-GB").
package langmeta

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// codePattern matches things that look like locale codes rather than names.
var codePattern = regexp.MustCompile(`^[A-Za-z]{2,3}([-_][A-Za-z0-9]{2,8})*$`)

// Meta describes a resolved target language.
type Meta struct {
	// Code is the canonical BCP 47 tag, empty when the input was a name.
	Code string
	// Name is the English name sent to the model.
	Name string
	// Native is the language's own name for itself, when known.
	Native string
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 && len(parts[1]) == 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns metadata for lang. Codes are mapped to their English
// display names ("pt_BR" becomes "Brazilian Portuguese"); anything else,
// including unknown codes, passes through as the name.
func Resolve(lang string) Meta {
	trimmed := strings.TrimSpace(lang)
	if !codePattern.MatchString(trimmed) {
		return Meta{Name: trimmed}
	}

	tag, err := language.Parse(canonicalize(trimmed))
	if err != nil {
		return Meta{Name: trimmed}
	}

	name := display.English.Tags().Name(tag)
	if name == "" {
		// Region unknown to the display tables: fall back to the base language.
		base, _ := tag.Base()
		name = display.English.Languages().Name(base)
	}
	if name == "" {
		return Meta{Name: trimmed}
	}
	return Meta{
		Code:   tag.String(),
		Name:   name,
		Native: display.Self.Name(tag),
	}
}

// TargetName is Resolve(lang).Name.
func TargetName(lang string) string {
	return Resolve(lang).Name
}
