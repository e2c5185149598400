// Package questions derives the follow-up questions asked before generating a
// recommendation for a finding.
package questions

import (
	"strings"

	"actionplan-backend/internal/findings"
	"actionplan-backend/internal/guide"
)

// Count is the fixed number of questions in a Set. Answer sets must match it.
const Count = 3

// Set is an ordered set of exactly Count questions.
type Set [Count]string

// Slice returns the questions as a slice.
func (s Set) Slice() []string {
	out := make([]string, Count)
	copy(out, s[:])
	return out
}

type templates struct {
	placeholder string
	cause       string
	procedures  string
	prevention  string
}

var byLocale = map[string]templates{
	"en": {
		placeholder: "unspecified",
		cause:       "What are the potential causes of this non-conformity? (Context: %s)",
		procedures:  "What procedures are currently in place to meet this requirement? (Elements to check: %s)",
		prevention:  "What additional measures could prevent similar risks in the future? (Examples: %s)",
	},
	"fr": {
		placeholder: "Non spécifié",
		cause:       "Quelles sont les causes potentielles de cette non-conformité ? (Contexte : %s)",
		procedures:  "Quelles sont les procédures actuelles pour répondre à cette exigence ? (Éléments à vérifier : %s)",
		prevention:  "Quelles mesures supplémentaires pourraient prévenir des risques similaires dans le futur ? (Exemples : %s)",
	},
}

// Locales lists the supported question locales.
func Locales() []string {
	return []string{"en", "fr"}
}

// Placeholder returns the text substituted for blank guidance fields.
func Placeholder(locale string) string {
	return lookup(locale).placeholder
}

// Compose returns the cause, procedure and prevention questions for a finding.
// Blank fields are replaced by the locale placeholder, so every question is non-empty.
func Compose(locale string, f findings.Finding, row guide.Row) Set {
	tpl := lookup(locale)
	return Set{
		fill(tpl.cause, orPlaceholder(f.AuditorComment, tpl.placeholder)),
		fill(tpl.procedures, orPlaceholder(row.ElementsToCheck, tpl.placeholder)),
		fill(tpl.prevention, orPlaceholder(row.ExampleQuestions, tpl.placeholder)),
	}
}

func lookup(locale string) templates {
	if tpl, ok := byLocale[strings.ToLower(strings.TrimSpace(locale))]; ok {
		return tpl
	}
	return byLocale["en"]
}

// fill avoids fmt so that verbs inside interpolated text are left alone.
func fill(template, value string) string {
	return strings.Replace(template, "%s", value, 1)
}

func orPlaceholder(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}
