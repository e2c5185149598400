// Package prompt renders the completion request for a finding.
package prompt

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"strings"

	"actionplan-backend/internal/findings"
	"actionplan-backend/internal/guide"
	"actionplan-backend/internal/questions"
)

var (
	//go:embed templates/en.txt
	templateEN string
	//go:embed templates/fr.txt
	templateFR string
)

// AnswerSeparator joins answers in the rendered prompt.
const AnswerSeparator = "\n"

// Template returns the template text for locale and whether the locale was recognized.
func Template(locale string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "fr":
		return templateFR, true
	case "en":
		return templateEN, true
	default:
		return templateEN, false
	}
}

// Build renders the prompt for a finding, its guidance row and the user's answers.
// Finding fields and answers are interpolated verbatim; answers keep their order and
// empty answers stay in place as empty lines. Blank guidance fields use the
// questions placeholder for the locale.
func Build(locale string, f findings.Finding, row guide.Row, answers []string) string {
	template, _ := Template(locale)
	placeholder := questions.Placeholder(locale)

	// One pass: interpolated values are never rescanned for placeholders.
	replacer := strings.NewReplacer(
		"{{REQUIREMENT_ID}}", f.RequirementID,
		"{{REQUIREMENT_TEXT}}", f.RequirementText,
		"{{AUDITOR_COMMENT}}", f.AuditorComment,
		"{{GOOD_PRACTICE}}", orPlaceholder(row.GoodPractice, placeholder),
		"{{ELEMENTS_TO_CHECK}}", orPlaceholder(row.ElementsToCheck, placeholder),
		"{{EXAMPLE_QUESTIONS}}", orPlaceholder(row.ExampleQuestions, placeholder),
		"{{ANSWERS}}", strings.Join(answers, AnswerSeparator),
	)
	return replacer.Replace(template)
}

// Hash returns the hex sha256 of a rendered prompt.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func orPlaceholder(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}
