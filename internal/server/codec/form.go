package codec

import (
	"strings"

	"github.com/dmitrijs2005/kabyedict/internal/server/models"
)

// ParseCommaList splits a form value on commas, as used for variants and
// synonyms.
func ParseCommaList(s string) []string {
	return models.CleanList(strings.Split(s, ","))
}

// ParseSemicolonList splits a form value on semicolons, as used for senses.
func ParseSemicolonList(s string) []string {
	return models.CleanList(strings.Split(s, legacySeparator))
}

// ParseExpressionLines reads one "expression: translation" pair per line.
// Lines without a colon are dropped.
func ParseExpressionLines(s string) []models.Expression {
	var out []models.Expression
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if !strings.Contains(line, ":") {
			continue
		}
		out = append(out, splitExpression(line))
	}
	return models.CleanExpressions(out)
}
