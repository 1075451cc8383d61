// Package password scores password text against the fixed registration rule set.
// Evaluation is pure and cheap enough to run on every keystroke.
package password

import (
	"strings"
	"unicode/utf8"
)

// SpecialCharacters is the punctuation set accepted by the special-character rule.
const SpecialCharacters = `!@#$%^&*(),.?":{}|<>`

// MinLength is the shortest password satisfying the length rule.
const MinLength = 8

// pointsPerRule is the equal weight of each rule; five rules make 100.
const pointsPerRule = 20

type RuleID string

const (
	RuleLength    RuleID = "length"
	RuleUppercase RuleID = "uppercase"
	RuleLowercase RuleID = "lowercase"
	RuleNumber    RuleID = "number"
	RuleSpecial   RuleID = "special"
)

type RuleResult struct {
	ID        RuleID `json:"id"`
	Label     string `json:"label"`
	Satisfied bool   `json:"satisfied"`
}

type Category string

const (
	CategoryWeak       Category = "weak"
	CategoryMedium     Category = "medium"
	CategoryGood       Category = "good"
	CategoryVeryStrong Category = "very_strong"
)

// Label is the display text for the category.
func (c Category) Label() string {
	switch c {
	case CategoryMedium:
		return "Medium"
	case CategoryGood:
		return "Good"
	case CategoryVeryStrong:
		return "Very Strong"
	default:
		return "Weak"
	}
}

// Report is derived from the current password text and never stored.
type Report struct {
	Rules    []RuleResult `json:"rules"`
	Score    int          `json:"score"`
	Category Category     `json:"category"`
	Label    string       `json:"label"`
}

// Satisfied reports whether the given rule holds.
func (r Report) Satisfied(id RuleID) bool {
	for _, rule := range r.Rules {
		if rule.ID == id {
			return rule.Satisfied
		}
	}
	return false
}

type rule struct {
	id    RuleID
	label string
	check func(string) bool
}

var rules = []rule{
	{RuleLength, "At least 8 characters", func(s string) bool { return utf8.RuneCountInString(s) >= MinLength }},
	{RuleUppercase, "An uppercase letter", containsFunc(between('A', 'Z'))},
	{RuleLowercase, "A lowercase letter", containsFunc(between('a', 'z'))},
	{RuleNumber, "A number", containsFunc(between('0', '9'))},
	{RuleSpecial, "A special character", func(s string) bool { return strings.ContainsAny(s, SpecialCharacters) }},
}

// between matches ASCII only: accented letters and Arabic-Indic digits do not
// satisfy the letter and number rules.
func between(lo, hi rune) func(rune) bool {
	return func(r rune) bool { return lo <= r && r <= hi }
}

func containsFunc(pred func(rune) bool) func(string) bool {
	return func(s string) bool {
		return strings.IndexFunc(s, pred) >= 0
	}
}

// Evaluate returns the rule-by-rule report for pw. Score is 20 per satisfied rule.
func Evaluate(pw string) Report {
	report := Report{Rules: make([]RuleResult, 0, len(rules))}
	for _, r := range rules {
		ok := r.check(pw)
		if ok {
			report.Score += pointsPerRule
		}
		report.Rules = append(report.Rules, RuleResult{ID: r.id, Label: r.label, Satisfied: ok})
	}
	report.Category = CategoryFor(report.Score)
	report.Label = report.Category.Label()
	return report
}

// CategoryFor maps a score to its display category.
func CategoryFor(score int) Category {
	switch {
	case score < 40:
		return CategoryWeak
	case score < 60:
		return CategoryMedium
	case score < 80:
		return CategoryGood
	default:
		return CategoryVeryStrong
	}
}
