package filter

import (
	"regexp"
	"strconv"
)

// experienceMatcher detects required-experience phrases at or above a
// configured ceiling, e.g. "3+ years", "five years", "4-6 yrs". A phrase
// immediately softened by "preferred", "a plus" or "nice to have" is a wish,
// not a requirement, and does not reject.
var (
	numericYearsRegex = regexp.MustCompile(`\b(\d{1,2})\s*(?:\+|plus)?\s*(?:to|-|–)?\s*\d{0,2}\s*(?:years?|yrs)\b`)
	wordYearsRegex    = regexp.MustCompile(`\b(one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s+(?:years?|yrs)\b`)
	negationRegex     = regexp.MustCompile(`^\s*(?:of\s+)?(?:\w+\s+){0,3}?(?:is\s+|are\s+)?(?:preferred|a\s+plus|nice\s+to\s+have)\b`)
)

var wordToYears = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

type experienceMatcher struct {
	ceiling int
}

func newExperienceMatcher(ceiling int) *experienceMatcher {
	return &experienceMatcher{ceiling: ceiling}
}

// Exceeds reports whether the normalized description asserts a required
// experience of ceiling years or more. A ceiling of zero disables the stage.
func (m *experienceMatcher) Exceeds(description string) bool {
	if m.ceiling <= 0 || description == "" {
		return false
	}
	for _, loc := range numericYearsRegex.FindAllStringSubmatchIndex(description, -1) {
		years, err := strconv.Atoi(description[loc[2]:loc[3]])
		if err != nil || years < m.ceiling {
			continue
		}
		if !m.negated(description, loc[1]) {
			return true
		}
	}
	for _, loc := range wordYearsRegex.FindAllStringSubmatchIndex(description, -1) {
		years := wordToYears[description[loc[2]:loc[3]]]
		if years < m.ceiling {
			continue
		}
		if !m.negated(description, loc[1]) {
			return true
		}
	}
	return false
}

// negated checks the text right after a match for a softening qualifier.
// The window is short on purpose: "5 years preferred" and "5 years of
// experience preferred" qualify, a "preferred" two sentences later does not.
func (m *experienceMatcher) negated(description string, end int) bool {
	window := description[end:]
	if len(window) > 60 {
		window = window[:60]
	}
	return negationRegex.MatchString(window)
}
