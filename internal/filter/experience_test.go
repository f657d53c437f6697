package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExperienceExceeds(t *testing.T) {
	m := newExperienceMatcher(3)

	tests := []struct {
		name        string
		description string
		exceeds     bool
	}{
		{"required phrase rejects", "5+ years required", true},
		{"preferred phrase does not reject", "5+ years preferred", false},
		{"a plus does not reject", "5 years of experience is a plus", false},
		{"nice to have does not reject", "4 years in a soc nice to have", false},
		{"below ceiling accepted", "requires 2 years experience", false},
		{"at ceiling rejects", "3 years of experience required", true},
		{"plus suffix", "3+ years working with siem tooling", true},
		{"word form", "five years of incident response experience", true},
		{"word form below ceiling", "two years of experience", false},
		{"range takes the lower bound", "3 to 5 years of experience", true},
		{"hyphen range", "4-6 yrs experience in appsec", true},
		{"preferred far away still rejects", "5 years required. relocation assistance preferred", true},
		{"empty description", "", false},
		{"no experience phrase", "we value curiosity over tenure", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.exceeds, m.Exceeds(Normalize(tt.description)))
		})
	}
}

func TestExperienceCeilingDisabled(t *testing.T) {
	m := newExperienceMatcher(0)
	assert.False(t, m.Exceeds("20 years required"))
}
