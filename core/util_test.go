package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Ann Lee", CleanString("  Ann Lee \n"))
	assert.Equal(t, "ann@example.com", CleanString(" Ann@Example.COM ", true))
	assert.Equal(t, "Ann@Example.COM", CleanString("Ann@Example.COM", false))
}

func TestCollapseSpaces(t *testing.T) {
	tests := map[string]string{
		"Data Science":          "Data Science",
		"  Data   Science ":     "Data Science",
		"Data\t\nScience":       "Data Science",
		"   ":                   "",
		"Web  Development 101 ": "Web Development 101",
	}
	for in, want := range tests {
		assert.Equal(t, want, CollapseSpaces(in), "CollapseSpaces(%q)", in)
	}
}
