package utils

import (
	"strings"
	"testing"
)

func TestIsValidProfileName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "default", input: "default", expected: true},
		{name: "with dash", input: "fabric-prod", expected: true},
		{name: "with underscore", input: "my_profile", expected: true},
		{name: "with dot", input: "eu.west", expected: true},
		{name: "mixed case and digits", input: "Local2", expected: true},
		{name: "max length", input: strings.Repeat("a", 128), expected: true},
		{name: "empty", input: "", expected: false},
		{name: "too long", input: strings.Repeat("a", 129), expected: false},
		{name: "space", input: "my profile", expected: false},
		{name: "newline", input: "prod\nINFO fake log line", expected: false},
		{name: "path separator", input: "../etc", expected: false},
		{name: "unicode", input: "prodüction", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidProfileName(tt.input); got != tt.expected {
				t.Errorf("IsValidProfileName(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
