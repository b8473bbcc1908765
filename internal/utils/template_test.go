package utils

import (
	"testing"
	"time"
)

func TestTemplate_ExpandWithVars(t *testing.T) {
	tests := []struct {
		name     string
		template Template
		vars     map[string]string
		expected string
	}{
		{
			name:     "script variable",
			template: Template("run - ${script}"),
			vars:     map[string]string{"script": "Move analyses"},
			expected: "run - Move analyses",
		},
		{
			name:     "script and run",
			template: Template("${script} ${run}"),
			vars:     map[string]string{"script": "batch", "run": "1234"},
			expected: "batch 1234",
		},
		{
			name:     "unknown variable left unchanged",
			template: Template("${unknown}"),
			vars:     map[string]string{"script": "batch"},
			expected: "${unknown}",
		},
		{
			name:     "multiple same variables",
			template: Template("${script}-${script}"),
			vars:     map[string]string{"script": "a"},
			expected: "a-a",
		},
		{
			name:     "no variables",
			template: Template("plain"),
			vars:     map[string]string{"script": "a"},
			expected: "plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.template.ExpandWithVars(tt.vars)

			if result.String() != tt.expected {
				t.Errorf("result = %q, want %q", result.String(), tt.expected)
			}
		})
	}
}

func TestTemplate_ExpandWithTime(t *testing.T) {
	now := time.Date(2025, 3, 26, 8, 5, 9, 0, time.UTC)

	tests := []struct {
		template Template
		expected string
	}{
		{"%Y-%m-%d", "2025-03-26"},
		{"%Y_%m_%d_%H%M%S (%a)", "2025_03_26_080509 (Wed)"},
		{"no tokens", "no tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.template.String(), func(t *testing.T) {
			if got := tt.template.ExpandWithTime(now).String(); got != tt.expected {
				t.Errorf("result = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTemplate_TimeBeforeVars(t *testing.T) {
	now := time.Date(2025, 3, 26, 8, 0, 0, 0, time.UTC)
	result := Template("%Y - ${script}").ExpandWithTime(now).ExpandWithVars(map[string]string{"script": "100%d"})

	if result.String() != "2025 - 100%d" {
		t.Errorf("result = %q, want %q", result.String(), "2025 - 100%d")
	}
}
