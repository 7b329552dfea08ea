package quiztutor

import (
	"errors"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"bare object",
			`{"analogy": "a pipe"}`,
			"a pipe",
		},
		{
			"fenced json block",
			"Here you go:\n```json\n{\"analogy\": \"a pipe\"}\n```\nHope that helps!",
			"a pipe",
		},
		{
			"fence without language tag",
			"```\n{\"analogy\": \"a pipe\"}\n```",
			"a pipe",
		},
		{
			"object buried in prose",
			`Sure! The explanation is {"analogy": "a pipe"} as requested.`,
			"a pipe",
		},
		{
			"multiline object in prose",
			"Result:\n{\n  \"analogy\": \"a pipe\"\n}\nDone.",
			"a pipe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exp Explanation
			if err := ExtractJSONObject(tt.raw, &exp); err != nil {
				t.Fatalf("ExtractJSONObject: %v", err)
			}
			if exp.Analogy != tt.want {
				t.Errorf("analogy = %q, want %q", exp.Analogy, tt.want)
			}
		})
	}
}

func TestExtractJSONObjectMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no braces at all", "I cannot help with that."},
		{"braces around garbage", "result: {not json at all}"},
		{"empty response", ""},
		{"only opening brace", `{"analogy": "unterminated`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exp Explanation
			err := ExtractJSONObject(tt.raw, &exp)
			var malformed *MalformedAIResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("error = %v, want MalformedAIResponseError", err)
			}
			if malformed.Raw != tt.raw {
				t.Errorf("Raw = %q, want the full response text", malformed.Raw)
			}
		})
	}
}

func TestExtractJSONObjectFencedPreferredOverNoise(t *testing.T) {
	// Braces in surrounding prose must not confuse the fenced-block tier.
	raw := "Note the format {like this}:\n```json\n{\"analogy\": \"fenced wins\"}\n```"
	var exp Explanation
	if err := ExtractJSONObject(raw, &exp); err != nil {
		t.Fatalf("ExtractJSONObject: %v", err)
	}
	if exp.Analogy != "fenced wins" {
		t.Errorf("analogy = %q, want the fenced block content", exp.Analogy)
	}
}
