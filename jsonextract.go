package quiztutor

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Models wrap JSON in markdown fencing inconsistently, so extraction is
// two-tier: a fenced ```json block first, then the outermost brace pair of
// the raw text.
var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// ExtractJSONObject locates the JSON object in raw model output and
// unmarshals it into v. Failure of both tiers yields MalformedAIResponseError
// carrying the raw text.
func ExtractJSONObject(raw string, v interface{}) error {
	if m := fencedJSONPattern.FindStringSubmatch(raw); m != nil {
		if err := json.Unmarshal([]byte(m[1]), v); err == nil {
			return nil
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), v); err == nil {
			return nil
		}
	}

	return &MalformedAIResponseError{Raw: raw}
}
