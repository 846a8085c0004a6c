package audit

import (
	"encoding/json"
	"strings"
)

// globalRedactPatterns are key substrings that always trigger redaction.
var globalRedactPatterns = []string{
	"token",
	"secret",
	"password",
	"authorization",
	"cookie",
	"credential",
}

const redactedValue = "[REDACTED]"

// Redact replaces sensitive values in a JSON payload with [REDACTED]. Keys
// are matched against the global patterns and hints, case-insensitively,
// inside nested objects and arrays. Input that is not JSON is returned as is.
func Redact(payload json.RawMessage, hints []string) json.RawMessage {
	if len(payload) == 0 {
		return payload
	}
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return payload
	}
	if !redactValue(v, hints) {
		return payload
	}
	out, err := json.Marshal(v)
	if err != nil {
		return payload
	}
	return out
}

// redactValue rewrites v in place and reports whether anything changed.
func redactValue(v any, hints []string) bool {
	changed := false
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if shouldRedact(k, hints) {
				t[k] = redactedValue
				changed = true
				continue
			}
			if redactValue(val, hints) {
				changed = true
			}
		}
	case []any:
		for _, val := range t {
			if redactValue(val, hints) {
				changed = true
			}
		}
	}
	return changed
}

func shouldRedact(key string, hints []string) bool {
	lower := strings.ToLower(key)
	for _, pattern := range globalRedactPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	for _, hint := range hints {
		if hint != "" && strings.Contains(lower, strings.ToLower(hint)) {
			return true
		}
	}
	return false
}
