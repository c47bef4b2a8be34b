package mysql

import (
	"encoding/json"
	"strings"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// result_json column requires valid JSON
func resultOrEmpty(r json.RawMessage) string {
	if len(strings.TrimSpace(string(r))) == 0 {
		return "{}"
	}
	return string(r)
}
