package postgres

import (
	"encoding/json"
	"strings"
)

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

func resultOrEmpty(r json.RawMessage) string {
	if len(strings.TrimSpace(string(r))) == 0 {
		return "{}"
	}
	return string(r)
}
