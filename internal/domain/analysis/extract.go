package analysis

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// first fenced block, optionally tagged json
var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?[ \\t]*\\r?\\n?(.*?)```")

// Extract pulls the structured analysis out of a free-form model answer.
// It never fails: unparseable text comes back as a degraded Result.
func Extract(text string) Result {
	candidate := strings.TrimSpace(text)
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		candidate = strings.TrimSpace(m[1])
	}

	res, ok := parseObject(candidate)
	if !ok {
		return Degraded(text)
	}
	return res
}

func parseObject(candidate string) (Result, bool) {
	if candidate == "" {
		return Result{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil || fields == nil {
		return Result{}, false
	}

	var res Result
	if err := json.Unmarshal([]byte(candidate), &res); err != nil {
		// mistyped fields are skipped, the rest is still usable
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return Result{}, false
		}
	}
	res.RawText = ""
	res.ParseFailed = false
	res.raw = json.RawMessage(candidate)
	return res, true
}
