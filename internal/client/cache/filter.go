package cache

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/avikom/catersync/pkg/api"
)

// matches applies a list query to one cached payload. Search is a
// case-insensitive substring match over the payload's string fields,
// status compares the "status" field exactly, and the date range
// brackets the "delivery_at" timestamp.
func matches(payload json.RawMessage, query api.ListQuery) bool {
	if query.IsZero() {
		return true
	}

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return false
	}

	if query.Status != "" {
		status, _ := fields["status"].(string)
		if status != query.Status {
			return false
		}
	}

	if !query.From.IsZero() || !query.To.IsZero() {
		raw, _ := fields["delivery_at"].(string)
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return false
		}
		if !query.From.IsZero() && at.Before(query.From) {
			return false
		}
		if !query.To.IsZero() && at.After(query.To) {
			return false
		}
	}

	if query.Search != "" && !searchFields(fields, strings.ToLower(query.Search)) {
		return false
	}

	return true
}

// searchFields scans string values, descending into nested objects and
// arrays, for the lowercased needle.
func searchFields(fields map[string]any, needle string) bool {
	for _, v := range fields {
		if searchValue(v, needle) {
			return true
		}
	}
	return false
}

func searchValue(v any, needle string) bool {
	switch val := v.(type) {
	case string:
		return strings.Contains(strings.ToLower(val), needle)
	case map[string]any:
		return searchFields(val, needle)
	case []any:
		for _, item := range val {
			if searchValue(item, needle) {
				return true
			}
		}
	}
	return false
}
