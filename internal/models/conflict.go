package models

import (
	"encoding/json"
	"sort"
)

// Conflict pairs a queued local mutation with the backend's current
// version of the same record. It is held in memory by the orchestrator
// until resolved or dismissed, never persisted.
type Conflict struct {
	Kind          Kind            `json:"kind"`
	LocalID       string          `json:"local_id"`
	Local         json.RawMessage `json:"local"`
	Server        json.RawMessage `json:"server"`
	ServerVersion string          `json:"server_version"`
	ServerID      int64           `json:"server_id"`
	ChangedFields []string        `json:"changed_fields"`
}

// DiffFields returns the top-level JSON fields whose values differ
// between the local and server payloads. Fields present on only one
// side count as changed.
func DiffFields(local, server json.RawMessage) []string {
	var a, b map[string]json.RawMessage
	if err := json.Unmarshal(local, &a); err != nil {
		return nil
	}
	if err := json.Unmarshal(server, &b); err != nil {
		return nil
	}

	var fields []string
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !jsonEqual(av, bv) {
			fields = append(fields, k)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return fields
}

// jsonEqual compares two JSON values structurally, ignoring key order
// and whitespace.
func jsonEqual(a, b json.RawMessage) bool {
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return deepEqualJSON(av, bv)
}

func deepEqualJSON(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !deepEqualJSON(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqualJSON(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
