package auditlog

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Change is the before and after value of one field.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Changes maps field names to their change. A nil Changes means nothing
// changed; callers test for nil instead of checking the length.
type Changes map[string]Change

// ComputeChanges compares the fields of next against prev. Only keys present
// in next are checked, so fields that exist only in prev are ignored. Values
// are compared by structure: two nested maps or slices with the same content
// are equal even when they are different instances.
//
// It returns nil when either snapshot is nil (nothing to compare) and when no
// field differs.
func ComputeChanges(prev, next Snapshot) Changes {
	if prev == nil || next == nil {
		return nil
	}
	var changes Changes
	for key, to := range next {
		from := prev[key]
		if equalValues(from, to) {
			continue
		}
		if changes == nil {
			changes = make(Changes)
		}
		changes[key] = Change{From: from, To: to}
	}
	return changes
}

// Fields returns the changed field names.
func (c Changes) Fields() []string {
	out := make([]string, 0, len(c))
	for _, f := range SnapshotFields {
		if _, ok := c[f]; ok {
			out = append(out, f)
		}
	}
	for f := range c {
		if !isSnapshotField(f) {
			out = append(out, f)
		}
	}
	return out
}

func isSnapshotField(name string) bool {
	for _, f := range SnapshotFields {
		if f == name {
			return true
		}
	}
	return false
}

// equalValues compares the canonical JSON encodings of a and b. encoding/json
// sorts map keys, so key order does not matter, and numeric types that encode
// the same compare equal. Values that cannot be encoded fall back to
// reflect.DeepEqual.
func equalValues(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ja, jb)
}
