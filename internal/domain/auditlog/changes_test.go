package auditlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseSnapshot() Snapshot {
	return SnapshotOf(map[string]any{
		FieldName:        "Jane Roe",
		FieldPatientID:   "P-100",
		FieldSurgeryType: "Phacoemulsification",
		FieldUrgency:     "routine",
		FieldStatus:      "Waiting",
	})
}

func TestComputeChanges_NilSides(t *testing.T) {
	assert.Nil(t, ComputeChanges(nil, baseSnapshot()))
	assert.Nil(t, ComputeChanges(baseSnapshot(), nil))
	assert.Nil(t, ComputeChanges(nil, nil))
}

func TestComputeChanges_Identical(t *testing.T) {
	changes := ComputeChanges(baseSnapshot(), baseSnapshot())
	assert.Nil(t, changes, "no change must yield nil, not an empty map")
}

func TestComputeChanges_SingleField(t *testing.T) {
	next := baseSnapshot()
	next[FieldUrgency] = "urgent"

	changes := ComputeChanges(baseSnapshot(), next)
	require.Len(t, changes, 1)
	assert.Equal(t, Change{From: "routine", To: "urgent"}, changes[FieldUrgency])
}

func TestComputeChanges_OptionalFieldSet(t *testing.T) {
	next := baseSnapshot()
	next[FieldSurgeon] = "Dr. Lee"
	next[FieldScheduledDate] = "2026-11-02"

	changes := ComputeChanges(baseSnapshot(), next)
	require.Len(t, changes, 2)
	assert.Equal(t, Change{From: nil, To: "Dr. Lee"}, changes[FieldSurgeon])
	assert.Equal(t, Change{From: nil, To: "2026-11-02"}, changes[FieldScheduledDate])
}

func TestComputeChanges_EmptyStringIsNotNil(t *testing.T) {
	next := baseSnapshot()
	next[FieldSurgeon] = ""

	changes := ComputeChanges(baseSnapshot(), next)
	require.Contains(t, changes, FieldSurgeon)
	assert.Nil(t, changes[FieldSurgeon].From)
	assert.Equal(t, "", changes[FieldSurgeon].To)
}

func TestComputeChanges_StructuralEquality(t *testing.T) {
	prev := Snapshot{"meta": map[string]any{"a": 1, "b": []any{"x", "y"}}}
	next := Snapshot{"meta": map[string]any{"b": []any{"x", "y"}, "a": 1}}
	assert.Nil(t, ComputeChanges(prev, next))

	next["meta"] = map[string]any{"a": 2, "b": []any{"x", "y"}}
	changes := ComputeChanges(prev, next)
	require.Contains(t, changes, "meta")
}

func TestComputeChanges_NumericTypesCompareByValue(t *testing.T) {
	assert.Nil(t, ComputeChanges(Snapshot{"n": 3}, Snapshot{"n": 3.0}))
}

func TestComputeChanges_OnlyNewKeysChecked(t *testing.T) {
	prev := Snapshot{"a": 1, "gone": "x"}
	next := Snapshot{"a": 1}
	assert.Nil(t, ComputeChanges(prev, next))
}

func TestComputeChanges_AbsentOldKeyTreatedAsNil(t *testing.T) {
	prev := Snapshot{"a": 1}
	assert.Nil(t, ComputeChanges(prev, Snapshot{"a": 1, "b": nil}))

	changes := ComputeChanges(prev, Snapshot{"a": 1, "b": "set"})
	assert.Equal(t, Changes{"b": {From: nil, To: "set"}}, changes)
}

func TestChanges_Fields(t *testing.T) {
	c := Changes{
		FieldStatus:  {From: "Waiting", To: "Ready"},
		FieldName:    {From: "A", To: "B"},
		FieldSurgeon: {From: nil, To: "Dr. Lee"},
	}
	assert.Equal(t, []string{FieldName, FieldStatus, FieldSurgeon}, c.Fields())
	assert.Empty(t, Changes(nil).Fields())
}

func TestSnapshotOf(t *testing.T) {
	s := SnapshotOf(map[string]any{
		FieldName:   "Jane Roe",
		"notes":     "never audited",
		"photo":     "https://example.com/p.jpg",
		FieldStatus: "Ready",
	})
	require.Len(t, s, len(SnapshotFields))
	assert.Equal(t, "Jane Roe", s[FieldName])
	assert.Equal(t, "Ready", s[FieldStatus])
	assert.NotContains(t, s, "notes")
	assert.NotContains(t, s, "photo")

	v, ok := s[FieldSurgeon]
	assert.True(t, ok, "missing fields are present as explicit nil")
	assert.Nil(t, v)

	assert.Nil(t, SnapshotOf(nil))
}
