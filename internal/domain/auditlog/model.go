package auditlog

import (
	"time"

	"github.com/google/uuid"
)

// Action names what happened to the waitlist.
type Action string

const (
	ActionAdd          Action = "ADD"
	ActionEdit         Action = "EDIT"
	ActionStatusChange Action = "STATUS_CHANGE"
	ActionBulkSchedule Action = "BULK_SCHEDULE"
	ActionDelete       Action = "DELETE"
	ActionExport       Action = "EXPORT"
	ActionPrint        Action = "PRINT"
	ActionLogin        Action = "LOGIN"
	ActionLogout       Action = "LOGOUT"
)

var validActions = map[Action]bool{
	ActionAdd: true, ActionEdit: true, ActionStatusChange: true,
	ActionBulkSchedule: true, ActionDelete: true, ActionExport: true,
	ActionPrint: true, ActionLogin: true, ActionLogout: true,
}

// clientActions are the actions a client may report directly; the rest are
// written by the server as side effects of mutations and exports.
var clientActions = map[Action]bool{
	ActionPrint: true, ActionLogin: true, ActionLogout: true,
}

func (a Action) Valid() bool { return validActions[a] }

// Actor identifies who performed an action.
type Actor struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Entry is one audit record. Before and After are snapshots; Changes is set
// only for edits that changed something.
type Entry struct {
	ID          uuid.UUID  `json:"id"`
	Action      Action     `json:"action"`
	EntityID    *uuid.UUID `json:"entity_id,omitempty"`
	PatientName string     `json:"patient_name,omitempty"`
	Actor       Actor      `json:"actor"`
	Before      Snapshot   `json:"before,omitempty"`
	After       Snapshot   `json:"after,omitempty"`
	Changes     Changes    `json:"changes,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	Note        string     `json:"note,omitempty"`
}

// DefaultListLimit is the number of newest entries returned by a listing.
const DefaultListLimit = 100

// Query selects entries for a listing. Empty fields match everything.
type Query struct {
	Action   Action
	EntityID *uuid.UUID
	Limit    int
}

// Normalize clamps the limit into [1, DefaultListLimit].
func (q Query) Normalize() Query {
	if q.Limit <= 0 || q.Limit > DefaultListLimit {
		q.Limit = DefaultListLimit
	}
	return q
}

// Matches reports whether e satisfies every set field of q.
func (q Query) Matches(e *Entry) bool {
	if q.Action != "" && e.Action != q.Action {
		return false
	}
	if q.EntityID != nil && (e.EntityID == nil || *e.EntityID != *q.EntityID) {
		return false
	}
	return true
}
