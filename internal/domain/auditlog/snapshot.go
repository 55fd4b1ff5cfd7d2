package auditlog

// Compliance fields captured in every snapshot.
const (
	FieldName          = "name"
	FieldPatientID     = "patient_id"
	FieldSurgeryType   = "surgery_type"
	FieldUrgency       = "urgency"
	FieldStatus        = "status"
	FieldSurgeon       = "surgeon"
	FieldScheduledDate = "scheduled_date"
)

// SnapshotFields lists the keys of a snapshot in display order.
var SnapshotFields = []string{
	FieldName,
	FieldPatientID,
	FieldSurgeryType,
	FieldUrgency,
	FieldStatus,
	FieldSurgeon,
	FieldScheduledDate,
}

// Snapshot is the audited view of a record: field name to value. A nil value
// means the field was absent or null, which is kept distinct from "".
type Snapshot map[string]any

// SnapshotOf copies the compliance fields out of record. Every snapshot has
// all seven keys; fields missing from record are stored as nil. Other keys in
// record (internal ids, notes, photos) are dropped.
func SnapshotOf(record map[string]any) Snapshot {
	if record == nil {
		return nil
	}
	s := make(Snapshot, len(SnapshotFields))
	for _, f := range SnapshotFields {
		s[f] = record[f]
	}
	return s
}
