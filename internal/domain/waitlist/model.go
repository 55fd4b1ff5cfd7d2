package waitlist

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinic/waitlist/internal/domain/auditlog"
)

// Urgency levels, highest priority first.
const (
	UrgencyUrgent  = "urgent"
	UrgencySoon    = "soon"
	UrgencyRoutine = "routine"
)

// Workflow statuses.
const (
	StatusWaiting   = "Waiting"
	StatusPreOp     = "Pre-op Prep"
	StatusReady     = "Ready"
	StatusScheduled = "Scheduled"
	StatusCompleted = "Completed"
)

// maxDiopter bounds the absolute IOL power accepted on write.
var maxDiopter = decimal.NewFromInt(100)

// scheduledDateLayout is the calendar-date form used for scheduled dates in
// snapshots, CSV rows and the schedule view.
const scheduledDateLayout = "2006-01-02"

// Patient maps to the patients table. Name, PatientID, Urgency, Status and
// AddedDate are required; Surgeon and ScheduledDate are optional. The
// remaining fields are passengers that the ordering, filter, audit and export
// logic never read.
type Patient struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	PatientID     string     `db:"patient_id" json:"patient_id"`
	SurgeryType   string     `db:"surgery_type" json:"surgery_type"`
	Urgency       string     `db:"urgency" json:"urgency"`
	Status        string     `db:"status" json:"status"`
	Surgeon       *string    `db:"surgeon" json:"surgeon,omitempty"`
	AddedDate     time.Time  `db:"added_date" json:"added_date"`
	ScheduledDate *time.Time `db:"scheduled_date" json:"scheduled_date,omitempty"`

	CaseInformation    *string          `db:"case_information" json:"case_information,omitempty"`
	AnesthesiaApproval bool             `db:"anesthesia_approval" json:"anesthesia_approval"`
	IOLDiopter         *decimal.Decimal `db:"iol_diopter" json:"iol_diopter,omitempty"`
	EquipmentNeeded    *string          `db:"equipment_needed" json:"equipment_needed,omitempty"`
	Notes              *string          `db:"notes" json:"notes,omitempty"`
	PhotoURL           *string          `db:"photo_url" json:"photo_url,omitempty"`
	AddedBy            *string          `db:"added_by" json:"added_by,omitempty"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// SurgeonName returns the surgeon or "" when none is assigned.
func (p *Patient) SurgeonName() string {
	if p.Surgeon == nil {
		return ""
	}
	return *p.Surgeon
}

// ScheduledDateString returns the scheduled date as YYYY-MM-DD, or "" when
// the patient has not been scheduled.
func (p *Patient) ScheduledDateString() string {
	if p.ScheduledDate == nil {
		return ""
	}
	return p.ScheduledDate.Format(scheduledDateLayout)
}

// Snapshot returns the compliance subset of the record used for audit diffs.
// Absent optional fields are carried as nil, never as "".
func (p *Patient) Snapshot() auditlog.Snapshot {
	if p == nil {
		return nil
	}
	var surgeon, scheduled any
	if p.Surgeon != nil {
		surgeon = *p.Surgeon
	}
	if p.ScheduledDate != nil {
		scheduled = p.ScheduledDate.Format(scheduledDateLayout)
	}
	return auditlog.SnapshotOf(map[string]any{
		auditlog.FieldName:          p.Name,
		auditlog.FieldPatientID:     p.PatientID,
		auditlog.FieldSurgeryType:   p.SurgeryType,
		auditlog.FieldUrgency:       p.Urgency,
		auditlog.FieldStatus:        p.Status,
		auditlog.FieldSurgeon:       surgeon,
		auditlog.FieldScheduledDate: scheduled,
	})
}

// Clone returns a shallow copy whose optional pointers are not shared with p.
func (p *Patient) Clone() *Patient {
	cp := *p
	if p.Surgeon != nil {
		s := *p.Surgeon
		cp.Surgeon = &s
	}
	if p.ScheduledDate != nil {
		d := *p.ScheduledDate
		cp.ScheduledDate = &d
	}
	return &cp
}

// PatientUpdate carries an edit. Nil fields are left unchanged; ClearSurgeon
// and ClearScheduledDate remove the optional values.
type PatientUpdate struct {
	Name               *string          `json:"name,omitempty"`
	SurgeryType        *string          `json:"surgery_type,omitempty"`
	Urgency            *string          `json:"urgency,omitempty"`
	Status             *string          `json:"status,omitempty"`
	Surgeon            *string          `json:"surgeon,omitempty"`
	ClearSurgeon       bool             `json:"clear_surgeon,omitempty"`
	ScheduledDate      *time.Time       `json:"scheduled_date,omitempty"`
	ClearScheduledDate bool             `json:"clear_scheduled_date,omitempty"`
	CaseInformation    *string          `json:"case_information,omitempty"`
	AnesthesiaApproval *bool            `json:"anesthesia_approval,omitempty"`
	IOLDiopter         *decimal.Decimal `json:"iol_diopter,omitempty"`
	EquipmentNeeded    *string          `json:"equipment_needed,omitempty"`
	Notes              *string          `json:"notes,omitempty"`
	PhotoURL           *string          `json:"photo_url,omitempty"`
}

// Apply writes the update onto p.
func (u *PatientUpdate) Apply(p *Patient) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.SurgeryType != nil {
		p.SurgeryType = *u.SurgeryType
	}
	if u.Urgency != nil {
		p.Urgency = *u.Urgency
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.ClearSurgeon {
		p.Surgeon = nil
	} else if u.Surgeon != nil {
		s := *u.Surgeon
		p.Surgeon = &s
	}
	if u.ClearScheduledDate {
		p.ScheduledDate = nil
	} else if u.ScheduledDate != nil {
		d := *u.ScheduledDate
		p.ScheduledDate = &d
	}
	if u.CaseInformation != nil {
		p.CaseInformation = u.CaseInformation
	}
	if u.AnesthesiaApproval != nil {
		p.AnesthesiaApproval = *u.AnesthesiaApproval
	}
	if u.IOLDiopter != nil {
		p.IOLDiopter = u.IOLDiopter
	}
	if u.EquipmentNeeded != nil {
		p.EquipmentNeeded = u.EquipmentNeeded
	}
	if u.Notes != nil {
		p.Notes = u.Notes
	}
	if u.PhotoURL != nil {
		p.PhotoURL = u.PhotoURL
	}
}
