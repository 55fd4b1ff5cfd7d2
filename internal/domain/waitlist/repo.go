package waitlist

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository persists waitlist patients. Lookups that find nothing
// return ErrNotFound.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByPatientID(ctx context.Context, patientID string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListAll returns every patient in insertion order.
	ListAll(ctx context.Context) ([]*Patient, error)
}

// Transactor runs fn so that repository calls made with the ctx it receives
// commit or roll back together.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
