package waitlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clinic/waitlist/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type PatientRepoPG struct{ pool *pgxpool.Pool }

// NewPatientRepoPG returns a repository backed by the patients table. It
// also implements Transactor.
func NewPatientRepoPG(pool *pgxpool.Pool) *PatientRepoPG {
	return &PatientRepoPG{pool: pool}
}

func (r *PatientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PatientRepoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.InTx(ctx, r.pool, fn)
}

const patientCols = `id, name, patient_id, surgery_type, urgency, status, surgeon,
	added_date, scheduled_date, case_information, anesthesia_approval,
	iol_diopter::text, equipment_needed, notes, photo_url, added_by, updated_at`

const uniqueViolation = "23505"

func (r *PatientRepoPG) scanRow(row pgx.Row) (*Patient, error) {
	var p Patient
	var diopter *string
	err := row.Scan(&p.ID, &p.Name, &p.PatientID, &p.SurgeryType, &p.Urgency, &p.Status, &p.Surgeon,
		&p.AddedDate, &p.ScheduledDate, &p.CaseInformation, &p.AnesthesiaApproval,
		&diopter, &p.EquipmentNeeded, &p.Notes, &p.PhotoURL, &p.AddedBy, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if diopter != nil {
		d, err := decimal.NewFromString(*diopter)
		if err != nil {
			return nil, fmt.Errorf("decode iol_diopter %q: %w", *diopter, err)
		}
		p.IOLDiopter = &d
	}
	return &p, nil
}

func diopterArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicatePatientID
	}
	return err
}

func (r *PatientRepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, name, patient_id, surgery_type, urgency, status, surgeon,
			added_date, scheduled_date, case_information, anesthesia_approval,
			iol_diopter, equipment_needed, notes, photo_url, added_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12::numeric,$13,$14,$15,$16)
		RETURNING updated_at`,
		p.ID, p.Name, p.PatientID, p.SurgeryType, p.Urgency, p.Status, p.Surgeon,
		p.AddedDate, p.ScheduledDate, p.CaseInformation, p.AnesthesiaApproval,
		diopterArg(p.IOLDiopter), p.EquipmentNeeded, p.Notes, p.PhotoURL, p.AddedBy,
	).Scan(&p.UpdatedAt)
	return mapWriteErr(err)
}

func (r *PatientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *PatientRepoPG) GetByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE patient_id = $1`, patientID))
}

func (r *PatientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patients SET name=$2, surgery_type=$3, urgency=$4, status=$5, surgeon=$6,
			scheduled_date=$7, case_information=$8, anesthesia_approval=$9,
			iol_diopter=$10::numeric, equipment_needed=$11, notes=$12, photo_url=$13,
			updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Name, p.SurgeryType, p.Urgency, p.Status, p.Surgeon,
		p.ScheduledDate, p.CaseInformation, p.AnesthesiaApproval,
		diopterArg(p.IOLDiopter), p.EquipmentNeeded, p.Notes, p.PhotoURL,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return mapWriteErr(err)
}

func (r *PatientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PatientRepoPG) ListAll(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
