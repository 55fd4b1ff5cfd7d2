package auditlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/waitlist/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type storePG struct{ pool *pgxpool.Pool }

// NewStorePG stores entries in the audit_logs table.
func NewStorePG(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

func (s *storePG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

const entryCols = `id, action, entity_id, patient_name, actor_name, actor_role,
	before_data, after_data, changes, note, recorded_at`

func (s *storePG) Append(ctx context.Context, e *Entry) error {
	before, err := marshalNullable(e.Before)
	if err != nil {
		return fmt.Errorf("encode before: %w", err)
	}
	after, err := marshalNullable(e.After)
	if err != nil {
		return fmt.Errorf("encode after: %w", err)
	}
	var changes []byte
	if e.Changes != nil {
		if changes, err = json.Marshal(e.Changes); err != nil {
			return fmt.Errorf("encode changes: %w", err)
		}
	}

	_, err = s.conn(ctx).Exec(ctx, `
		INSERT INTO audit_logs (`+entryCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, string(e.Action), e.EntityID, nullString(e.PatientName), e.Actor.Name, e.Actor.Role,
		before, after, changes, nullString(e.Note), e.Timestamp)
	return err
}

func (s *storePG) Recent(ctx context.Context, q Query) ([]*Entry, error) {
	q = q.Normalize()
	query := `SELECT ` + entryCols + ` FROM audit_logs WHERE 1=1`
	var args []interface{}
	idx := 1

	if q.Action != "" {
		query += fmt.Sprintf(` AND action = $%d`, idx)
		args = append(args, string(q.Action))
		idx++
	}
	if q.EntityID != nil {
		query += fmt.Sprintf(` AND entity_id = $%d`, idx)
		args = append(args, *q.EntityID)
		idx++
	}
	query += fmt.Sprintf(` ORDER BY recorded_at DESC LIMIT $%d`, idx)
	args = append(args, q.Limit)

	rows, err := s.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var (
		e                      Entry
		action                 string
		patientName, note      *string
		before, after, changes []byte
	)
	if err := row.Scan(&e.ID, &action, &e.EntityID, &patientName, &e.Actor.Name, &e.Actor.Role,
		&before, &after, &changes, &note, &e.Timestamp); err != nil {
		return nil, err
	}
	e.Action = Action(action)
	if patientName != nil {
		e.PatientName = *patientName
	}
	if note != nil {
		e.Note = *note
	}
	if len(before) > 0 {
		if err := json.Unmarshal(before, &e.Before); err != nil {
			return nil, fmt.Errorf("decode before: %w", err)
		}
	}
	if len(after) > 0 {
		if err := json.Unmarshal(after, &e.After); err != nil {
			return nil, fmt.Errorf("decode after: %w", err)
		}
	}
	if len(changes) > 0 {
		if err := json.Unmarshal(changes, &e.Changes); err != nil {
			return nil, fmt.Errorf("decode changes: %w", err)
		}
	}
	return &e, nil
}

func marshalNullable(s Snapshot) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
