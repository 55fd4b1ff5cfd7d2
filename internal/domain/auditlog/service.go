package auditlog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/waitlist/internal/platform/metrics"
)

var ErrInvalidAction = errors.New("invalid audit action")

// Recorder writes entries to the primary store and, when that fails, to the
// fallback. Listings merge both so entries held in the fallback stay visible.
type Recorder struct {
	primary  Store
	fallback Store
	metrics  *metrics.Collector
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRecorder builds a recorder. primary may be nil when no database is
// configured; fallback may be nil to disable the fallback path.
func NewRecorder(primary, fallback Store, m *metrics.Collector, logger zerolog.Logger) *Recorder {
	return &Recorder{
		primary:  primary,
		fallback: fallback,
		metrics:  m,
		logger:   logger.With().Str("component", "auditlog").Logger(),
		now:      time.Now,
	}
}

// NewDiffEntry builds an entry for a change to one patient record, with the
// change map computed from the two snapshots.
func NewDiffEntry(action Action, actor Actor, entityID uuid.UUID, patientName string, before, after Snapshot) *Entry {
	id := entityID
	return &Entry{
		Action:      action,
		EntityID:    &id,
		PatientName: patientName,
		Actor:       actor,
		Before:      before,
		After:       after,
		Changes:     ComputeChanges(before, after),
	}
}

// Record stamps e with an id and timestamp when missing and stores it. An
// error is returned only when neither store accepted the entry.
func (r *Recorder) Record(ctx context.Context, e *Entry) error {
	if !e.Action.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAction, e.Action)
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now().UTC()
	}

	var primaryErr error
	if r.primary != nil {
		if primaryErr = r.primary.Append(ctx, e); primaryErr == nil {
			r.metrics.RecordAuditEntry(string(e.Action), true)
			return nil
		}
		r.logger.Error().Err(primaryErr).
			Str("audit_id", e.ID.String()).
			Str("action", string(e.Action)).
			Msg("audit primary store write failed")
	} else {
		primaryErr = errors.New("no primary store")
	}

	if r.fallback == nil {
		r.metrics.RecordAuditEntry(string(e.Action), false)
		return fmt.Errorf("record audit entry: %w", primaryErr)
	}
	if err := r.fallback.Append(ctx, e); err != nil {
		r.metrics.RecordAuditEntry(string(e.Action), false)
		r.logger.Error().Err(err).Str("audit_id", e.ID.String()).Msg("audit fallback store write failed")
		return fmt.Errorf("record audit entry: primary: %v; fallback: %w", primaryErr, err)
	}
	r.metrics.RecordAuditEntry(string(e.Action), true)
	r.metrics.RecordAuditFallback()
	r.logger.Warn().Str("audit_id", e.ID.String()).Msg("audit entry held in fallback store")
	return nil
}

// List returns the newest entries matching q, at most DefaultListLimit.
func (r *Recorder) List(ctx context.Context, q Query) ([]*Entry, error) {
	q = q.Normalize()

	var primary, fallback []*Entry
	var primaryErr, fallbackErr error
	if r.primary != nil {
		primary, primaryErr = r.primary.Recent(ctx, q)
		if primaryErr != nil {
			r.logger.Warn().Err(primaryErr).Msg("audit primary store read failed; serving fallback")
		}
	} else {
		primaryErr = errors.New("no primary store")
	}
	if r.fallback != nil {
		fallback, fallbackErr = r.fallback.Recent(ctx, q)
		if fallbackErr != nil {
			r.logger.Warn().Err(fallbackErr).Msg("audit fallback store read failed")
		}
	} else {
		fallbackErr = errors.New("no fallback store")
	}

	if primaryErr != nil && fallbackErr != nil {
		return nil, fmt.Errorf("list audit entries: %w", primaryErr)
	}
	return mergeNewest(primary, fallback, q.Limit), nil
}

// mergeNewest merges two newest-first lists, dropping duplicate ids, and
// keeps the first limit entries.
func mergeNewest(a, b []*Entry, limit int) []*Entry {
	seen := make(map[uuid.UUID]bool, len(a)+len(b))
	out := make([]*Entry, 0, len(a)+len(b))
	for _, list := range [][]*Entry{a, b} {
		for _, e := range list {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
