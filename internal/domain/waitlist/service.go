package waitlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/waitlist/internal/domain/auditlog"
	"github.com/clinic/waitlist/internal/platform/cache"
	"github.com/clinic/waitlist/internal/platform/metrics"
	"github.com/clinic/waitlist/pkg/pagination"
)

// AuditRecorder stores audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, e *auditlog.Entry) error
}

type Service struct {
	patients     PatientRepository
	tx           Transactor
	audit        AuditRecorder
	catalog      Catalog
	clock        Clock
	longWaitDays int
	pageSize     int
	metrics      *metrics.Collector
	cache        *cache.Cache
	logger       zerolog.Logger
}

type Option func(*Service)

func WithCatalog(c Catalog) Option            { return func(s *Service) { s.catalog = c } }
func WithClock(c Clock) Option                { return func(s *Service) { s.clock = c } }
func WithLongWaitDays(d int) Option           { return func(s *Service) { s.longWaitDays = d } }
func WithPageSize(n int) Option               { return func(s *Service) { s.pageSize = n } }
func WithMetrics(m *metrics.Collector) Option { return func(s *Service) { s.metrics = m } }
func WithLogger(l zerolog.Logger) Option      { return func(s *Service) { s.logger = l } }

// WithCache caches the dashboard overview between mutations.
func WithCache(c *cache.Cache) Option { return func(s *Service) { s.cache = c } }

// WithTransactor makes bulk operations atomic.
func WithTransactor(t Transactor) Option { return func(s *Service) { s.tx = t } }

func NewService(patients PatientRepository, audit AuditRecorder, opts ...Option) *Service {
	s := &Service{
		patients:     patients,
		audit:        audit,
		catalog:      DefaultCatalog(),
		clock:        time.Now,
		longWaitDays: DefaultLongWaitDays,
		pageSize:     pagination.DefaultPageSize,
		logger:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With().Str("component", "waitlist").Logger()
	return s
}

func (s *Service) Catalog() Catalog { return s.catalog }

func (s *Service) Now() time.Time { return s.clock() }

func (s *Service) PageSize() int { return s.pageSize }

// record writes an audit entry. The mutation it describes has already been
// committed, so a failure is logged rather than returned.
func (s *Service) record(ctx context.Context, e *auditlog.Entry) {
	if e.Action != auditlog.ActionExport {
		s.invalidate(ctx)
	}
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, e); err != nil {
		s.logger.Error().Err(err).Str("action", string(e.Action)).Msg("audit entry lost")
	}
}

func (s *Service) validate(p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	p.PatientID = strings.TrimSpace(p.PatientID)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if p.PatientID == "" {
		return fmt.Errorf("%w: patient_id is required", ErrValidation)
	}
	if p.Urgency == "" {
		return fmt.Errorf("%w: urgency is required", ErrValidation)
	}
	if p.Status == "" {
		return fmt.Errorf("%w: status is required", ErrValidation)
	}
	if p.Surgeon != nil && strings.TrimSpace(*p.Surgeon) == "" {
		p.Surgeon = nil
	}
	if p.IOLDiopter != nil && p.IOLDiopter.Abs().GreaterThan(maxDiopter) {
		return fmt.Errorf("%w: iol_diopter out of range", ErrValidation)
	}

	// Unknown catalog values are kept; they sort last and still filter.
	if !s.catalog.IsKnownUrgency(p.Urgency) {
		s.logger.Warn().Str("patient_id", p.PatientID).Str("urgency", p.Urgency).Msg("unknown urgency")
	}
	if !s.catalog.IsKnownStatus(p.Status) {
		s.logger.Warn().Str("patient_id", p.PatientID).Str("status", p.Status).Msg("unknown status")
	}
	if p.SurgeryType != "" && !s.catalog.IsKnownSurgeryType(p.SurgeryType) {
		s.logger.Warn().Str("patient_id", p.PatientID).Str("surgery_type", p.SurgeryType).Msg("unknown surgery type")
	}
	return nil
}

// Create adds a patient to the waitlist. Status defaults to Waiting and the
// added date to now. A patient id already on the list is rejected.
func (s *Service) Create(ctx context.Context, p *Patient, actor auditlog.Actor) error {
	if p.Status == "" {
		p.Status = StatusWaiting
	}
	if p.AddedDate.IsZero() {
		p.AddedDate = s.clock().UTC()
	}
	if p.AddedBy == nil && actor.Name != "" {
		name := actor.Name
		p.AddedBy = &name
	}
	if err := s.validate(p); err != nil {
		return err
	}

	existing, err := s.patients.GetByPatientID(ctx, p.PatientID)
	switch {
	case err == nil && existing != nil:
		return fmt.Errorf("%w: %s", ErrDuplicatePatientID, p.PatientID)
	case err != nil && !errors.Is(err, ErrNotFound):
		return fmt.Errorf("check patient id: %w", err)
	}

	if err := s.patients.Create(ctx, p); err != nil {
		return err
	}
	s.record(ctx, auditlog.NewDiffEntry(auditlog.ActionAdd, actor, p.ID, p.Name, nil, p.Snapshot()))
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// Update applies an edit and records the fields that changed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, u *PatientUpdate, actor auditlog.Actor) (*Patient, error) {
	return s.mutate(ctx, id, auditlog.ActionEdit, actor, func(p *Patient) error {
		u.Apply(p)
		return nil
	})
}

// UpdateStatus changes only the workflow status.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string, actor auditlog.Actor) (*Patient, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrValidation)
	}
	return s.mutate(ctx, id, auditlog.ActionStatusChange, actor, func(p *Patient) error {
		p.Status = status
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, action auditlog.Action, actor auditlog.Actor, change func(*Patient) error) (*Patient, error) {
	current, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := current.Snapshot()
	next := current.Clone()
	if err := change(next); err != nil {
		return nil, err
	}
	if err := s.validate(next); err != nil {
		return nil, err
	}
	if err := s.patients.Update(ctx, next); err != nil {
		return nil, err
	}
	s.record(ctx, auditlog.NewDiffEntry(action, actor, next.ID, next.Name, before, next.Snapshot()))
	return next, nil
}

// BulkSchedule books every listed patient on date and moves them to
// Scheduled. Either all patients are updated or none are. One audit entry is
// written per patient.
func (s *Service) BulkSchedule(ctx context.Context, ids []uuid.UUID, date time.Time, actor auditlog.Actor) ([]*Patient, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one patient is required", ErrValidation)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: scheduled_date is required", ErrValidation)
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	type pending struct {
		before auditlog.Snapshot
		next   *Patient
	}
	var done []pending
	run := func(ctx context.Context) error {
		seen := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true

			current, err := s.patients.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("patient %s: %w", id, err)
			}
			next := current.Clone()
			next.ScheduledDate = &day
			next.Status = StatusScheduled
			if err := s.patients.Update(ctx, next); err != nil {
				return fmt.Errorf("patient %s: %w", id, err)
			}
			done = append(done, pending{before: current.Snapshot(), next: next})
		}
		return nil
	}

	var err error
	if s.tx != nil {
		err = s.tx.InTx(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return nil, err
	}

	out := make([]*Patient, 0, len(done))
	for _, d := range done {
		s.record(ctx, auditlog.NewDiffEntry(auditlog.ActionBulkSchedule, actor, d.next.ID, d.next.Name, d.before, d.next.Snapshot()))
		out = append(out, d.next)
	}
	return out, nil
}

// Delete removes a patient and records the final snapshot.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor auditlog.Actor) error {
	current, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.patients.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, auditlog.NewDiffEntry(auditlog.ActionDelete, actor, current.ID, current.Name, current.Snapshot(), nil))
	return nil
}

// WorklistItem is a patient with its wait days at the time of the read.
type WorklistItem struct {
	*Patient
	WaitDays int `json:"wait_days"`
}

// WorklistPage is one page of the filtered, prioritized worklist.
type WorklistPage struct {
	Items    []WorklistItem  `json:"items"`
	Page     pagination.Page `json:"page"`
	Criteria Criteria        `json:"criteria"`
}

// ordered returns the patients matching c in priority order, evaluated at now.
func (s *Service) ordered(ctx context.Context, c Criteria, now time.Time) ([]*Patient, error) {
	all, err := s.patients.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return SortByPriority(Filter(all, c), s.catalog, now), nil
}

// Worklist filters, orders and pages the waitlist.
func (s *Service) Worklist(ctx context.Context, c Criteria, page, size int) (*WorklistPage, error) {
	now := s.clock()
	patients, err := s.ordered(ctx, c, now)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = s.pageSize
	}
	slice, info := pagination.Paginate(patients, page, size)
	wait := WaitDaysAt(now)
	items := make([]WorklistItem, len(slice))
	for i, p := range slice {
		items[i] = WorklistItem{Patient: p, WaitDays: wait(p)}
	}
	return &WorklistPage{Items: items, Page: info, Criteria: c}, nil
}

// Schedule groups booked patients by date.
func (s *Service) Schedule(ctx context.Context) ([]ScheduleDay, error) {
	all, err := s.patients.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return BuildSchedule(all), nil
}

// Overview is the dashboard payload: tile counts plus the surgeon choices
// for the filter bar.
type Overview struct {
	Stats    Stats    `json:"stats"`
	Surgeons []string `json:"surgeons"`
}

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	if s.cache.IsEnabled() {
		var cached Overview
		if err := s.cache.Get(ctx, overviewKey, &cached); err == nil {
			return &cached, nil
		}
	}

	all, err := s.patients.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	stats := ComputeStats(all, s.clock(), s.longWaitDays)
	s.metrics.SetWorklistSize(stats.Total)
	ov := &Overview{Stats: stats, Surgeons: UniqueSurgeons(all)}

	if s.cache.IsEnabled() {
		if err := s.cache.Set(ctx, overviewKey, ov, cache.TTLOverview); err != nil {
			s.logger.Warn().Err(err).Msg("overview not cached")
		}
	}
	return ov, nil
}

const overviewKey = "overview"

func (s *Service) invalidate(ctx context.Context) {
	if !s.cache.IsEnabled() {
		return
	}
	if err := s.cache.Delete(ctx, overviewKey); err != nil {
		s.logger.Warn().Err(err).Msg("overview cache not invalidated")
	}
}

// Export renders the filtered worklist as CSV in priority order and records
// an EXPORT entry. It returns the CSV text and the download file name.
func (s *Service) Export(ctx context.Context, c Criteria, actor auditlog.Actor) (string, string, error) {
	now := s.clock()
	patients, err := s.ordered(ctx, c, now)
	if err != nil {
		return "", "", err
	}
	out := ToCSV(patients, WaitDaysAt(now))
	s.metrics.RecordExport("csv")
	s.record(ctx, &auditlog.Entry{
		Action: auditlog.ActionExport,
		Actor:  actor,
		Note:   fmt.Sprintf("exported %d patients", len(patients)),
	})
	return out, ExportFilename(now), nil
}
