package waitlist

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/clinic/waitlist/internal/domain/auditlog"
	"github.com/clinic/waitlist/internal/platform/auth"
	"github.com/clinic/waitlist/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints: every clinic role
	readGroup := api.Group("", auth.RequireRole(auth.RoleSurgeon, auth.RoleNurse, auth.RoleCoordinator, auth.RoleViewer))
	readGroup.GET("/patients", h.ListPatients)
	readGroup.GET("/patients/:id", h.GetPatient)
	readGroup.GET("/schedule", h.GetSchedule)
	readGroup.GET("/stats", h.GetStats)
	readGroup.GET("/catalog", h.GetCatalog)

	// Write endpoints: clinical staff
	writeGroup := api.Group("", auth.RequireRole(auth.RoleSurgeon, auth.RoleNurse, auth.RoleCoordinator))
	writeGroup.POST("/patients", h.CreatePatient)
	writeGroup.PUT("/patients/:id", h.UpdatePatient)
	writeGroup.PATCH("/patients/:id/status", h.UpdateStatus)
	writeGroup.POST("/patients/schedule", h.BulkSchedule)
	writeGroup.DELETE("/patients/:id", h.DeletePatient)
	writeGroup.GET("/export.csv", h.ExportCSV)
}

// httpError maps service errors onto status codes.
func httpError(err error) error {
	var dateErr *InvalidDateError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrDuplicatePatientID):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation), errors.As(err, &dateErr):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// parseOptionalDate parses a date field that may be absent.
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := ParseAddedDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type patientRequest struct {
	Name               string           `json:"name"`
	PatientID          string           `json:"patient_id"`
	SurgeryType        string           `json:"surgery_type"`
	Urgency            string           `json:"urgency"`
	Status             string           `json:"status"`
	Surgeon            *string          `json:"surgeon"`
	AddedDate          *string          `json:"added_date"`
	ScheduledDate      *string          `json:"scheduled_date"`
	CaseInformation    *string          `json:"case_information"`
	AnesthesiaApproval bool             `json:"anesthesia_approval"`
	IOLDiopter         *decimal.Decimal `json:"iol_diopter"`
	EquipmentNeeded    *string          `json:"equipment_needed"`
	Notes              *string          `json:"notes"`
	PhotoURL           *string          `json:"photo_url"`
}

func (r *patientRequest) toPatient() (*Patient, error) {
	p := &Patient{
		Name:               r.Name,
		PatientID:          r.PatientID,
		SurgeryType:        r.SurgeryType,
		Urgency:            r.Urgency,
		Status:             r.Status,
		Surgeon:            r.Surgeon,
		CaseInformation:    r.CaseInformation,
		AnesthesiaApproval: r.AnesthesiaApproval,
		IOLDiopter:         r.IOLDiopter,
		EquipmentNeeded:    r.EquipmentNeeded,
		Notes:              r.Notes,
		PhotoURL:           r.PhotoURL,
	}
	added, err := parseOptionalDate(r.AddedDate)
	if err != nil {
		return nil, err
	}
	if added != nil {
		p.AddedDate = *added
	}
	if p.ScheduledDate, err = parseOptionalDate(r.ScheduledDate); err != nil {
		return nil, err
	}
	return p, nil
}

type updateRequest struct {
	Name               *string          `json:"name"`
	SurgeryType        *string          `json:"surgery_type"`
	Urgency            *string          `json:"urgency"`
	Status             *string          `json:"status"`
	Surgeon            *string          `json:"surgeon"`
	ClearSurgeon       bool             `json:"clear_surgeon"`
	ScheduledDate      *string          `json:"scheduled_date"`
	ClearScheduledDate bool             `json:"clear_scheduled_date"`
	CaseInformation    *string          `json:"case_information"`
	AnesthesiaApproval *bool            `json:"anesthesia_approval"`
	IOLDiopter         *decimal.Decimal `json:"iol_diopter"`
	EquipmentNeeded    *string          `json:"equipment_needed"`
	Notes              *string          `json:"notes"`
	PhotoURL           *string          `json:"photo_url"`
}

func (r *updateRequest) toUpdate() (*PatientUpdate, error) {
	u := &PatientUpdate{
		Name:               r.Name,
		SurgeryType:        r.SurgeryType,
		Urgency:            r.Urgency,
		Status:             r.Status,
		Surgeon:            r.Surgeon,
		ClearSurgeon:       r.ClearSurgeon,
		ClearScheduledDate: r.ClearScheduledDate,
		CaseInformation:    r.CaseInformation,
		AnesthesiaApproval: r.AnesthesiaApproval,
		IOLDiopter:         r.IOLDiopter,
		EquipmentNeeded:    r.EquipmentNeeded,
		Notes:              r.Notes,
		PhotoURL:           r.PhotoURL,
	}
	var err error
	if u.ScheduledDate, err = parseOptionalDate(r.ScheduledDate); err != nil {
		return nil, err
	}
	return u, nil
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := req.toPatient()
	if err != nil {
		return httpError(err)
	}
	ctx := c.Request().Context()
	if err := h.svc.Create(ctx, p, auditlog.ActorFromContext(ctx)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, WorklistItem{Patient: p, WaitDays: WaitDays(p.AddedDate, h.svc.Now())})
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, WorklistItem{Patient: p, WaitDays: WaitDays(p.AddedDate, h.svc.Now())})
}

// ListPatients returns one page of the worklist. Filters come from the query
// string; page and page_size select the page.
func (h *Handler) ListPatients(c echo.Context) error {
	criteria := CriteriaFromQuery(c.QueryParams())
	page, size := pagination.PageFromContext(c, h.svc.PageSize())
	result, err := h.svc.Worklist(c.Request().Context(), criteria, page, size)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := req.toUpdate()
	if err != nil {
		return httpError(err)
	}
	ctx := c.Request().Context()
	p, err := h.svc.Update(ctx, id, u, auditlog.ActorFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	p, err := h.svc.UpdateStatus(ctx, id, req.Status, auditlog.ActorFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type bulkScheduleRequest struct {
	IDs           []uuid.UUID `json:"ids"`
	ScheduledDate string      `json:"scheduled_date"`
}

func (h *Handler) BulkSchedule(c echo.Context) error {
	var req bulkScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := ParseAddedDate(req.ScheduledDate)
	if err != nil {
		return httpError(err)
	}
	ctx := c.Request().Context()
	patients, err := h.svc.BulkSchedule(ctx, req.IDs, date, auditlog.ActorFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  patients,
		"total": len(patients),
	})
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.Delete(ctx, id, auditlog.ActorFromContext(ctx)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetSchedule(c echo.Context) error {
	days, err := h.svc.Schedule(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"days": days})
}

func (h *Handler) GetStats(c echo.Context) error {
	overview, err := h.svc.Overview(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, overview)
}

func (h *Handler) GetCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Catalog())
}

// ExportCSV downloads the filtered worklist in priority order.
func (h *Handler) ExportCSV(c echo.Context) error {
	criteria := CriteriaFromQuery(c.QueryParams())
	ctx := c.Request().Context()
	body, filename, err := h.svc.Export(ctx, criteria, auditlog.ActorFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}
