package auditlog

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/waitlist/internal/platform/auth"
	"github.com/clinic/waitlist/internal/platform/csvexport"
	"github.com/clinic/waitlist/pkg/pagination"
)

type Handler struct {
	rec      *Recorder
	sessions *auth.Sessions
}

// NewHandler serves the audit log. When sessions is set, a reported LOGOUT
// also ends the caller's session.
func NewHandler(rec *Recorder, sessions *auth.Sessions) *Handler {
	return &Handler{rec: rec, sessions: sessions}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleCoordinator))
	read.GET("/audit-logs", h.List)
	read.GET("/audit-logs/export.csv", h.ExportCSV)

	// Any signed-in user may report their own login, logout or print.
	api.POST("/audit-logs/events", h.CreateEvent)
}

func queryFromRequest(c echo.Context) (Query, error) {
	var q Query
	if a := c.QueryParam("action"); a != "" {
		q.Action = Action(a)
		if !q.Action.Valid() {
			return q, fmt.Errorf("invalid action: %s", a)
		}
	}
	if id := c.QueryParam("entity_id"); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return q, fmt.Errorf("invalid entity_id")
		}
		q.EntityID = &parsed
	}
	if l := c.QueryParam("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			return q, fmt.Errorf("invalid limit")
		}
		q.Limit = n
	}
	return q.Normalize(), nil
}

// List pages through the newest DefaultListLimit matching entries with
// ?limit= and ?offset=.
func (h *Handler) List(c echo.Context) error {
	q, err := queryFromRequest(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	q.Limit = DefaultListLimit
	items, err := h.rec.List(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audit log unavailable")
	}

	pg := pagination.FromContext(c)
	start := min(pg.Offset, len(items))
	end := min(start+pg.Limit, len(items))
	return c.JSON(http.StatusOK, pagination.NewResponse(items[start:end], len(items), pg.Limit, pg.Offset))
}

var auditCSVHeader = []string{"Timestamp", "Action", "Patient", "Entity ID", "Actor", "Role", "Changed Fields", "Note"}

func (h *Handler) ExportCSV(c echo.Context) error {
	q, err := queryFromRequest(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, err := h.rec.List(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audit log unavailable")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="audit_log.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(EntriesToCSV(items)))
}

// EntriesToCSV renders entries one per row with the changed field names
// joined by ";".
func EntriesToCSV(entries []*Entry) string {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		var entity any
		if e.EntityID != nil {
			entity = e.EntityID.String()
		}
		fields := ""
		for i, f := range e.Changes.Fields() {
			if i > 0 {
				fields += ";"
			}
			fields += f
		}
		rows = append(rows, []any{
			e.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			string(e.Action),
			e.PatientName,
			entity,
			e.Actor.Name,
			e.Actor.Role,
			fields,
			e.Note,
		})
	}
	return csvexport.Join(auditCSVHeader, rows)
}

type eventRequest struct {
	Action   Action     `json:"action"`
	EntityID *uuid.UUID `json:"entity_id,omitempty"`
	Note     string     `json:"note,omitempty"`
}

func (h *Handler) CreateEvent(c echo.Context) error {
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !clientActions[req.Action] {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("action %q cannot be reported by clients", req.Action))
	}
	e := &Entry{
		Action:   req.Action,
		EntityID: req.EntityID,
		Actor:    ActorFromContext(c.Request().Context()),
		Note:     req.Note,
	}
	if err := h.rec.Record(c.Request().Context(), e); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audit log unavailable")
	}
	if req.Action == ActionLogout && h.sessions != nil {
		if id, ok := auth.IdentityFromContext(c.Request().Context()); ok && id.SessionID != "" {
			h.sessions.End(id.SessionID, id.ExpiresAt)
		}
	}
	return c.JSON(http.StatusCreated, e)
}
