/*
handlers.go - HTTP handlers for the attendance API

PURPOSE:
  Translates HTTP requests into service calls and domain results back into
  JSON. Handlers own three concerns only: decoding/validating input,
  picking the status code for an error, and encoding output. All attendance
  semantics live in the attendance package.

ERROR MAPPING:
  400 - malformed input (bad JSON, validator failures, bad dates/kinds)
  403 - actor lacks the required capability
  404 - record does not exist
  409 - record is finalized or an already/not-finalized transition
  422 - batch violated a domain invariant (unknown person, bad status,
        bad substitute)
  500 - everything else

ACTOR IDENTITY:
  The acting user arrives in the X-Actor-ID header. Authentication proper
  sits in front of this service; the header is trusted here.

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Routing
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/warp/attendance-engine/attendance"
)

const actorHeader = "X-Actor-ID"

// Seeder loads demo data. Satisfied by the sqlite store.
type Seeder interface {
	Seed(ctx context.Context) error
}

// Handler holds the dependencies shared by all endpoints.
type Handler struct {
	Service  *attendance.Service
	Seeder   Seeder
	Validate *validator.Validate
	Log      zerolog.Logger
}

// NewHandler builds a handler with a fresh validator instance.
func NewHandler(svc *attendance.Service, seeder Seeder, log zerolog.Logger) *Handler {
	return &Handler{
		Service:  svc,
		Seeder:   seeder,
		Validate: validator.New(),
		Log:      log,
	}
}

// =============================================================================
// ATTENDANCE ENDPOINTS
// =============================================================================

// GetAttendance handles GET /api/attendance/{kind}?tenant=&campus=&class_id=&date=
func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	scope, date, ok := h.scopeAndDateFromQuery(w, r)
	if !ok {
		return
	}

	rec, stats, err := h.Service.Get(r.Context(), scope, date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	cfg, err := attendance.ConfigFor(scope.Kind)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, AttendanceResponse{
		Record:     toRecordDTO(rec),
		Statistics: toStatisticsDTO(stats, cfg),
	})
}

// MarkAttendance handles POST /api/attendance/{kind}
func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromPath(w, r)
	if !ok {
		return
	}
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req MarkRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, err := attendance.ParseDay(req.Date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	scope := attendance.ScopeKey{
		Tenant:  req.Tenant,
		Campus:  req.Campus,
		Kind:    kind,
		ClassID: req.ClassID,
	}

	rec, stats, err := h.Service.Mark(r.Context(), attendance.MarkInput{
		Scope:   scope,
		Date:    date,
		Actor:   actor,
		Updates: toEntryUpdates(req.Entries),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	cfg, err := attendance.ConfigFor(kind)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, AttendanceResponse{
		Record:     toRecordDTO(rec),
		Statistics: toStatisticsDTO(stats, cfg),
	})
}

// UpdateAttendance handles PUT /api/attendance/{kind}/{recordID}
func (h *Handler) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromPath(w, r)
	if !ok {
		return
	}
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	recordID := attendance.RecordID(chi.URLParam(r, "recordID"))

	var req UpdateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	rec, stats, err := h.Service.Update(r.Context(), recordID, actor, toEntryUpdates(req.Entries))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	cfg, err := attendance.ConfigFor(kind)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, AttendanceResponse{
		Record:     toRecordDTO(rec),
		Statistics: toStatisticsDTO(stats, cfg),
	})
}

// FinalizeRecord handles POST /api/attendance/{kind}/{recordID}/finalize
func (h *Handler) FinalizeRecord(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Service.Finalize)
}

// ReopenRecord handles POST /api/attendance/{kind}/{recordID}/reopen
func (h *Handler) ReopenRecord(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Service.Reopen)
}

func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request, transition func(context.Context, attendance.RecordID, string) (*attendance.Record, error)) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	recordID := attendance.RecordID(chi.URLParam(r, "recordID"))

	rec, err := transition(r.Context(), recordID, actor)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]*RecordDTO{"record": toRecordDTO(rec)})
}

// GetRoster handles GET /api/attendance/{kind}/roster?tenant=&campus=&class_id=&date=
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	scope, date, ok := h.scopeAndDateFromQuery(w, r)
	if !ok {
		return
	}

	roster, err := h.Service.Roster(r.Context(), scope, date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	persons := make([]string, 0, len(roster.Persons))
	for _, p := range roster.Persons {
		persons = append(persons, string(p))
	}

	h.writeJSON(w, http.StatusOK, RosterResponse{
		Tenant:  scope.Tenant,
		Campus:  scope.Campus,
		Kind:    string(scope.Kind),
		ClassID: scope.ClassID,
		Date:    date.String(),
		Persons: persons,
	})
}

// GetReport handles GET /api/attendance/{kind}/report?person_id=&from=&to=
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromPath(w, r)
	if !ok {
		return
	}

	person := attendance.PersonID(r.URL.Query().Get("person_id"))

	from, err := attendance.ParseDay(r.URL.Query().Get("from"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	to, err := attendance.ParseDay(r.URL.Query().Get("to"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	report, err := h.Service.Report(r.Context(), kind, person, from, to)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	cfg, err := attendance.ConfigFor(kind)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toReportResponse(report, cfg))
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// SeedDemo handles POST /api/admin/seed
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	if h.Seeder == nil {
		h.writeError(w, http.StatusNotFound, "seeding is not available", "")
		return
	}
	if err := h.Seeder.Seed(r.Context()); err != nil {
		h.Log.Error().Err(err).Msg("seed failed")
		h.writeError(w, http.StatusInternalServerError, "seed failed", "")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "seeded"})
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (h *Handler) kindFromPath(w http.ResponseWriter, r *http.Request) (attendance.Kind, bool) {
	kind, err := attendance.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeDomainError(w, err)
		return "", false
	}
	return kind, true
}

func (h *Handler) scopeAndDateFromQuery(w http.ResponseWriter, r *http.Request) (attendance.ScopeKey, attendance.Day, bool) {
	kind, ok := h.kindFromPath(w, r)
	if !ok {
		return attendance.ScopeKey{}, attendance.Day{}, false
	}

	q := r.URL.Query()
	scope := attendance.ScopeKey{
		Tenant:  q.Get("tenant"),
		Campus:  q.Get("campus"),
		Kind:    kind,
		ClassID: q.Get("class_id"),
	}
	if err := scope.Validate(); err != nil {
		h.writeDomainError(w, err)
		return attendance.ScopeKey{}, attendance.Day{}, false
	}

	date, err := attendance.ParseDay(q.Get("date"))
	if err != nil {
		h.writeDomainError(w, err)
		return attendance.ScopeKey{}, attendance.Day{}, false
	}

	return scope, date, true
}

func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := r.Header.Get(actorHeader)
	if actor == "" {
		h.writeError(w, http.StatusBadRequest, "missing "+actorHeader+" header", "")
		return "", false
	}
	return actor, true
}

// decodeAndValidate decodes the body into dst and runs struct validation.
// Writes the error response itself and returns false on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}

	if err := h.Validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Namespace()] = fe.Tag()
			}
			h.writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:  "request validation failed",
				Fields: fields,
			})
			return false
		}
		h.writeError(w, http.StatusBadRequest, "request validation failed", err.Error())
		return false
	}
	return true
}

// =============================================================================
// RESPONSE PLUMBING
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Log.Error().Err(err).Msg("response encoding failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, detail string) {
	h.writeJSON(w, status, ErrorResponse{Error: message, Detail: detail})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case attendance.IsValidation(err):
		h.writeError(w, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, attendance.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case attendance.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, "not found", err.Error())
	case attendance.IsConflict(err):
		h.writeError(w, http.StatusConflict, "conflict", err.Error())
	case attendance.IsDomainInvariant(err):
		h.writeError(w, http.StatusUnprocessableEntity, "unprocessable", err.Error())
	default:
		h.Log.Error().Err(err).Msg("unhandled error")
		h.writeError(w, http.StatusInternalServerError, "internal error", "")
	}
}
