/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Request types carry go-playground/validator tags; handlers run the
  validator before touching the service and surface field-level detail
  on failure.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SubstituteDTO mirrors attendance.Substitute on the wire.
type SubstituteDTO struct {
	Assigned  bool   `json:"assigned"`
	TeacherID string `json:"teacher_id,omitempty"`
}

// EntryUpdateDTO is one per-person status change in a mark/update batch.
type EntryUpdateDTO struct {
	PersonID   string         `json:"person_id" validate:"required"`
	Status     string         `json:"status" validate:"required,oneof=PRESENT ABSENT LATE LEAVE HALF_DAY"`
	InTime     *string        `json:"in_time,omitempty" validate:"omitempty,datetime=15:04"`
	OutTime    *string        `json:"out_time,omitempty" validate:"omitempty,datetime=15:04"`
	Remarks    *string        `json:"remarks,omitempty"`
	Substitute *SubstituteDTO `json:"substitute,omitempty"`
}

// MarkRequest creates or merges the record for (scope, date).
type MarkRequest struct {
	Tenant  string           `json:"tenant" validate:"required"`
	Campus  string           `json:"campus" validate:"required"`
	ClassID string           `json:"class_id,omitempty"`
	Date    string           `json:"date" validate:"required,datetime=2006-01-02"`
	Entries []EntryUpdateDTO `json:"entries" validate:"required,min=1,dive"`
}

// UpdateRequest merges into an explicitly addressed record.
type UpdateRequest struct {
	Entries []EntryUpdateDTO `json:"entries" validate:"required,min=1,dive"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// EntryDTO is one marked person in a record response.
type EntryDTO struct {
	PersonID   string         `json:"person_id"`
	Status     string         `json:"status"`
	InTime     string         `json:"in_time,omitempty"`
	OutTime    string         `json:"out_time,omitempty"`
	Remarks    string         `json:"remarks,omitempty"`
	Substitute *SubstituteDTO `json:"substitute,omitempty"`
}

// RecordDTO is an attendance record in API responses.
type RecordDTO struct {
	ID        string     `json:"id"`
	Tenant    string     `json:"tenant"`
	Campus    string     `json:"campus"`
	Kind      string     `json:"kind"`
	ClassID   string     `json:"class_id,omitempty"`
	Date      string     `json:"date"`
	Finalized bool       `json:"finalized"`
	MarkedBy  string     `json:"marked_by,omitempty"`
	Entries   []EntryDTO `json:"entries"`
}

// StatisticsDTO carries per-status counts. Every status valid for the kind
// appears, zero or not, so the UI never special-cases missing keys.
type StatisticsDTO struct {
	Total     int            `json:"total"`
	Counts    map[string]int `json:"counts"`
	NotMarked int            `json:"not_marked"`
}

// AttendanceResponse pairs a record (null when nothing is marked yet for the
// scope+day) with its computed statistics.
type AttendanceResponse struct {
	Record     *RecordDTO    `json:"record"`
	Statistics StatisticsDTO `json:"statistics"`
}

// RosterResponse lists the markable persons for a scope+day.
type RosterResponse struct {
	Tenant  string   `json:"tenant"`
	Campus  string   `json:"campus"`
	Kind    string   `json:"kind"`
	ClassID string   `json:"class_id,omitempty"`
	Date    string   `json:"date"`
	Persons []string `json:"persons"`
}

// DayEntryDTO is one marked day in a report timeline.
type DayEntryDTO struct {
	Date    string `json:"date"`
	Tenant  string `json:"tenant"`
	Campus  string `json:"campus"`
	ClassID string `json:"class_id,omitempty"`
	EntryDTO
}

// RangeStatisticsDTO summarizes a report range.
type RangeStatisticsDTO struct {
	TotalDays            int            `json:"total_days"`
	MarkedDays           int            `json:"marked_days"`
	NotMarked            int            `json:"not_marked"`
	Counts               map[string]int `json:"counts"`
	AttendancePercentage string         `json:"attendance_percentage"`
}

// ReportResponse is the report aggregator output.
type ReportResponse struct {
	PersonID   string             `json:"person_id"`
	Kind       string             `json:"kind"`
	From       string             `json:"from"`
	To         string             `json:"to"`
	Entries    []DayEntryDTO      `json:"entries"`
	Statistics RangeStatisticsDTO `json:"statistics"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toEntryUpdates(dtos []EntryUpdateDTO) []attendance.EntryUpdate {
	updates := make([]attendance.EntryUpdate, len(dtos))
	for i, d := range dtos {
		u := attendance.EntryUpdate{
			PersonID: attendance.PersonID(d.PersonID),
			Status:   attendance.Status(d.Status),
			InTime:   d.InTime,
			OutTime:  d.OutTime,
			Remarks:  d.Remarks,
		}
		if d.Substitute != nil {
			u.Substitute = &attendance.Substitute{
				Assigned:  d.Substitute.Assigned,
				TeacherID: attendance.PersonID(d.Substitute.TeacherID),
			}
		}
		updates[i] = u
	}
	return updates
}

func toEntryDTO(e attendance.Entry) EntryDTO {
	dto := EntryDTO{
		PersonID: string(e.PersonID),
		Status:   string(e.Status),
		InTime:   e.InTime,
		OutTime:  e.OutTime,
		Remarks:  e.Remarks,
	}
	if e.Substitute != nil {
		dto.Substitute = &SubstituteDTO{
			Assigned:  e.Substitute.Assigned,
			TeacherID: string(e.Substitute.TeacherID),
		}
	}
	return dto
}

func toRecordDTO(rec *attendance.Record) *RecordDTO {
	if rec == nil {
		return nil
	}
	dto := &RecordDTO{
		ID:        string(rec.ID),
		Tenant:    rec.Scope.Tenant,
		Campus:    rec.Scope.Campus,
		Kind:      string(rec.Scope.Kind),
		ClassID:   rec.Scope.ClassID,
		Date:      rec.Date.String(),
		Finalized: rec.Finalized,
		MarkedBy:  rec.MarkedBy,
		Entries:   []EntryDTO{},
	}
	for _, e := range rec.SortedEntries() {
		dto.Entries = append(dto.Entries, toEntryDTO(e))
	}
	return dto
}

func toStatisticsDTO(stats attendance.Statistics, cfg attendance.KindConfig) StatisticsDTO {
	counts := make(map[string]int, len(cfg.Statuses))
	for _, status := range cfg.Statuses {
		counts[string(status)] = stats.Count(status)
	}
	return StatisticsDTO{Total: stats.Total, Counts: counts, NotMarked: stats.NotMarked}
}

func toReportResponse(report *attendance.Report, cfg attendance.KindConfig) ReportResponse {
	counts := make(map[string]int, len(cfg.Statuses))
	for _, status := range cfg.Statuses {
		counts[string(status)] = report.Statistics.Counts[status]
	}

	resp := ReportResponse{
		PersonID: string(report.PersonID),
		Kind:     string(report.Kind),
		From:     report.From.String(),
		To:       report.To.String(),
		Entries:  []DayEntryDTO{},
		Statistics: RangeStatisticsDTO{
			TotalDays:            report.Statistics.TotalDays,
			MarkedDays:           report.Statistics.MarkedDays,
			NotMarked:            report.Statistics.NotMarked,
			Counts:               counts,
			AttendancePercentage: report.Statistics.AttendancePercentage,
		},
	}
	for _, de := range report.Entries {
		resp.Entries = append(resp.Entries, DayEntryDTO{
			Date:     de.Date.String(),
			Tenant:   de.Scope.Tenant,
			Campus:   de.Scope.Campus,
			ClassID:  de.Scope.ClassID,
			EntryDTO: toEntryDTO(de.Entry),
		})
	}
	return resp
}
