package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/metrics"
)

type handlers struct {
	svc     *clinic.Service
	log     *zap.Logger
	metrics *metrics.Collector
}

func (h *handlers) registerDoctor(w http.ResponseWriter, r *http.Request) {
	var req RegisterDoctorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	doc, err := h.svc.RegisterDoctor(r.Context(), req.Name, req.Specialty, req.DepartmentID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.metrics.DoctorsRegistered.Inc()

	writeJSON(w, http.StatusCreated, doc)
}

func (h *handlers) registerPatient(w http.ResponseWriter, r *http.Request) {
	var req RegisterPatientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.svc.RegisterPatient(r.Context(), req.Name, req.Gender, req.Age, req.Address)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.metrics.PatientsRegistered.Inc()

	writeJSON(w, http.StatusCreated, p)
}

func (h *handlers) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	appt, err := h.svc.CreateAppointment(r.Context(), req.Date, req.Start, req.End, req.DoctorID)
	if err != nil {
		h.recordOutcome(err, "")
		h.writeServiceError(w, r, err)
		return
	}
	h.recordOutcome(nil, metrics.OutcomeCreated)

	writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
}

func (h *handlers) getAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.svc.GetAppointment(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := toAppointmentResponse(detail.Appointment)
	resp.EffectiveStatus = string(detail.EffectiveStatus)
	resp.Doctor = detail.Doctor

	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) bookAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req BookAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.BookAppointment(r.Context(), clinic.BookingRequest{
		AppointmentID: id,
		DoctorID:      req.DoctorID,
		PatientID:     req.PatientID,
	})
	if err != nil {
		h.recordOutcome(err, "")
		h.writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Waitlisted {
		status = http.StatusCreated
		h.recordOutcome(nil, metrics.OutcomeWaitlisted)
	} else {
		h.recordOutcome(nil, metrics.OutcomeBooked)
	}

	writeJSON(w, status, BookingResponse{
		Appointment: toAppointmentResponse(res.Appointment),
		DoctorID:    res.DoctorID,
		PatientID:   res.PatientID,
		Waitlisted:  res.Waitlisted,
	})
}

func (h *handlers) doctorAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	from, ok := parseDateQuery(w, r, "from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(w, r, "to")
	if !ok {
		return
	}

	appts, err := h.svc.AppointmentsForDoctor(r.Context(), id, from, to)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentList(appts))
}

func (h *handlers) availableAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	date, ok := parseDateQuery(w, r, "date")
	if !ok {
		return
	}

	appts, err := h.svc.AvailableAppointments(r.Context(), id, date)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentList(appts))
}

func (h *handlers) statusBreakdown(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.StatusBreakdownPerDoctor(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusBreakdownResponse{Doctors: rows})
}

func (h *handlers) patientCount(w http.ResponseWriter, r *http.Request) {
	status := clinic.Status(r.URL.Query().Get("status"))

	rows, err := h.svc.PatientCountPerDoctorWithStatus(r.Context(), status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PatientCountResponse{Status: string(status), Doctors: rows})
}

func (h *handlers) recordOutcome(err error, outcome string) {
	switch {
	case err == nil:
	case errors.Is(err, clinic.ErrSlotTaken):
		outcome = metrics.OutcomeSlotTaken
	case errors.Is(err, clinic.ErrBusy):
		outcome = metrics.OutcomeBusy
	default:
		outcome = metrics.OutcomeRejected
	}
	h.metrics.AppointmentsTotal.WithLabelValues(outcome).Inc()
}

func (h *handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, clinic.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, clinic.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, clinic.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, clinic.ErrDepartmentNotFound):
		writeError(w, http.StatusNotFound, "department_not_found", err.Error())

	case errors.Is(err, clinic.ErrDuplicateDoctor):
		writeError(w, http.StatusConflict, "duplicate_doctor", err.Error())
	case errors.Is(err, clinic.ErrDuplicatePatient):
		writeError(w, http.StatusConflict, "duplicate_patient", err.Error())
	case errors.Is(err, clinic.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, clinic.ErrBusy):
		writeError(w, http.StatusConflict, "busy", err.Error())
	case errors.Is(err, clinic.ErrDoctorMismatch):
		writeError(w, http.StatusConflict, "doctor_mismatch", err.Error())
	case errors.Is(err, clinic.ErrAppointmentPast):
		writeError(w, http.StatusConflict, "appointment_past", err.Error())
	case errors.Is(err, clinic.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())

	case errors.Is(err, clinic.ErrInvalidDoctor):
		writeError(w, http.StatusBadRequest, "invalid_doctor", err.Error())
	case errors.Is(err, clinic.ErrInvalidGender):
		writeError(w, http.StatusBadRequest, "invalid_gender", err.Error())
	case errors.Is(err, clinic.ErrInvalidAge):
		writeError(w, http.StatusBadRequest, "invalid_age", err.Error())
	case errors.Is(err, clinic.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, clinic.ErrInvalidStart):
		writeError(w, http.StatusBadRequest, "invalid_start", err.Error())
	case errors.Is(err, clinic.ErrInvalidEnd):
		writeError(w, http.StatusBadRequest, "invalid_end", err.Error())
	case errors.Is(err, clinic.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
	case errors.Is(err, clinic.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())

	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		var se *clinic.StoreError
		if errors.As(err, &se) {
			writeError(w, http.StatusInternalServerError, "store_error", "the clinic store is unavailable, please retry")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

const maxBodyBytes = 1 << 20

// decodeJSON rejects unknown fields so a misspelled id never decodes as zero.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a non-negative integer")
		return 0, false
	}
	return id, true
}

func parseDateQuery(w http.ResponseWriter, r *http.Request, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "invalid_date", fmt.Sprintf("query parameter %q is required", key))
		return time.Time{}, false
	}
	d, err := clinic.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
		return time.Time{}, false
	}
	return d, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
