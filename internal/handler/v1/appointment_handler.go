package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/citamed/citamed/internal/service"
	"github.com/citamed/citamed/pkg/metrics"
)

type AppointmentHandler struct {
	bookings  *service.BookingService
	emergency *service.EmergencyService
	collector *metrics.Collector
}

func NewAppointmentHandler(bookings *service.BookingService, emergency *service.EmergencyService, collector *metrics.Collector) *AppointmentHandler {
	return &AppointmentHandler{bookings: bookings, emergency: emergency, collector: collector}
}

func (h *AppointmentHandler) RegisterRoutes(r *gin.RouterGroup) {
	appts := r.Group("/appointments")
	{
		appts.POST("", h.Create)
		appts.GET("", h.List)
		appts.GET("/:id", h.Get)
		appts.DELETE("/:id", h.Cancel)
		appts.POST("/:id/emergency-escalate", h.EmergencyEscalate)
		appts.GET("/:id/escalation", h.GetEscalation)
	}
	r.GET("/escalations/pending", h.ListPendingEscalations)
}

type createAppointmentRequest struct {
	TriageAnswers []int      `json:"triageAnswers"`
	Specialty     string     `json:"specialty"`
	DoctorID      *uuid.UUID `json:"doctorId"`
	ScheduledAt   *time.Time `json:"scheduledAt"`
	Reason        string     `json:"reason"`
	UrgencyLevel  string     `json:"urgencyLevel"`
}

// triageBookingResponse is the summary returned by the triage path. The
// emergency variant layers escalation metadata on top.
type triageBookingResponse struct {
	ID              uuid.UUID `json:"id"`
	ReferenceNumber string    `json:"referenceNumber"`
	UrgencyLevel    string    `json:"urgencyLevel"`
	DoctorName      string    `json:"doctorName,omitempty"`
	DoctorSpecialty string    `json:"doctorSpecialty,omitempty"`
	AppointmentTime time.Time `json:"appointmentTime"`
	Status          string    `json:"status"`
	TriageAnswers   []int     `json:"triageAnswers"`
	TriageScore     int       `json:"triageScore"`

	EmergencyEscalation bool       `json:"emergencyEscalation,omitempty"`
	EscalationID        *uuid.UUID `json:"escalationId,omitempty"`
	EscalationType      string     `json:"escalationType,omitempty"`
	DispatchReference   string     `json:"dispatchReference,omitempty"`
	Message             string     `json:"message,omitempty"`
}

func (h *AppointmentHandler) Create(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}

	var req createAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := service.NewBookingRequest(claims.UserID, &service.BookingInput{
		TriageAnswers: req.TriageAnswers,
		Specialty:     req.Specialty,
		DoctorID:      req.DoctorID,
		ScheduledAt:   req.ScheduledAt,
		UrgencyLevel:  req.UrgencyLevel,
		Reason:        req.Reason,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result, err := h.bookings.CreateAppointment(c.Request.Context(), booking, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.AppointmentsBookedTotal.WithLabelValues(string(result.Appointment.UrgencyLevel)).Inc()

	if result.Triage == nil {
		respondCreated(c, result.Appointment)
		return
	}

	h.collector.TriageAssessmentsTotal.WithLabelValues(string(result.Triage.Urgency)).Inc()

	resp := triageBookingResponse{
		ID:              result.Appointment.ID,
		ReferenceNumber: result.Appointment.ReferenceNumber,
		UrgencyLevel:    string(result.Appointment.UrgencyLevel),
		DoctorName:      result.DoctorName,
		DoctorSpecialty: result.DoctorSpecialty,
		AppointmentTime: result.Appointment.ScheduledAt,
		Status:          string(result.Appointment.Status),
		TriageAnswers:   result.TriageAnswers,
		TriageScore:     result.Triage.Score,
	}

	if result.Emergency {
		resp.EmergencyEscalation = true
		resp.Message = "Emergencia detectada. El equipo de guardia ha sido notificado."
		if result.Escalation != nil {
			resp.EscalationID = &result.Escalation.ID
			resp.EscalationType = string(result.Escalation.EscalationType)
			h.collector.EscalationsCreatedTotal.WithLabelValues(string(result.Escalation.EscalationType)).Inc()
		}
		resp.DispatchReference = result.DispatchReference
	}

	respondCreated(c, resp)
}

func (h *AppointmentHandler) List(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}

	appts, err := h.bookings.ListAppointments(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, appts)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	appt, err := h.bookings.GetAppointment(c.Request.Context(), id, claims.UserID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, appt)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.bookings.CancelAppointment(c.Request.Context(), id, claims.UserID, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type escalateRequest struct {
	Notes string `json:"notes"`
}

func (h *AppointmentHandler) EmergencyEscalate(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req escalateRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	result, err := h.emergency.EscalateByPatient(c.Request.Context(), id, claims.UserID, req.Notes, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.EscalationsCreatedTotal.WithLabelValues(string(result.Escalation.EscalationType)).Inc()

	c.JSON(http.StatusAccepted, gin.H{
		"message":           "Escalación de emergencia iniciada",
		"escalationId":      result.Escalation.ID,
		"dispatchReference": result.DispatchReference,
	})
}

func (h *AppointmentHandler) GetEscalation(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	// Ownership is enforced through the appointment, so a foreign id reads
	// as 403 before the escalation lookup can 404.
	if _, err := h.bookings.GetAppointment(c.Request.Context(), id, claims.UserID, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	esc, err := h.emergency.GetByAppointment(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, esc)
}

func (h *AppointmentHandler) ListPendingEscalations(c *gin.Context) {
	if _, ok := currentClaims(c); !ok {
		return
	}

	limit := parseQueryInt(c, "limit", 10)
	escs, err := h.emergency.ListPending(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, escs)
}
