package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citamed/citamed/internal/domain"
	"github.com/citamed/citamed/internal/domain/appointment"
	"github.com/citamed/citamed/internal/domain/doctor"
	"github.com/citamed/citamed/internal/domain/escalation"
	"github.com/citamed/citamed/internal/triage"
)

// SlotFinder is the read-only slot search plus placeholder-doctor
// resolution. Satisfied by SchedulingService.
type SlotFinder interface {
	FindAvailableSlot(ctx context.Context, specialty string, withinHours int) (*SlotProposal, error)
	EnsureDoctor(ctx context.Context, specialty string) (*doctor.Doctor, error)
}

// EscalationPipeline is the best-effort create→notify→dispatch sequence.
// Satisfied by EmergencyService.
type EscalationPipeline interface {
	RunPipeline(ctx context.Context, cmd *escalation.CreateCommand) *PipelineResult
}

// BookingRequest is the resolved request shape: exactly one of Triage or
// Explicit is set, decided once at the boundary by NewBookingRequest.
type BookingRequest struct {
	UserID uuid.UUID
	Reason string

	Triage   *TriageBooking
	Explicit *ExplicitBooking
}

type TriageBooking struct {
	Answers   []int
	Specialty string
}

type ExplicitBooking struct {
	DoctorID    uuid.UUID
	ScheduledAt time.Time
	Urgency     appointment.UrgencyLevel
}

// BookingInput mirrors the raw request body before shape resolution.
type BookingInput struct {
	TriageAnswers []int
	Specialty     string
	DoctorID      *uuid.UUID
	ScheduledAt   *time.Time
	UrgencyLevel  string
	Reason        string
}

// NewBookingRequest resolves the raw input into the tagged union. Triage
// answers plus a specialty select the triage path; a present-but-empty
// answers array still counts (it scores 0 and books LOW). Otherwise an
// explicit doctor and time are required.
func NewBookingRequest(userID uuid.UUID, in *BookingInput) (*BookingRequest, error) {
	req := &BookingRequest{UserID: userID, Reason: in.Reason}

	if in.TriageAnswers != nil && in.Specialty != "" {
		req.Triage = &TriageBooking{Answers: in.TriageAnswers, Specialty: in.Specialty}
		return req, nil
	}

	var missing []string
	if in.DoctorID == nil {
		missing = append(missing, "doctorId: required without triageAnswers/specialty")
	}
	if in.ScheduledAt == nil {
		missing = append(missing, "scheduledAt: required without triageAnswers/specialty")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	urgency := appointment.UrgencyLevel(in.UrgencyLevel)
	if urgency == "" {
		urgency = appointment.UrgencyLow
	}
	if !urgency.IsValid() {
		return nil, &ValidationError{Fields: []string{"urgencyLevel: unknown value"}}
	}

	req.Explicit = &ExplicitBooking{
		DoctorID:    *in.DoctorID,
		ScheduledAt: *in.ScheduledAt,
		Urgency:     urgency,
	}
	return req, nil
}

// BookingResult is what the handler shapes into the three response
// variants (triage, emergency, explicit).
type BookingResult struct {
	Appointment *appointment.Appointment

	// Triage path only.
	Triage          *triage.Result
	TriageAnswers   []int
	DoctorName      string
	DoctorSpecialty string

	// Emergency variant only. Escalation may be nil when every escalation
	// step failed; the appointment is still valid.
	Emergency         bool
	Escalation        *escalation.Escalation
	DispatchReference string
}

// Search windows per urgency label. EMERGENCY never reaches the slot
// search via the detector, but a flag-only EMERGENCY label (detector
// negative) falls through to the default 24h window.
const (
	windowHoursHigh = 24
	windowHoursMid  = 72
	windowHoursLow  = 24 * 14
)

func searchWindowHours(u appointment.UrgencyLevel) int {
	switch u {
	case appointment.UrgencyMid:
		return windowHoursMid
	case appointment.UrgencyLow:
		return windowHoursLow
	default:
		return windowHoursHigh
	}
}

// BookingService composes triage, emergency detection, slot search, the
// appointment store, and the escalation pipeline.
type BookingService struct {
	appointments appointment.Repository
	slots        SlotFinder
	escalations  EscalationPipeline
	auditSvc     *AuditService
	log          *zap.Logger

	now func() time.Time
}

func NewBookingService(
	appointments appointment.Repository,
	slots SlotFinder,
	escalations EscalationPipeline,
	auditSvc *AuditService,
	log *zap.Logger,
) *BookingService {
	return &BookingService{
		appointments: appointments,
		slots:        slots,
		escalations:  escalations,
		auditSvc:     auditSvc,
		log:          log,
		now:          time.Now,
	}
}

func (s *BookingService) CreateAppointment(ctx context.Context, req *BookingRequest, ip string) (*BookingResult, error) {
	var (
		result *BookingResult
		err    error
	)

	if req.Triage != nil {
		result, err = s.createFromTriage(ctx, req)
	} else {
		result, err = s.createExplicit(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       req.UserID,
		Action:       domain.ActionCreate,
		ResourceType: "appointment",
		ResourceID:   result.Appointment.ID.String(),
		IPAddress:    ip,
	})

	return result, nil
}

func (s *BookingService) createFromTriage(ctx context.Context, req *BookingRequest) (*BookingResult, error) {
	assessment := triage.Assess(req.Triage.Answers)
	detection := triage.DetectEmergency(req.Triage.Answers)

	if detection.IsEmergency {
		return s.createEmergency(ctx, req, assessment, detection)
	}

	withinHours := searchWindowHours(assessment.Urgency)
	proposal, err := s.slots.FindAvailableSlot(ctx, req.Triage.Specialty, withinHours)
	if err != nil {
		return nil, fmt.Errorf("searching slot: %w", err)
	}
	if proposal == nil {
		return nil, appointment.ErrNoAvailability
	}

	scheduledAt, err := proposal.ScheduledAt()
	if err != nil {
		return nil, err
	}

	appt, err := s.appointments.Book(ctx, &appointment.BookCommand{
		UserID:       req.UserID,
		DoctorID:     &proposal.DoctorID,
		ScheduledAt:  scheduledAt,
		UrgencyLevel: assessment.Urgency,
		Reason:       req.Reason,
	})
	if err != nil {
		return nil, err
	}

	s.persistAssessment(ctx, appt.ID, req.Triage.Answers, assessment)

	return &BookingResult{
		Appointment:     appt,
		Triage:          &assessment,
		TriageAnswers:   req.Triage.Answers,
		DoctorName:      proposal.DoctorName,
		DoctorSpecialty: req.Triage.Specialty,
	}, nil
}

// createEmergency books the tracking appointment first, so the patient has
// a record even when every later step fails, then runs the escalation
// pipeline as a post-commit, best-effort saga.
func (s *BookingService) createEmergency(ctx context.Context, req *BookingRequest, assessment triage.Result, detection triage.Detection) (*BookingResult, error) {
	var doctorID *uuid.UUID
	var doctorName string

	doc, err := s.slots.EnsureDoctor(ctx, req.Triage.Specialty)
	if err != nil {
		s.log.Error("could not resolve emergency doctor, booking unassigned",
			zap.String("specialty", req.Triage.Specialty),
			zap.Error(err),
		)
	} else if doc != nil {
		doctorID = &doc.ID
		doctorName = doc.Name
	}

	appt, err := s.appointments.Book(ctx, &appointment.BookCommand{
		UserID:       req.UserID,
		DoctorID:     doctorID,
		ScheduledAt:  s.now().UTC().Truncate(time.Second),
		UrgencyLevel: appointment.UrgencyEmergency,
		Reason:       req.Reason,
	})
	if err != nil {
		return nil, err
	}

	s.persistAssessment(ctx, appt.ID, req.Triage.Answers, assessment)

	pipeline := s.escalations.RunPipeline(ctx, &escalation.CreateCommand{
		AppointmentID: appt.ID,
		UserID:        req.UserID,
		DoctorID:      doctorID,
		Type:          detection.Type,
		Reason:        detection.Reason,
	})

	return &BookingResult{
		Appointment:       appt,
		Triage:            &assessment,
		TriageAnswers:     req.Triage.Answers,
		DoctorName:        doctorName,
		DoctorSpecialty:   req.Triage.Specialty,
		Emergency:         true,
		Escalation:        pipeline.Escalation,
		DispatchReference: pipeline.DispatchReference,
	}, nil
}

func (s *BookingService) createExplicit(ctx context.Context, req *BookingRequest) (*BookingResult, error) {
	appt, err := s.appointments.Book(ctx, &appointment.BookCommand{
		UserID:       req.UserID,
		DoctorID:     &req.Explicit.DoctorID,
		ScheduledAt:  req.Explicit.ScheduledAt,
		UrgencyLevel: req.Explicit.Urgency,
		Reason:       req.Reason,
	})
	if err != nil {
		return nil, err
	}
	return &BookingResult{Appointment: appt}, nil
}

// persistAssessment stores the triage outcome. The appointment is already
// committed; an assessment write failure is logged, not surfaced.
func (s *BookingService) persistAssessment(ctx context.Context, apptID uuid.UUID, answers []int, res triage.Result) {
	ua := &appointment.UrgencyAssessment{
		AppointmentID:     apptID,
		QuestionResponses: answers,
		Score:             res.Score,
		CalculatedUrgency: res.Urgency,
		EmergencyFlag:     res.EmergencyFlag,
	}
	if err := s.appointments.CreateAssessment(ctx, ua); err != nil {
		s.log.Error("failed to persist urgency assessment",
			zap.String("appointment_id", apptID.String()),
			zap.Error(err),
		)
	}
}

func (s *BookingService) GetAppointment(ctx context.Context, id, callerID uuid.UUID, ip string) (*appointment.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.UserID != callerID {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, Action: domain.ActionRead,
		ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
	})

	return appt, nil
}

func (s *BookingService) ListAppointments(ctx context.Context, userID uuid.UUID) ([]*appointment.Appointment, error) {
	return s.appointments.ListByUser(ctx, userID)
}

func (s *BookingService) CancelAppointment(ctx context.Context, id, callerID uuid.UUID, ip string) error {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if appt.UserID != callerID {
		return ErrForbidden
	}
	if !appt.CanTransitionTo(appointment.StatusCancelled) {
		return appointment.ErrNotBooked
	}

	if err := s.appointments.Cancel(ctx, id, callerID); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, Action: domain.ActionUpdate,
		ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
		Changes: `{"status":"CANCELLED"}`,
	})

	return nil
}
