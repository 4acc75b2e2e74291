package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citamed/citamed/internal/domain"
	"github.com/citamed/citamed/internal/domain/appointment"
	"github.com/citamed/citamed/internal/domain/escalation"
)

// EmergencyService drives the escalation state machine:
// PENDING → NOTIFIED → DISPATCHED → RESOLVED. The on-call notification and
// 911 dispatch integrations are stubs that log and return a reference.
type EmergencyService struct {
	repo         escalation.Repository
	appointments appointment.Repository
	auditSvc     *AuditService
	log          *zap.Logger
}

func NewEmergencyService(
	repo escalation.Repository,
	appointments appointment.Repository,
	auditSvc *AuditService,
	log *zap.Logger,
) *EmergencyService {
	return &EmergencyService{repo: repo, appointments: appointments, auditSvc: auditSvc, log: log}
}

func (s *EmergencyService) Create(ctx context.Context, cmd *escalation.CreateCommand) (*escalation.Escalation, error) {
	if !cmd.Type.IsValid() {
		return nil, &ValidationError{Fields: []string{"escalationType: unknown value"}}
	}
	if cmd.Reason == "" {
		return nil, &ValidationError{Fields: []string{"reason: required"}}
	}
	return s.repo.Create(ctx, cmd)
}

// NotifyOnCall transitions PENDING→NOTIFIED and stamps the notification
// time. The surrounding orchestration is expected to call this within one
// minute of creation; the call itself is synchronous.
func (s *EmergencyService) NotifyOnCall(ctx context.Context, id uuid.UUID) (*escalation.Escalation, error) {
	esc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !esc.CanTransitionTo(escalation.StatusNotified) {
		return nil, escalation.ErrInvalidTransition
	}

	now := time.Now().UTC()
	updated, err := s.repo.MarkNotified(ctx, id, now)
	if err != nil {
		return nil, err
	}

	// TODO(dispatch-integration): replace with the real on-call channel
	// (SMS/pager) once the provider contract is signed.
	s.log.Info("on-call physician notified",
		zap.String("escalation_id", id.String()),
		zap.Time("notified_at", now),
	)

	return updated, nil
}

// Initiate911Dispatch transitions to DISPATCHED and issues an externally
// meaningless dispatch reference. NOTIFIED may have been skipped when the
// notify step failed.
func (s *EmergencyService) Initiate911Dispatch(ctx context.Context, id uuid.UUID, location string) (*escalation.Escalation, error) {
	esc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !esc.CanTransitionTo(escalation.StatusDispatched) {
		return nil, escalation.ErrInvalidTransition
	}

	now := time.Now().UTC()
	reference := newDispatchReference(now)

	updated, err := s.repo.MarkDispatched(ctx, id, now, reference)
	if err != nil {
		return nil, err
	}

	if location == "" {
		location = "Unknown"
	}
	s.log.Info("911 dispatch initiated",
		zap.String("escalation_id", id.String()),
		zap.String("dispatch_reference", reference),
		zap.String("location", location),
	)

	return updated, nil
}

func (s *EmergencyService) Resolve(ctx context.Context, id uuid.UUID, notes string) (*escalation.Escalation, error) {
	esc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !esc.CanTransitionTo(escalation.StatusResolved) {
		return nil, escalation.ErrInvalidTransition
	}
	return s.repo.Resolve(ctx, id, notes)
}

func (s *EmergencyService) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*escalation.Escalation, error) {
	return s.repo.GetByAppointment(ctx, appointmentID)
}

func (s *EmergencyService) ListPending(ctx context.Context, limit int) ([]*escalation.Escalation, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.repo.ListPending(ctx, limit)
}

// PipelineResult reports how far the create→notify→dispatch sequence got.
// Escalation is nil only when creation itself failed.
type PipelineResult struct {
	Escalation        *escalation.Escalation
	DispatchReference string
}

// RunPipeline executes the escalation sequence best-effort: each step's
// failure is logged and the sequence degrades, but never returns an error
// to the caller. The appointment this hangs off is already committed and
// must not be affected.
func (s *EmergencyService) RunPipeline(ctx context.Context, cmd *escalation.CreateCommand) *PipelineResult {
	res := &PipelineResult{}

	esc, err := s.Create(ctx, cmd)
	if err != nil {
		s.log.Error("emergency escalation creation failed; appointment unaffected",
			zap.String("appointment_id", cmd.AppointmentID.String()),
			zap.Error(err),
		)
		return res
	}
	res.Escalation = esc
	s.notifyThenDispatch(ctx, res)
	return res
}

func (s *EmergencyService) notifyThenDispatch(ctx context.Context, res *PipelineResult) {
	id := res.Escalation.ID

	if notified, err := s.NotifyOnCall(ctx, id); err != nil {
		s.log.Error("on-call notification failed", zap.String("escalation_id", id.String()), zap.Error(err))
	} else {
		res.Escalation = notified
	}

	if dispatched, err := s.Initiate911Dispatch(ctx, id, ""); err != nil {
		s.log.Error("911 dispatch failed", zap.String("escalation_id", id.String()), zap.Error(err))
	} else {
		res.Escalation = dispatched
		res.DispatchReference = dispatched.DispatchReference
	}
}

// EscalateByPatient handles the manual escalation endpoint: ownership
// check, PATIENT_REQUEST escalation, then the notify/dispatch steps
// best-effort.
func (s *EmergencyService) EscalateByPatient(ctx context.Context, appointmentID, userID uuid.UUID, notes, ip string) (*PipelineResult, error) {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.UserID != userID {
		return nil, ErrForbidden
	}

	cmd := &escalation.CreateCommand{
		AppointmentID: appointmentID,
		UserID:        userID,
		DoctorID:      appt.DoctorID,
		Type:          escalation.TypePatientRequest,
		Reason:        "Escalación solicitada por el paciente",
		Notes:         notes,
	}

	esc, err := s.Create(ctx, cmd)
	if err != nil {
		return nil, err
	}

	res := &PipelineResult{Escalation: esc}
	s.notifyThenDispatch(ctx, res)

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       userID,
		Action:       domain.ActionEscalate,
		ResourceType: "appointment",
		ResourceID:   appointmentID.String(),
		IPAddress:    ip,
	})

	return res, nil
}

// newDispatchReference builds the externally meaningless dispatch id,
// e.g. 911-1735475623000-9f2c41ab.
func newDispatchReference(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("911-%d-%s", now.UnixMilli(), suffix)
}
