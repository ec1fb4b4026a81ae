package appointment

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/audit"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	domain "github.com/BruksfildServices01/barber-booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

type TransitionInput struct {
	BarbershopID  uint
	AppointmentID uint
	Actor         access.Actor
	To            domain.Status
}

// TransitionAppointment leva um agendamento para confirmed, completed ou
// cancelled. A troca é condicional no banco: duas chamadas concorrentes
// sobre o mesmo agendamento nunca aplicam as duas.
type TransitionAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	now   func() time.Time
}

func NewTransitionAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	now func() time.Time,
) *TransitionAppointment {
	if now == nil {
		now = time.Now
	}
	return &TransitionAppointment{repo: repo, audit: audit, now: now}
}

var auditAction = map[domain.Status]string{
	domain.StatusConfirmed: audit.ActionAppointmentConfirmed,
	domain.StatusCompleted: audit.ActionAppointmentCompleted,
	domain.StatusCancelled: audit.ActionAppointmentCancelled,
}

func (uc *TransitionAppointment) Execute(
	ctx context.Context,
	in TransitionInput,
) (*models.Appointment, error) {

	ap, err := uc.repo.GetAppointment(ctx, in.BarbershopID, in.AppointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusinessMsg(httperr.CodeNotFound, "Agendamento não encontrado.")
		}
		return nil, err
	}

	if err := domain.Authorize(in.Actor, ap, ap.Barber, &ap.Client, in.To); err != nil {
		return nil, err
	}

	from := domain.Status(ap.Status)
	if err := domain.CanTransition(from, in.To); err != nil {
		return nil, err
	}

	now := uc.now()
	if err := uc.repo.TransitionStatus(ctx, ap.ID, from, in.To, now); err != nil {
		return nil, err
	}

	ap.Status = string(in.To)
	domain.Stamp(ap, in.To, now)

	var userID *uint
	if in.Actor.UserID != 0 {
		uid := in.Actor.UserID
		userID = &uid
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: in.BarbershopID,
		UserID:       userID,
		Action:       auditAction[in.To],
		Entity:       "appointment",
		EntityID:     &ap.ID,
		Metadata:     map[string]string{"from": string(from), "to": string(in.To)},
	})

	return ap, nil
}
