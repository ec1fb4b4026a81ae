package appointment

import (
	"time"

	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

// ===============================
// Domain Actions
// ===============================

// Apply muda o status em memória e carimba o horário da transição.
func Apply(ap *models.Appointment, to Status, now time.Time) error {
	if err := CanTransition(Status(ap.Status), to); err != nil {
		return err
	}

	ap.Status = string(to)
	Stamp(ap, to, now)
	return nil
}

func Stamp(ap *models.Appointment, to Status, now time.Time) {
	switch to {
	case StatusConfirmed:
		ap.ConfirmedAt = &now
	case StatusCompleted:
		ap.CompletedAt = &now
	case StatusCancelled:
		ap.CancelledAt = &now
	}
}

// ===============================
// Authorization
// ===============================

// Authorize decide se o ator pode levar o agendamento para o status to.
// Cliente só cancela o que é dele; barbeiro mexe na própria agenda;
// admin mexe em tudo da barbearia.
func Authorize(
	actor access.Actor,
	ap *models.Appointment,
	barber *models.Barber,
	client *models.Client,
	to Status,
) error {

	if actor.BarbershopID != ap.BarbershopID {
		return httperr.ErrBusiness(httperr.CodeUnauthorized)
	}

	switch {
	case actor.IsAdmin():
		return nil

	case actor.IsBarber():
		if barber != nil && barber.UserID != nil && *barber.UserID == actor.UserID &&
			ap.BarberID != nil && *ap.BarberID == barber.ID {
			return nil
		}

	case actor.IsCustomer():
		if to == StatusCancelled && client != nil && client.UserID != nil && *client.UserID == actor.UserID {
			return nil
		}
	}

	return httperr.ErrBusiness(httperr.CodeUnauthorized)
}
