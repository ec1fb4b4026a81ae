package scheduling

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking-engine/internal/dto"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
)

// scope decide que agenda o ator enxerga: admin vê tudo (ou um barbeiro
// escolhido), barbeiro vê só a própria, cliente não lista a barbearia.
func (s *Service) scope(ctx context.Context, barbershopID uint, actor access.Actor, barberID *uint) (*uint, error) {
	switch {
	case actor.IsAdmin():
		return barberID, nil

	case actor.IsBarber():
		barbers, err := s.repo.ListActiveBarbers(ctx, barbershopID)
		if err != nil {
			return nil, err
		}
		for _, b := range barbers {
			if b.UserID != nil && *b.UserID == actor.UserID {
				id := b.ID
				return &id, nil
			}
		}
	}
	return nil, httperr.ErrBusiness(httperr.CodeUnauthorized)
}

func (s *Service) ListAppointmentsByDate(
	ctx context.Context,
	barbershopID uint,
	actor access.Actor,
	barberID *uint,
	date time.Time,
) ([]dto.AppointmentListDTO, error) {

	filter, err := s.scope(ctx, barbershopID, actor, barberID)
	if err != nil {
		return nil, err
	}
	out, err := s.byDate.Execute(ctx, barbershopID, filter, date)
	return out, translate(err)
}

func (s *Service) ListAppointmentsByMonth(
	ctx context.Context,
	barbershopID uint,
	actor access.Actor,
	barberID *uint,
	year int,
	month int,
) ([]dto.AppointmentListDTO, error) {

	filter, err := s.scope(ctx, barbershopID, actor, barberID)
	if err != nil {
		return nil, err
	}
	out, err := s.byMonth.Execute(ctx, barbershopID, filter, year, month)
	return out, translate(err)
}
