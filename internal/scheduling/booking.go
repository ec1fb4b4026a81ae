package scheduling

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	apptdomain "github.com/BruksfildServices01/barber-booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	"github.com/BruksfildServices01/barber-booking-engine/internal/timezone"
	ucappointment "github.com/BruksfildServices01/barber-booking-engine/internal/usecase/appointment"
	ucwaitlist "github.com/BruksfildServices01/barber-booking-engine/internal/usecase/waitlist"
)

// ======================================================
// AVAILABILITY
// ======================================================

func (s *Service) GetAvailability(
	ctx context.Context,
	in ucappointment.AvailabilityInput,
) (out *ucappointment.Availability, err error) {

	ctx, span := s.span(ctx, "GetAvailability",
		attribute.Int64("barbershop_id", int64(in.BarbershopID)),
		attribute.String("date", in.Date),
	)
	defer func() { endSpan(span, err) }()

	out, err = s.availability.Execute(ctx, in)
	return out, translate(err)
}

// ======================================================
// BOOKING
// ======================================================

// PlaceBooking repete só o timeout de lock, com limite. Conflito e agenda
// cheia voltam direto para o chamador escolher outro horário.
func (s *Service) PlaceBooking(
	ctx context.Context,
	in ucappointment.PlaceBookingInput,
) (ap *models.Appointment, err error) {

	ctx, span := s.span(ctx, "PlaceBooking",
		attribute.Int64("barbershop_id", int64(in.BarbershopID)),
		attribute.String("date", in.Date),
		attribute.String("time", in.Time),
		attribute.Bool("any_barber", in.BarberID == nil),
	)
	defer func() { endSpan(span, err) }()

	for attempt := 0; ; attempt++ {
		ap, err = s.booking.Execute(ctx, in)
		err = translate(err)

		if !httperr.IsBusiness(err, httperr.CodeTimeout) || attempt >= s.retries {
			break
		}

		s.log.Info("booking timed out, retrying",
			zap.Uint("barbershop_id", in.BarbershopID),
			zap.String("date", in.Date),
			zap.String("time", in.Time),
			zap.Int("attempt", attempt+1),
		)

		select {
		case <-ctx.Done():
			return nil, httperr.ErrBusiness(httperr.CodeTimeout)
		case <-time.After(s.backoff * time.Duration(attempt+1)):
		}
	}

	if ap != nil {
		span.SetAttributes(attribute.Int64("appointment_id", int64(ap.ID)))
	}
	return ap, err
}

// ======================================================
// STATUS
// ======================================================

type CancelResult struct {
	Appointment *models.Appointment `json:"appointment"`
	Waitlist    ucwaitlist.Report   `json:"waitlist"`
}

// CancelBooking cancela e, com o cancelamento gravado, avisa a fila do
// horário liberado. Falhas de aviso não desfazem o cancelamento.
func (s *Service) CancelBooking(
	ctx context.Context,
	barbershopID uint,
	appointmentID uint,
	actor access.Actor,
) (res *CancelResult, err error) {

	ctx, span := s.span(ctx, "CancelBooking",
		attribute.Int64("barbershop_id", int64(barbershopID)),
		attribute.Int64("appointment_id", int64(appointmentID)),
	)
	defer func() { endSpan(span, err) }()

	ap, err := s.transition.Execute(ctx, ucappointment.TransitionInput{
		BarbershopID:  barbershopID,
		AppointmentID: appointmentID,
		Actor:         actor,
		To:            apptdomain.StatusCancelled,
	})
	if err != nil {
		return nil, translate(err)
	}

	res = &CancelResult{Appointment: ap}

	freed, ok := s.freedBy(ctx, ap)
	if !ok {
		return res, nil
	}

	res.Waitlist = s.matcher.Match(ctx, freed)
	span.SetAttributes(
		attribute.Int("waitlist.notified", res.Waitlist.Notified),
		attribute.Int("waitlist.failed", res.Waitlist.Failed),
	)
	return res, nil
}

// freedBy calcula os slots liberados. Horários que já passaram não
// interessam à fila.
func (s *Service) freedBy(ctx context.Context, ap *models.Appointment) (ucwaitlist.Freed, bool) {
	if !ap.StartTime.After(s.now()) {
		return ucwaitlist.Freed{}, false
	}

	shop, err := s.repo.GetBarbershopByID(ctx, ap.BarbershopID)
	if err != nil {
		s.log.Warn("waitlist match skipped: barbershop lookup failed",
			zap.Uint("appointment_id", ap.ID),
			zap.Error(err),
		)
		return ucwaitlist.Freed{}, false
	}

	loc := timezone.Location(shop.Timezone)
	step := time.Duration(shop.SlotMinutes) * time.Minute
	if step <= 0 {
		step = 30 * time.Minute
	}

	start := ap.StartTime.In(loc)
	f := ucwaitlist.Freed{
		BarbershopID:   shop.ID,
		BarbershopName: shop.Name,
		Date:           start.Format("2006-01-02"),
		BarberID:       ap.BarberID,
	}
	for t := start; t.Before(ap.EndTime); t = t.Add(step) {
		f.Starts = append(f.Starts, t.Format("15:04"))
	}
	if len(f.Starts) == 0 {
		f.Starts = []string{start.Format("15:04")}
	}
	return f, true
}

func (s *Service) ConfirmBooking(
	ctx context.Context,
	barbershopID uint,
	appointmentID uint,
	actor access.Actor,
) (*models.Appointment, error) {
	return s.changeStatus(ctx, "ConfirmBooking", barbershopID, appointmentID, actor, apptdomain.StatusConfirmed)
}

func (s *Service) CompleteBooking(
	ctx context.Context,
	barbershopID uint,
	appointmentID uint,
	actor access.Actor,
) (*models.Appointment, error) {
	return s.changeStatus(ctx, "CompleteBooking", barbershopID, appointmentID, actor, apptdomain.StatusCompleted)
}

func (s *Service) changeStatus(
	ctx context.Context,
	name string,
	barbershopID uint,
	appointmentID uint,
	actor access.Actor,
	to apptdomain.Status,
) (ap *models.Appointment, err error) {

	ctx, span := s.span(ctx, name,
		attribute.Int64("barbershop_id", int64(barbershopID)),
		attribute.Int64("appointment_id", int64(appointmentID)),
	)
	defer func() { endSpan(span, err) }()

	ap, err = s.transition.Execute(ctx, ucappointment.TransitionInput{
		BarbershopID:  barbershopID,
		AppointmentID: appointmentID,
		Actor:         actor,
		To:            to,
	})
	return ap, translate(err)
}
