package scheduling

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	ucwaitlist "github.com/BruksfildServices01/barber-booking-engine/internal/usecase/waitlist"
)

func (s *Service) JoinWaitlist(
	ctx context.Context,
	in ucwaitlist.JoinInput,
) (entry *models.WaitlistEntry, err error) {

	ctx, span := s.span(ctx, "JoinWaitlist",
		attribute.Int64("barbershop_id", int64(in.BarbershopID)),
		attribute.String("date", in.Date),
		attribute.String("time", in.Time),
	)
	defer func() { endSpan(span, err) }()

	entry, err = s.join.Execute(ctx, in)
	return entry, translate(err)
}

func (s *Service) ListWaitlist(
	ctx context.Context,
	barbershopID uint,
	actor access.Actor,
	clientID uint,
) ([]models.WaitlistEntry, error) {
	out, err := s.list.Execute(ctx, barbershopID, actor, clientID)
	return out, translate(err)
}

func (s *Service) RemoveWaitlistEntry(
	ctx context.Context,
	barbershopID uint,
	actor access.Actor,
	entryID uint,
) (err error) {

	ctx, span := s.span(ctx, "RemoveWaitlistEntry",
		attribute.Int64("barbershop_id", int64(barbershopID)),
		attribute.Int64("entry_id", int64(entryID)),
	)
	defer func() { endSpan(span, err) }()

	return translate(s.remove.Execute(ctx, barbershopID, actor, entryID))
}

func (s *Service) WaitlistSummary(
	ctx context.Context,
	barbershopID uint,
	actor access.Actor,
) (*ucwaitlist.Summary, error) {
	if !actor.IsAdmin() {
		return nil, httperr.ErrBusiness(httperr.CodeUnauthorized)
	}
	out, err := s.summary.Execute(ctx, barbershopID)
	return out, translate(err)
}

// ExpireWaitlist é chamado pelo job periódico do worker.
func (s *Service) ExpireWaitlist(ctx context.Context) (n int64, err error) {
	ctx, span := s.span(ctx, "ExpireWaitlist")
	defer func() {
		span.SetAttributes(attribute.Int64("expired", n))
		endSpan(span, err)
	}()

	return s.expire.Execute(ctx)
}
