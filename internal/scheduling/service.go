// Package scheduling é a porta de entrada da agenda: disponibilidade,
// reserva, mudanças de status e lista de espera. Os handlers HTTP e o
// worker falam só com Service.
package scheduling

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/audit"
	apptdomain "github.com/BruksfildServices01/barber-booking-engine/internal/domain/appointment"
	wldomain "github.com/BruksfildServices01/barber-booking-engine/internal/domain/waitlist"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/lock"
	"github.com/BruksfildServices01/barber-booking-engine/internal/notify"
	ucappointment "github.com/BruksfildServices01/barber-booking-engine/internal/usecase/appointment"
	ucwaitlist "github.com/BruksfildServices01/barber-booking-engine/internal/usecase/waitlist"
)

type Deps struct {
	Appointments apptdomain.Repository
	Waitlist     wldomain.Repository
	Locker       lock.Locker
	Dispatcher   notify.Dispatcher
	Audit        *audit.Dispatcher
	Log          *zap.Logger
	Now          func() time.Time

	BookingURL string

	// Quantas vezes repetir uma reserva que esbarrou em timeout de lock.
	TimeoutRetries int
	RetryBackoff   time.Duration
}

type Service struct {
	repo apptdomain.Repository
	log  *zap.Logger
	now  func() time.Time

	tracer trace.Tracer

	availability *ucappointment.GetAvailability
	booking      *ucappointment.PlaceBooking
	transition   *ucappointment.TransitionAppointment
	byDate       *ucappointment.ListAppointmentsByDate
	byMonth      *ucappointment.ListAppointmentsByMonth

	join    *ucwaitlist.JoinWaitlist
	list    *ucwaitlist.ListEntries
	remove  *ucwaitlist.RemoveEntry
	summary *ucwaitlist.GetSummary
	expire  *ucwaitlist.ExpireEntries
	matcher *ucwaitlist.Matcher

	retries int
	backoff time.Duration
}

func New(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Dispatcher == nil {
		d.Dispatcher = notify.NewLogDispatcher(d.Log)
	}
	if d.TimeoutRetries < 0 {
		d.TimeoutRetries = 0
	}
	if d.RetryBackoff <= 0 {
		d.RetryBackoff = 50 * time.Millisecond
	}

	return &Service{
		repo:   d.Appointments,
		log:    d.Log,
		now:    d.Now,
		tracer: otel.Tracer("scheduling"),

		availability: ucappointment.NewGetAvailability(d.Appointments, d.Now),
		booking:      ucappointment.NewPlaceBooking(d.Appointments, d.Locker, d.Waitlist, d.Audit, d.Log, d.Now),
		transition:   ucappointment.NewTransitionAppointment(d.Appointments, d.Audit, d.Now),
		byDate:       ucappointment.NewListAppointmentsByDate(d.Appointments),
		byMonth:      ucappointment.NewListAppointmentsByMonth(d.Appointments),

		join:    ucwaitlist.NewJoinWaitlist(d.Appointments, d.Waitlist, d.Audit, d.Now),
		list:    ucwaitlist.NewListEntries(d.Appointments, d.Waitlist),
		remove:  ucwaitlist.NewRemoveEntry(d.Appointments, d.Waitlist, d.Audit),
		summary: ucwaitlist.NewGetSummary(d.Waitlist),
		expire:  ucwaitlist.NewExpireEntries(d.Waitlist, d.Now),
		matcher: ucwaitlist.NewMatcher(d.Waitlist, d.Locker, d.Dispatcher, d.Audit, d.Log, d.Now, d.BookingURL),

		retries: d.TimeoutRetries,
		backoff: d.RetryBackoff,
	}
}

// ===============================
// Tracing / errors
// ===============================

func (s *Service) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "scheduling."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if be, ok := httperr.AsBusiness(err); ok {
			span.SetAttributes(attribute.String("error_code", be.Code))
		} else {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

// translate leva erros de armazenamento e contexto para a taxonomia da agenda.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := httperr.AsBusiness(err); ok {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return httperr.ErrBusiness(httperr.CodeNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		return httperr.ErrBusiness(httperr.CodeTimeout)
	}
	return err
}
