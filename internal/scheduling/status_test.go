package scheduling

import (
	"context"
	"testing"
	"time"

	apptdomain "github.com/BruksfildServices01/barber-booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	ucappointment "github.com/BruksfildServices01/barber-booking-engine/internal/usecase/appointment"
)

func TestStatusMachineThroughFacade(t *testing.T) {
	f := newFixture(t, 1)
	_, ana := f.customer("Ana", "ana@example.com")
	ctx := context.Background()

	ap := f.mustBook(ana, idOf(f.barbers[0]), f.beard, "10:00")

	// cliente não confirma
	_, err := f.svc.ConfirmBooking(ctx, f.shop.ID, ap.ID, ana)
	expectCode(t, err, httperr.CodeUnauthorized)

	// pending -> completed não existe
	_, err = f.svc.CompleteBooking(ctx, f.shop.ID, ap.ID, f.admin)
	expectCode(t, err, httperr.CodeInvalidTransition)

	got, err := f.svc.ConfirmBooking(ctx, f.shop.ID, ap.ID, f.barberActor(0))
	if err != nil || got.Status != string(apptdomain.StatusConfirmed) {
		t.Fatalf("confirm: %+v %v", got, err)
	}

	got, err = f.svc.CompleteBooking(ctx, f.shop.ID, ap.ID, f.barberActor(0))
	if err != nil || got.Status != string(apptdomain.StatusCompleted) || got.CompletedAt == nil {
		t.Fatalf("complete: %+v %v", got, err)
	}

	_, err = f.svc.CancelBooking(ctx, f.shop.ID, ap.ID, f.admin)
	expectCode(t, err, httperr.CodeInvalidTransition)
	_, err = f.svc.ConfirmBooking(ctx, f.shop.ID, ap.ID, f.admin)
	expectCode(t, err, httperr.CodeInvalidTransition)
}

func TestCancelledIsTerminal(t *testing.T) {
	f := newFixture(t, 1)
	_, ana := f.customer("Ana", "ana@example.com")
	ctx := context.Background()

	ap := f.mustBook(ana, idOf(f.barbers[0]), f.beard, "10:00")
	if _, err := f.svc.CancelBooking(ctx, f.shop.ID, ap.ID, ana); err != nil {
		t.Fatal(err)
	}

	for _, op := range []func() error{
		func() error { _, err := f.svc.ConfirmBooking(ctx, f.shop.ID, ap.ID, f.admin); return err },
		func() error { _, err := f.svc.CompleteBooking(ctx, f.shop.ID, ap.ID, f.admin); return err },
		func() error { _, err := f.svc.CancelBooking(ctx, f.shop.ID, ap.ID, f.admin); return err },
	} {
		expectCode(t, op(), httperr.CodeInvalidTransition)
	}

	// vaga volta a ficar livre
	f.mustBook(ana, idOf(f.barbers[0]), f.beard, "10:00")
}

func TestCustomerCannotCancelOthers(t *testing.T) {
	f := newFixture(t, 1)
	_, ana := f.customer("Ana", "ana@example.com")
	_, beto := f.customer("Beto", "beto@example.com")

	ap := f.mustBook(ana, idOf(f.barbers[0]), f.beard, "10:00")

	_, err := f.svc.CancelBooking(context.Background(), f.shop.ID, ap.ID, beto)
	expectCode(t, err, httperr.CodeUnauthorized)

	_, err = f.svc.CancelBooking(context.Background(), f.shop.ID, 9999, f.admin)
	expectCode(t, err, httperr.CodeNotFound)
}

func TestAvailabilityAggregate(t *testing.T) {
	f := newFixture(t, 2)
	_, ana := f.customer("Ana", "ana@example.com")
	_, beto := f.customer("Beto", "beto@example.com")

	f.mustBook(ana, idOf(f.barbers[0]), f.beard, "10:00")
	f.mustBook(beto, idOf(f.barbers[0]), f.beard, "11:00")
	f.mustBook(beto, idOf(f.barbers[1]), f.beard, "11:00")

	out, err := f.svc.GetAvailability(context.Background(), ucappointment.AvailabilityInput{
		BarbershopID: f.shop.ID,
		Date:         testDate,
		ProductID:    f.haircut.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Slots) != 22 || out.Span != 2 {
		t.Fatalf("slots=%d span=%d", len(out.Slots), out.Span)
	}

	status := map[string]string{}
	for _, s := range out.Slots {
		status[s.Start] = string(s.Status)
	}
	if status["09:00"] != "open" || status["10:00"] != "limited" || status["11:00"] != "full" {
		t.Fatalf("statuses = %v", status)
	}

	// 60 min com o barbeiro 0 não cabe às 09:30 (esbarra nas 10:00)
	for _, st := range out.Barbers[0].Starts {
		if st.Start == "09:30" || st.Start == "10:00" || st.Start == "10:30" {
			t.Fatalf("barber 0 should not start at %s", st.Start)
		}
	}

	_, err = f.svc.GetAvailability(context.Background(), ucappointment.AvailabilityInput{
		BarbershopID: f.shop.ID,
		Date:         "2030-06-09",
	})
	expectCode(t, err, httperr.CodeInvalidDate)
}

func TestListingScopes(t *testing.T) {
	f := newFixture(t, 2)
	_, ana := f.customer("Ana", "ana@example.com")
	ctx := context.Background()

	f.mustBook(ana, idOf(f.barbers[0]), f.beard, "10:00")
	f.mustBook(ana, idOf(f.barbers[1]), f.beard, "12:00")

	day := time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)

	all, err := f.svc.ListAppointmentsByDate(ctx, f.shop.ID, f.admin, nil, day)
	if err != nil || len(all) != 2 {
		t.Fatalf("admin: %d %v", len(all), err)
	}

	own, err := f.svc.ListAppointmentsByDate(ctx, f.shop.ID, f.barberActor(1), nil, day)
	if err != nil || len(own) != 1 || *own[0].BarberID != f.barbers[1].ID {
		t.Fatalf("barber: %+v %v", own, err)
	}

	_, err = f.svc.ListAppointmentsByMonth(ctx, f.shop.ID, ana, nil, 2030, 6)
	expectCode(t, err, httperr.CodeUnauthorized)

	month, err := f.svc.ListAppointmentsByMonth(ctx, f.shop.ID, f.admin, idOf(f.barbers[0]), 2030, 6)
	if err != nil || len(month) != 1 {
		t.Fatalf("month: %d %v", len(month), err)
	}
}
