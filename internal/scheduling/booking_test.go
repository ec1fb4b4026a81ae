package scheduling

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	apptdomain "github.com/BruksfildServices01/barber-booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/slot"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/lock"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	ucappointment "github.com/BruksfildServices01/barber-booking-engine/internal/usecase/appointment"
)

func TestSixtyMinuteServiceOccupiesTwoSlots(t *testing.T) {
	f := newFixture(t, 1)
	_, ana := f.customer("Ana", "ana@example.com")
	_, beto := f.customer("Beto", "beto@example.com")
	barber := idOf(f.barbers[0])

	ap := f.mustBook(ana, barber, f.haircut, "10:00")
	if got := ap.EndTime.Format(slot.TimeLayout); got != "11:00" {
		t.Fatalf("end = %s", got)
	}
	if ap.Status != string(apptdomain.StatusPending) {
		t.Fatalf("status = %s", ap.Status)
	}

	_, err := f.book(beto, barber, f.beard, "10:30")
	expectCode(t, err, httperr.CodeSlotConflict)

	_, err = f.book(beto, barber, f.haircut, "10:30")
	expectCode(t, err, httperr.CodeSlotConflict)

	f.mustBook(beto, barber, f.beard, "11:00")
}

func TestAnyBarberFullyBookedThenFreed(t *testing.T) {
	f := newFixture(t, 2)
	_, ana := f.customer("Ana", "ana@example.com")
	_, beto := f.customer("Beto", "beto@example.com")
	_, caio := f.customer("Caio", "caio@example.com")

	a := f.mustBook(ana, idOf(f.barbers[0]), f.beard, "14:00")
	f.mustBook(beto, idOf(f.barbers[1]), f.beard, "14:00")

	_, err := f.book(caio, nil, f.beard, "14:00")
	expectCode(t, err, httperr.CodeFullyBooked)

	if _, err := f.svc.CancelBooking(context.Background(), f.shop.ID, a.ID, f.admin); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	got := f.mustBook(caio, nil, f.beard, "14:00")
	if got.BarberID == nil || *got.BarberID != f.barbers[0].ID {
		t.Fatalf("assigned %v, want freed barber %d", got.BarberID, f.barbers[0].ID)
	}
}

func TestAnyBarberPrefersLeastLoaded(t *testing.T) {
	f := newFixture(t, 2)
	_, ana := f.customer("Ana", "ana@example.com")
	_, beto := f.customer("Beto", "beto@example.com")

	f.mustBook(ana, idOf(f.barbers[0]), f.beard, "09:00")

	got := f.mustBook(beto, nil, f.beard, "15:00")
	if *got.BarberID != f.barbers[1].ID {
		t.Fatalf("assigned %d, want %d", *got.BarberID, f.barbers[1].ID)
	}
}

func TestUnassignedBookingConsumesAnyCapacity(t *testing.T) {
	f := newFixture(t, 1)
	_, ana := f.customer("Ana", "ana@example.com")

	day, _ := time.Parse(slot.DateLayout, testDate)
	f.store.AddAppointment(models.Appointment{
		BarbershopID: f.shop.ID,
		StartTime:    day.Add(16 * time.Hour),
		EndTime:      day.Add(16*time.Hour + 30*time.Minute),
		Status:       string(apptdomain.StatusConfirmed),
	})

	_, err := f.book(ana, nil, f.beard, "16:00")
	expectCode(t, err, httperr.CodeFullyBooked)
}

func TestBookingValidation(t *testing.T) {
	f := newFixture(t, 1)
	_, ana := f.customer("Ana", "ana@example.com")
	barber := idOf(f.barbers[0])

	inactive := f.store.AddBarber(models.Barber{BarbershopID: f.shop.ID, Name: "Off", Active: false})

	cases := []struct {
		name string
		in   ucappointment.PlaceBookingInput
		code string
	}{
		{"past date", ucappointment.PlaceBookingInput{Date: "2030-05-31", Time: "10:00", ProductID: f.beard.ID}, httperr.CodeInvalidDate},
		{"sunday", ucappointment.PlaceBookingInput{Date: "2030-06-09", Time: "10:00", ProductID: f.beard.ID}, httperr.CodeInvalidDate},
		{"bad date", ucappointment.PlaceBookingInput{Date: "03/06/2030", Time: "10:00", ProductID: f.beard.ID}, httperr.CodeInvalidDate},
		{"at close", ucappointment.PlaceBookingInput{Date: testDate, Time: "20:00", ProductID: f.beard.ID}, httperr.CodeOutOfHours},
		{"off grid", ucappointment.PlaceBookingInput{Date: testDate, Time: "10:15", ProductID: f.beard.ID}, httperr.CodeOutOfHours},
		{"runs past close", ucappointment.PlaceBookingInput{Date: testDate, Time: "19:30", ProductID: f.haircut.ID}, httperr.CodeOutOfHours},
		{"beverage", ucappointment.PlaceBookingInput{Date: testDate, Time: "10:00", ProductID: f.drink.ID}, httperr.CodeInvalidService},
		{"unknown service", ucappointment.PlaceBookingInput{Date: testDate, Time: "10:00", ProductID: 9999}, httperr.CodeInvalidService},
		{"inactive barber", ucappointment.PlaceBookingInput{Date: testDate, Time: "10:00", ProductID: f.beard.ID, BarberID: idOf(inactive)}, httperr.CodeInvalidResource},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.BarbershopID = f.shop.ID
			tc.in.Actor = ana
			_, err := f.svc.PlaceBooking(context.Background(), tc.in)
			expectCode(t, err, tc.code)
		})
	}

	if n := len(f.store.Appointments()); n != 0 {
		t.Fatalf("validation failures wrote %d appointments", n)
	}

	// 19:30 com serviço de 30 min cabe
	f.mustBook(ana, barber, f.beard, "19:30")
}

func TestBookingRespectsMinAdvance(t *testing.T) {
	f := newFixture(t, 1)
	_, ana := f.customer("Ana", "ana@example.com")

	monday := time.Date(2030, 6, 3, 9, 30, 0, 0, time.UTC)
	f.svc = New(Deps{
		Appointments: f.store,
		Waitlist:     f.store,
		Locker:       lock.NewLocal(time.Second),
		Dispatcher:   f.disp,
		Now:          func() time.Time { return monday },
	})

	_, err := f.book(ana, nil, f.beard, "11:00")
	expectCode(t, err, httperr.CodeOutOfHours)

	f.mustBook(ana, nil, f.beard, "11:30")
}

func TestStaffBooksWalkInClient(t *testing.T) {
	f := newFixture(t, 1)

	ap, err := f.svc.PlaceBooking(context.Background(), ucappointment.PlaceBookingInput{
		BarbershopID: f.shop.ID,
		Actor:        f.barberActor(0),
		ProductID:    f.beard.ID,
		Date:         testDate,
		Time:         "12:00",
		ClientName:   "Seu Jorge",
		ClientPhone:  "11999990000",
	})
	if err != nil {
		t.Fatal(err)
	}
	if ap.Client.Name != "Seu Jorge" {
		t.Fatalf("client = %+v", ap.Client)
	}

	_, err = f.svc.PlaceBooking(context.Background(), ucappointment.PlaceBookingInput{
		BarbershopID: f.shop.ID,
		Actor:        f.admin,
		ProductID:    f.beard.ID,
		Date:         testDate,
		Time:         "13:00",
	})
	expectCode(t, err, httperr.CodeInvalidRequest)
}

// Núcleo de segurança: sob concorrência, nenhum barbeiro fica com dois
// agendamentos ativos sobrepostos.
func TestConcurrentBookingsNeverOverlap(t *testing.T) {
	f := newFixture(t, 3)
	rng := rand.New(rand.NewSource(42))

	type attempt struct {
		actor   access.Actor
		barber  *uint
		product models.BarberProduct
		hm      string
	}

	var attempts []attempt
	for i := 0; i < 120; i++ {
		_, actor := f.customer(fmt.Sprintf("c%d", i), fmt.Sprintf("c%d@example.com", i))

		var barber *uint
		if rng.Intn(2) == 0 {
			barber = idOf(f.barbers[rng.Intn(len(f.barbers))])
		}
		product := f.beard
		if rng.Intn(2) == 0 {
			product = f.haircut
		}
		slotIdx := rng.Intn(8)
		hm := time.Date(2030, 6, 3, 10, 0, 0, 0, time.UTC).Add(time.Duration(slotIdx) * 30 * time.Minute).Format(slot.TimeLayout)

		attempts = append(attempts, attempt{actor, barber, product, hm})
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	unexpected := []error{}

	for _, a := range attempts {
		wg.Add(1)
		go func(a attempt) {
			defer wg.Done()
			_, err := f.book(a.actor, a.barber, a.product, a.hm)
			if err == nil ||
				httperr.IsBusiness(err, httperr.CodeSlotConflict) ||
				httperr.IsBusiness(err, httperr.CodeFullyBooked) {
				return
			}
			mu.Lock()
			unexpected = append(unexpected, err)
			mu.Unlock()
		}(a)
	}
	wg.Wait()

	if len(unexpected) > 0 {
		t.Fatalf("unexpected errors: %v", unexpected)
	}

	byBarber := map[uint][]models.Appointment{}
	for _, ap := range f.store.Appointments() {
		if ap.BarberID == nil || !apptdomain.Status(ap.Status).Active() {
			continue
		}
		byBarber[*ap.BarberID] = append(byBarber[*ap.BarberID], ap)
	}

	total := 0
	for id, apps := range byBarber {
		total += len(apps)
		for i := range apps {
			for j := i + 1; j < len(apps); j++ {
				if apps[i].StartTime.Before(apps[j].EndTime) && apps[j].StartTime.Before(apps[i].EndTime) {
					t.Fatalf("barber %d double-booked: %v-%v and %v-%v",
						id, apps[i].StartTime, apps[i].EndTime, apps[j].StartTime, apps[j].EndTime)
				}
			}
		}
	}
	if total == 0 {
		t.Fatal("no booking succeeded")
	}
}

// Mesma disputa, mesmo slot, mesmo barbeiro: exatamente um vence.
func TestConcurrentSameSlotExactlyOneWins(t *testing.T) {
	f := newFixture(t, 1)
	barber := idOf(f.barbers[0])

	var actors []access.Actor
	for i := 0; i < 25; i++ {
		_, a := f.customer(fmt.Sprintf("x%d", i), fmt.Sprintf("x%d@example.com", i))
		actors = append(actors, a)
	}

	var wins, conflicts int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, a := range actors {
		wg.Add(1)
		go func(a access.Actor) {
			defer wg.Done()
			_, err := f.book(a, barber, f.haircut, "15:00")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case httperr.IsBusiness(err, httperr.CodeSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected: %v", err)
			}
		}(a)
	}
	wg.Wait()

	if wins != 1 || conflicts != int32(len(actors)-1) {
		t.Fatalf("wins=%d conflicts=%d", wins, conflicts)
	}
}

// flakyLocker devolve timeout nas primeiras n tentativas.
type flakyLocker struct {
	mu    sync.Mutex
	fails int
	inner lock.Locker
}

func (l *flakyLocker) Lock(ctx context.Context, key string) (lock.Release, error) {
	l.mu.Lock()
	if l.fails > 0 {
		l.fails--
		l.mu.Unlock()
		return nil, httperr.ErrBusiness(httperr.CodeTimeout)
	}
	l.mu.Unlock()
	return l.inner.Lock(ctx, key)
}

func TestTimeoutIsRetriedWithinBound(t *testing.T) {
	locker := &flakyLocker{fails: 2, inner: lock.NewLocal(time.Second)}
	f := newFixture(t, 1, func(d *Deps) { d.Locker = locker })
	_, ana := f.customer("Ana", "ana@example.com")

	f.mustBook(ana, idOf(f.barbers[0]), f.beard, "10:00")

	locker.fails = 10
	_, err := f.book(ana, idOf(f.barbers[0]), f.beard, "11:00")
	expectCode(t, err, httperr.CodeTimeout)
	if locker.fails != 7 {
		t.Fatalf("attempts = %d, want 3", 10-locker.fails)
	}
}

func TestConflictIsNotRetried(t *testing.T) {
	locker := &flakyLocker{inner: lock.NewLocal(time.Second)}
	f := newFixture(t, 1, func(d *Deps) { d.Locker = locker })
	_, ana := f.customer("Ana", "ana@example.com")
	_, beto := f.customer("Beto", "beto@example.com")

	f.mustBook(ana, idOf(f.barbers[0]), f.beard, "10:00")
	_, err := f.book(beto, idOf(f.barbers[0]), f.beard, "10:00")
	expectCode(t, err, httperr.CodeSlotConflict)
}
