package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/infra/memory"
	"github.com/BruksfildServices01/barber-booking-engine/internal/lock"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	"github.com/BruksfildServices01/barber-booking-engine/internal/notify"
	ucappointment "github.com/BruksfildServices01/barber-booking-engine/internal/usecase/appointment"
)

// Domingo 08:00; reservas de teste caem na segunda 2030-06-03.
var testNow = time.Date(2030, 6, 2, 8, 0, 0, 0, time.UTC)

const testDate = "2030-06-03"

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.SlotOpened
	fail func(msg notify.SlotOpened) error
}

func (d *recordingDispatcher) Send(_ context.Context, msg notify.SlotOpened) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		if err := d.fail(msg); err != nil {
			return err
		}
	}
	d.sent = append(d.sent, msg)
	return nil
}

func (d *recordingDispatcher) count(entryID uint) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, m := range d.sent {
		if m.EntryID == entryID {
			n++
		}
	}
	return n
}

type fixture struct {
	t       *testing.T
	store   *memory.Store
	svc     *Service
	disp    *recordingDispatcher
	shop    models.Barbershop
	barbers []models.Barber
	haircut models.BarberProduct // 60 min
	beard   models.BarberProduct // 30 min
	drink   models.BarberProduct
	admin   access.Actor
	users   uint
}

type fixtureOpt func(*Deps)

func newFixture(t *testing.T, barbers int, opts ...fixtureOpt) *fixture {
	t.Helper()

	store := memory.New()
	f := &fixture{t: t, store: store, disp: &recordingDispatcher{}}

	f.shop = store.AddBarbershop(models.Barbershop{
		Name:              "Barbearia Central",
		Slug:              "central",
		Timezone:          "UTC",
		MinAdvanceMinutes: 120,
		OpenTime:          "09:00",
		CloseTime:         "20:00",
		SlotMinutes:       30,
		ClosedWeekday:     int(time.Sunday),
	})

	for i := 0; i < barbers; i++ {
		uid := uint(1000 + i)
		f.barbers = append(f.barbers, store.AddBarber(models.Barber{
			BarbershopID: f.shop.ID,
			UserID:       &uid,
			Name:         []string{"Rafa", "Léo", "Bia", "Duda"}[i%4],
			Active:       true,
		}))
	}

	f.haircut = store.AddProduct(models.BarberProduct{BarbershopID: f.shop.ID, Name: "Corte", DurationMin: 60, Active: true, Category: "hair"})
	f.beard = store.AddProduct(models.BarberProduct{BarbershopID: f.shop.ID, Name: "Barba", DurationMin: 30, Active: true, Category: "beard"})
	f.drink = store.AddProduct(models.BarberProduct{BarbershopID: f.shop.ID, Name: "Café", DurationMin: 5, Active: true, Category: "beverage"})

	f.admin = access.Actor{UserID: 1, BarbershopID: f.shop.ID, Role: access.RoleAdmin}

	deps := Deps{
		Appointments:   store,
		Waitlist:       store,
		Locker:         lock.NewLocal(time.Second),
		Dispatcher:     f.disp,
		Log:            zap.NewNop(),
		Now:            func() time.Time { return testNow },
		BookingURL:     "https://agenda.example.com/central",
		TimeoutRetries: 2,
		RetryBackoff:   time.Millisecond,
	}
	for _, o := range opts {
		o(&deps)
	}

	f.svc = New(deps)
	return f
}

// customer cria um cliente com login próprio.
func (f *fixture) customer(name, email string) (models.Client, access.Actor) {
	f.users++
	uid := 5000 + f.users
	c := f.store.AddClient(models.Client{
		BarbershopID: f.shop.ID,
		UserID:       &uid,
		Name:         name,
		Email:        email,
		Phone:        email,
	})
	return c, access.Actor{UserID: uid, BarbershopID: f.shop.ID, Role: access.RoleCustomer}
}

func (f *fixture) barberActor(i int) access.Actor {
	return access.Actor{UserID: *f.barbers[i].UserID, BarbershopID: f.shop.ID, Role: access.RoleBarber}
}

func (f *fixture) book(actor access.Actor, barberID *uint, product models.BarberProduct, hm string) (*models.Appointment, error) {
	return f.svc.PlaceBooking(context.Background(), ucappointment.PlaceBookingInput{
		BarbershopID: f.shop.ID,
		Actor:        actor,
		BarberID:     barberID,
		ProductID:    product.ID,
		Date:         testDate,
		Time:         hm,
	})
}

func (f *fixture) mustBook(actor access.Actor, barberID *uint, product models.BarberProduct, hm string) *models.Appointment {
	f.t.Helper()
	ap, err := f.book(actor, barberID, product, hm)
	if err != nil {
		f.t.Fatalf("book %s: %v", hm, err)
	}
	return ap
}

func idOf(b models.Barber) *uint {
	id := b.ID
	return &id
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if !httperr.IsBusiness(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

var errDispatch = errors.New("smtp down")
