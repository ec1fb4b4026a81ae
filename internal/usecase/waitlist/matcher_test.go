package waitlist

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/waitlist"
	"github.com/BruksfildServices01/barber-booking-engine/internal/infra/memory"
	"github.com/BruksfildServices01/barber-booking-engine/internal/lock"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	"github.com/BruksfildServices01/barber-booking-engine/internal/notify"
)

var now = time.Date(2030, 6, 2, 8, 0, 0, 0, time.UTC)

type sendFunc func(ctx context.Context, msg notify.SlotOpened) error

func (f sendFunc) Send(ctx context.Context, msg notify.SlotOpened) error { return f(ctx, msg) }

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string) (lock.Release, error) {
	return nil, errors.New("lock unavailable")
}

type seed struct {
	store  *memory.Store
	shop   models.Barbershop
	barber models.Barber
	beard  models.BarberProduct
}

func newSeed(t *testing.T) *seed {
	t.Helper()
	s := &seed{store: memory.New()}
	s.shop = s.store.AddBarbershop(models.Barbershop{Name: "Central", Slug: "central", Timezone: "UTC"})
	s.barber = s.store.AddBarber(models.Barber{BarbershopID: s.shop.ID, Name: "Rafa", Active: true})
	s.beard = s.store.AddProduct(models.BarberProduct{BarbershopID: s.shop.ID, Name: "Barba", DurationMin: 30, Active: true})
	return s
}

func (s *seed) entry(t *testing.T, email, start string, barberID *uint) models.WaitlistEntry {
	t.Helper()
	c := s.store.AddClient(models.Client{BarbershopID: s.shop.ID, Name: "Cliente " + start, Email: email})
	e := models.WaitlistEntry{
		BarbershopID:    s.shop.ID,
		ClientID:        c.ID,
		BarberProductID: s.beard.ID,
		BarberID:        barberID,
		Date:            "2030-06-03",
		StartTime:       start,
	}
	if err := s.store.InsertEntry(context.Background(), &e); err != nil {
		t.Fatal(err)
	}
	return e
}

func (s *seed) freed(starts ...string) Freed {
	id := s.barber.ID
	return Freed{
		BarbershopID:   s.shop.ID,
		BarbershopName: s.shop.Name,
		Date:           "2030-06-03",
		Starts:         starts,
		BarberID:       &id,
	}
}

func TestMatchBuildsMessage(t *testing.T) {
	s := newSeed(t)
	id := s.barber.ID
	e := s.entry(t, "ana@example.com", "10:00", &id)
	s.entry(t, "", "10:00", nil)

	var got []notify.SlotOpened
	m := NewMatcher(s.store, lock.NewLocal(time.Second), sendFunc(func(_ context.Context, msg notify.SlotOpened) error {
		got = append(got, msg)
		return nil
	}), nil, nil, func() time.Time { return now }, "https://agenda.example.com/central?src=wl")

	rep := m.Match(context.Background(), s.freed("10:00", "10:30"))
	if rep != (Report{Matched: 2, Notified: 1, Skipped: 1}) {
		t.Fatalf("report = %+v", rep)
	}

	msg := got[0]
	if msg.EntryID != e.ID || msg.BarberName != "Rafa" || msg.ServiceName != "Barba" || msg.BarbershopName != "Central" {
		t.Fatalf("message = %+v", msg)
	}

	u, err := url.Parse(msg.BookingURL)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("src") != "wl" || q.Get("date") != "2030-06-03" || q.Get("time") != "10:00" || q.Get("barber_id") == "" {
		t.Fatalf("booking url = %s", msg.BookingURL)
	}

	stored, _ := s.store.Entry(e.ID)
	if stored.Status != string(waitlist.StatusNotified) || stored.NotifiedAt == nil || !stored.NotifiedAt.Equal(now) {
		t.Fatalf("entry = %+v", stored)
	}
}

func TestMatchLockFailureCountsPerSlot(t *testing.T) {
	s := newSeed(t)
	s.entry(t, "ana@example.com", "10:00", nil)

	sent := 0
	m := NewMatcher(s.store, failingLocker{}, sendFunc(func(context.Context, notify.SlotOpened) error {
		sent++
		return nil
	}), nil, nil, nil, "")

	rep := m.Match(context.Background(), s.freed("10:00", "10:30"))
	if rep.Failed != 2 || sent != 0 {
		t.Fatalf("report = %+v sent = %d", rep, sent)
	}
}

func TestMatchEntryRemovedDuringSend(t *testing.T) {
	s := newSeed(t)
	e := s.entry(t, "ana@example.com", "10:00", nil)

	m := NewMatcher(s.store, lock.NewLocal(time.Second), sendFunc(func(ctx context.Context, msg notify.SlotOpened) error {
		// cliente sai da fila enquanto o aviso é enviado
		_, err := s.store.UpdateEntryStatus(ctx, msg.EntryID, waitlist.StatusActive, waitlist.StatusRemoved)
		return err
	}), nil, nil, nil, "")

	rep := m.Match(context.Background(), s.freed("10:00"))
	if rep != (Report{Matched: 1, Skipped: 1}) {
		t.Fatalf("report = %+v", rep)
	}
	if stored, _ := s.store.Entry(e.ID); stored.Status != string(waitlist.StatusRemoved) {
		t.Fatalf("status = %s", stored.Status)
	}
}

func TestMatchMarkFailureKeepsEntryActive(t *testing.T) {
	s := newSeed(t)
	e := s.entry(t, "ana@example.com", "10:00", nil)
	s.store.FailOn(func(op string) error {
		if op == "MarkNotified" {
			return errors.New("db down")
		}
		return nil
	})

	m := NewMatcher(s.store, lock.NewLocal(time.Second), sendFunc(func(context.Context, notify.SlotOpened) error {
		return nil
	}), nil, nil, nil, "")

	rep := m.Match(context.Background(), s.freed("10:00"))
	if rep.Failed != 1 || rep.Notified != 0 {
		t.Fatalf("report = %+v", rep)
	}
	if stored, _ := s.store.Entry(e.ID); stored.Status != string(waitlist.StatusActive) {
		t.Fatalf("status = %s", stored.Status)
	}
}

func TestLinkWithoutBaseURL(t *testing.T) {
	m := NewMatcher(nil, nil, nil, nil, nil, nil, "  ")
	if got := m.link(&models.WaitlistEntry{Date: "2030-06-03", StartTime: "10:00"}); got != "" {
		t.Fatalf("link = %q", got)
	}

	m = NewMatcher(nil, nil, nil, nil, nil, nil, "https://x.test/b")
	if got := m.link(&models.WaitlistEntry{Date: "2030-06-03", StartTime: "10:00", BarberProductID: 4}); !strings.HasPrefix(got, "https://x.test/b?") {
		t.Fatalf("link = %q", got)
	}
}

func TestExpireEntriesUsesEachShopCalendar(t *testing.T) {
	s := newSeed(t)
	ctx := context.Background()

	sp := s.store.AddBarbershop(models.Barbershop{Name: "Paulista", Slug: "paulista", Timezone: "America/Sao_Paulo"})
	spBeard := s.store.AddProduct(models.BarberProduct{BarbershopID: sp.ID, Name: "Barba", DurationMin: 30, Active: true})
	spClient := s.store.AddClient(models.Client{BarbershopID: sp.ID, Name: "Caio", Email: "caio@example.com"})

	ana := s.entry(t, "ana@example.com", "10:00", nil)
	utcOld := models.WaitlistEntry{BarbershopID: s.shop.ID, ClientID: ana.ClientID, BarberProductID: s.beard.ID, Date: "2030-06-01", StartTime: "09:00"}
	spOld := models.WaitlistEntry{BarbershopID: sp.ID, ClientID: spClient.ID, BarberProductID: spBeard.ID, Date: "2030-06-01", StartTime: "09:00"}
	for _, e := range []*models.WaitlistEntry{&utcOld, &spOld} {
		if err := s.store.InsertEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	// 02:00 UTC já é dia 2 em UTC, mas ainda dia 1 em São Paulo
	uc := NewExpireEntries(s.store, func() time.Time { return time.Date(2030, 6, 2, 2, 0, 0, 0, time.UTC) })
	n, err := uc.Execute(ctx)
	if err != nil || n != 1 {
		t.Fatalf("n = %d err = %v", n, err)
	}
	if e, _ := s.store.Entry(utcOld.ID); e.Status != string(waitlist.StatusExpired) {
		t.Fatalf("utc entry = %s", e.Status)
	}
	if e, _ := s.store.Entry(spOld.ID); e.Status != string(waitlist.StatusActive) {
		t.Fatalf("sao paulo entry = %s", e.Status)
	}

	uc = NewExpireEntries(s.store, func() time.Time { return time.Date(2030, 6, 2, 4, 0, 0, 0, time.UTC) })
	n, err = uc.Execute(ctx)
	if err != nil || n != 1 {
		t.Fatalf("n = %d err = %v", n, err)
	}
	if e, _ := s.store.Entry(spOld.ID); e.Status != string(waitlist.StatusExpired) {
		t.Fatalf("sao paulo entry = %s", e.Status)
	}
}

func TestExpireEntriesContinuesAfterShopError(t *testing.T) {
	s := newSeed(t)
	s.entry(t, "ana@example.com", "10:00", nil)
	s.store.FailOn(func(op string) error {
		if op == "ExpireBefore" {
			return errors.New("db down")
		}
		return nil
	})

	_, err := NewExpireEntries(s.store, func() time.Time { return now }).Execute(context.Background())
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("err = %v", err)
	}
}
