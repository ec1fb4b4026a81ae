// Package memory guarda a agenda em mapas protegidos por mutex. Implementa
// os mesmos contratos do repositório gorm e serve às suítes de teste.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/barber-booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/waitlist"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

type Store struct {
	mu sync.Mutex

	shops        map[uint]models.Barbershop
	products     map[uint]models.BarberProduct
	barbers      map[uint]models.Barber
	hours        []models.WorkingHours
	clients      map[uint]models.Client
	appointments map[uint]models.Appointment
	entries      map[uint]models.WaitlistEntry

	seq  uint
	now  func() time.Time
	hook func(op string) error
}

func New() *Store {
	return &Store{
		shops:        make(map[uint]models.Barbershop),
		products:     make(map[uint]models.BarberProduct),
		barbers:      make(map[uint]models.Barber),
		clients:      make(map[uint]models.Client),
		appointments: make(map[uint]models.Appointment),
		entries:      make(map[uint]models.WaitlistEntry),
		now:          time.Now,
	}
}

// FailOn injeta erro numa operação pelo nome (ex.: "MarkNotified").
func (s *Store) FailOn(hook func(op string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

func (s *Store) fail(op string) error {
	if s.hook == nil {
		return nil
	}
	return s.hook(op)
}

func (s *Store) nextID() uint {
	s.seq++
	return s.seq
}

// --------------------------------------------------
// Seed
// --------------------------------------------------

func (s *Store) AddBarbershop(shop models.Barbershop) models.Barbershop {
	s.mu.Lock()
	defer s.mu.Unlock()
	if shop.ID == 0 {
		shop.ID = s.nextID()
	}
	s.shops[shop.ID] = shop
	return shop
}

func (s *Store) AddProduct(p models.BarberProduct) models.BarberProduct {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextID()
	}
	s.products[p.ID] = p
	return p
}

func (s *Store) AddBarber(b models.Barber) models.Barber {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.nextID()
	}
	s.barbers[b.ID] = b
	return b
}

func (s *Store) AddWorkingHours(wh models.WorkingHours) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wh.ID = s.nextID()
	s.hours = append(s.hours, wh)
}

func (s *Store) AddClient(c models.Client) models.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.nextID()
	}
	s.clients[c.ID] = c
	return c
}

// AddAppointment grava sem checar conflito (carga de legado).
func (s *Store) AddAppointment(ap models.Appointment) models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ap.ID == 0 {
		ap.ID = s.nextID()
	}
	s.appointments[ap.ID] = ap
	return ap
}

// Appointments devolve uma cópia de tudo, ordenada por ID.
func (s *Store) Appointments() []models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Appointment, 0, len(s.appointments))
	for _, ap := range s.appointments {
		out = append(out, ap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Entry(id uint) (models.WaitlistEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

// --------------------------------------------------
// appointment.Repository
// --------------------------------------------------

func (s *Store) GetBarbershopByID(_ context.Context, id uint) (*models.Barbershop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop, ok := s.shops[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &shop, nil
}

func (s *Store) GetBarbershopBySlug(_ context.Context, slug string) (*models.Barbershop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, shop := range s.shops {
		if shop.Slug == slug {
			return &shop, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *Store) GetProduct(_ context.Context, barbershopID, productID uint) (*models.BarberProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok || p.BarbershopID != barbershopID {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (s *Store) ListActiveBarbers(_ context.Context, barbershopID uint) ([]models.Barber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Barber
	for _, b := range s.barbers {
		if b.BarbershopID == barbershopID && b.Active {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetBarber(_ context.Context, barbershopID, barberID uint) (*models.Barber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.barbers[barberID]
	if !ok || b.BarbershopID != barbershopID {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (s *Store) ListWorkingHours(_ context.Context, barberIDs []uint) ([]models.WorkingHours, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[uint]bool, len(barberIDs))
	for _, id := range barberIDs {
		want[id] = true
	}
	var out []models.WorkingHours
	for _, wh := range s.hours {
		if want[wh.BarberID] {
			out = append(out, wh)
		}
	}
	return out, nil
}

func (s *Store) GetClient(_ context.Context, barbershopID, clientID uint) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok || c.BarbershopID != barbershopID {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (s *Store) GetClientByUser(_ context.Context, barbershopID, userID uint) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if c.BarbershopID == barbershopID && c.UserID != nil && *c.UserID == userID {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *Store) GetOrCreateClient(_ context.Context, barbershopID uint, name, phone, email string) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if c.BarbershopID == barbershopID && c.Phone == phone {
			return &c, nil
		}
	}
	c := models.Client{ID: s.nextID(), BarbershopID: barbershopID, Name: name, Phone: phone, Email: email}
	s.clients[c.ID] = c
	return &c, nil
}

func overlaps(ap models.Appointment, start, end time.Time) bool {
	return ap.StartTime.Before(end) && ap.EndTime.After(start)
}

func (s *Store) ListActiveAppointments(_ context.Context, barbershopID uint, start, end time.Time) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListActiveAppointments"); err != nil {
		return nil, err
	}
	var out []models.Appointment
	for _, ap := range s.appointments {
		if ap.BarbershopID == barbershopID && domain.Status(ap.Status).Active() && overlaps(ap, start, end) {
			out = append(out, ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *Store) CreateAppointmentIfFree(_ context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("CreateAppointmentIfFree"); err != nil {
		return err
	}
	if ap.BarberID == nil {
		return httperr.ErrBusiness(httperr.CodeInvalidResource)
	}
	if b, ok := s.barbers[*ap.BarberID]; !ok || !b.Active || b.BarbershopID != ap.BarbershopID {
		return httperr.ErrBusiness(httperr.CodeInvalidResource)
	}

	for _, other := range s.appointments {
		if other.BarberID != nil && *other.BarberID == *ap.BarberID &&
			domain.Status(other.Status).Active() && overlaps(other, ap.StartTime, ap.EndTime) {
			return httperr.ErrBusiness(httperr.CodeSlotConflict)
		}
	}

	ap.ID = s.nextID()
	now := s.now()
	ap.CreatedAt, ap.UpdatedAt = now, now
	if ap.Status == "" {
		ap.Status = string(domain.InitialStatus())
	}
	s.appointments[ap.ID] = *ap
	return nil
}

func (s *Store) GetAppointment(_ context.Context, barbershopID, appointmentID uint) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ap, ok := s.appointments[appointmentID]
	if !ok || ap.BarbershopID != barbershopID {
		return nil, gorm.ErrRecordNotFound
	}
	s.attachAppointment(&ap)
	return &ap, nil
}

func (s *Store) attachAppointment(ap *models.Appointment) {
	ap.Client = s.clients[ap.ClientID]
	ap.BarberProduct = s.products[ap.BarberProductID]
	if ap.BarberID != nil {
		if b, ok := s.barbers[*ap.BarberID]; ok {
			ap.Barber = &b
		}
	}
}

func (s *Store) TransitionStatus(_ context.Context, appointmentID uint, from, to domain.Status, at time.Time) error {
	if err := domain.CanTransition(from, to); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("TransitionStatus"); err != nil {
		return err
	}

	ap, ok := s.appointments[appointmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if domain.Status(ap.Status) != from {
		return httperr.ErrBusiness(httperr.CodeInvalidTransition)
	}

	ap.Status = string(to)
	domain.Stamp(&ap, to, at)
	ap.UpdatedAt = at
	s.appointments[appointmentID] = ap
	return nil
}

func (s *Store) ListAppointmentsForPeriod(_ context.Context, barbershopID uint, barberID *uint, start, end time.Time) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Appointment
	for _, ap := range s.appointments {
		if ap.BarbershopID != barbershopID || ap.StartTime.Before(start) || !ap.StartTime.Before(end) {
			continue
		}
		if barberID != nil && (ap.BarberID == nil || *ap.BarberID != *barberID) {
			continue
		}
		s.attachAppointment(&ap)
		out = append(out, ap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// --------------------------------------------------
// waitlist.Repository
// --------------------------------------------------

func sameBarber(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Store) InsertEntry(_ context.Context, entry *models.WaitlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("InsertEntry"); err != nil {
		return err
	}

	for _, e := range s.entries {
		if e.Status == string(waitlist.StatusActive) &&
			e.BarbershopID == entry.BarbershopID &&
			e.ClientID == entry.ClientID &&
			e.BarberProductID == entry.BarberProductID &&
			e.Date == entry.Date &&
			e.StartTime == entry.StartTime &&
			sameBarber(e.BarberID, entry.BarberID) {
			return httperr.ErrBusiness(httperr.CodeAlreadyWaiting)
		}
	}

	entry.ID = s.nextID()
	if entry.Status == "" {
		entry.Status = string(waitlist.StatusActive)
	}
	now := s.now()
	entry.CreatedAt, entry.UpdatedAt = now, now
	s.entries[entry.ID] = *entry
	return nil
}

func (s *Store) attachEntry(e *models.WaitlistEntry) {
	e.Client = s.clients[e.ClientID]
	e.BarberProduct = s.products[e.BarberProductID]
	if e.BarberID != nil {
		if b, ok := s.barbers[*e.BarberID]; ok {
			e.Barber = &b
		}
	}
}

func (s *Store) ListActiveForSlot(_ context.Context, key waitlist.SlotKey) ([]models.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("ListActiveForSlot"); err != nil {
		return nil, err
	}

	var out []models.WaitlistEntry
	for _, e := range s.entries {
		if e.BarbershopID != key.BarbershopID || e.Date != key.Date || e.StartTime != key.StartTime ||
			e.Status != string(waitlist.StatusActive) {
			continue
		}
		if key.BarberID == nil && e.BarberID != nil {
			continue
		}
		if key.BarberID != nil && e.BarberID != nil && *e.BarberID != *key.BarberID {
			continue
		}
		s.attachEntry(&e)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) MarkNotified(_ context.Context, entryID uint, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("MarkNotified"); err != nil {
		return false, err
	}

	e, ok := s.entries[entryID]
	if !ok || e.Status != string(waitlist.StatusActive) {
		return false, nil
	}
	e.Status = string(waitlist.StatusNotified)
	e.NotifiedAt = &at
	e.UpdatedAt = at
	s.entries[entryID] = e
	return true, nil
}

func (s *Store) GetEntry(_ context.Context, barbershopID, entryID uint) (*models.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok || e.BarbershopID != barbershopID {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (s *Store) ListForClient(_ context.Context, barbershopID, clientID uint) ([]models.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WaitlistEntry
	for _, e := range s.entries {
		if e.BarbershopID == barbershopID && e.ClientID == clientID && waitlist.Status(e.Status).Visible() {
			s.attachEntry(&e)
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (s *Store) UpdateEntryStatus(_ context.Context, entryID uint, from, to waitlist.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok || e.Status != string(from) {
		return false, nil
	}
	e.Status = string(to)
	s.entries[entryID] = e
	return true, nil
}

func (s *Store) RemoveForBooking(_ context.Context, barbershopID, clientID uint, date, startTime string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, e := range s.entries {
		if e.BarbershopID == barbershopID && e.ClientID == clientID && e.Date == date &&
			e.StartTime == startTime && waitlist.Status(e.Status).Visible() {
			e.Status = string(waitlist.StatusRemoved)
			s.entries[id] = e
			n++
		}
	}
	return n, nil
}

func (s *Store) ActiveBarbershops(_ context.Context) ([]models.Barbershop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("ActiveBarbershops"); err != nil {
		return nil, err
	}

	seen := map[uint]bool{}
	var out []models.Barbershop
	for _, e := range s.entries {
		if e.Status != string(waitlist.StatusActive) || seen[e.BarbershopID] {
			continue
		}
		seen[e.BarbershopID] = true
		if shop, ok := s.shops[e.BarbershopID]; ok {
			out = append(out, shop)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ExpireBefore(_ context.Context, barbershopID uint, date string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("ExpireBefore"); err != nil {
		return 0, err
	}

	var n int64
	for id, e := range s.entries {
		if e.BarbershopID == barbershopID && e.Status == string(waitlist.StatusActive) && e.Date < date {
			e.Status = string(waitlist.StatusExpired)
			s.entries[id] = e
			n++
		}
	}
	return n, nil
}

func (s *Store) SummaryActive(_ context.Context, barbershopID uint) ([]waitlist.DateCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int64)
	for _, e := range s.entries {
		if e.BarbershopID == barbershopID && e.Status == string(waitlist.StatusActive) {
			counts[e.Date]++
		}
	}
	out := make([]waitlist.DateCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, waitlist.DateCount{Date: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

var (
	_ domain.Repository   = (*Store)(nil)
	_ waitlist.Repository = (*Store)(nil)
)
