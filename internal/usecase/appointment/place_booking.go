package appointment

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/audit"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	domain "github.com/BruksfildServices01/barber-booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/conflict"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/slot"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/lock"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

// ======================================================
// INPUT
// ======================================================

type PlaceBookingInput struct {
	BarbershopID uint
	Actor        access.Actor

	// nil = qualquer barbeiro
	BarberID  *uint
	ProductID uint

	Date string // YYYY-MM-DD
	Time string // HH:mm

	// Cliente: cliente logado usa o próprio cadastro; equipe informa
	// ClientID ou nome/telefone para balcão.
	ClientID    uint
	ClientName  string
	ClientPhone string
	ClientEmail string

	Notes string
}

// WaitlistCleaner tira da fila o cliente que acabou de reservar.
type WaitlistCleaner interface {
	RemoveForBooking(ctx context.Context, barbershopID, clientID uint, date, startTime string) (int64, error)
}

// ======================================================
// USE CASE
// ======================================================

type PlaceBooking struct {
	repo     domain.Repository
	locker   lock.Locker
	waitlist WaitlistCleaner
	audit    *audit.Dispatcher
	log      *zap.Logger
	now      func() time.Time
}

func NewPlaceBooking(
	repo domain.Repository,
	locker lock.Locker,
	waitlist WaitlistCleaner,
	audit *audit.Dispatcher,
	log *zap.Logger,
	now func() time.Time,
) *PlaceBooking {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PlaceBooking{
		repo:     repo,
		locker:   locker,
		waitlist: waitlist,
		audit:    audit,
		log:      log,
		now:      now,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *PlaceBooking) Execute(
	ctx context.Context,
	in PlaceBookingInput,
) (*models.Appointment, error) {

	now := uc.now()

	// --------------------------------------------------
	// 1️⃣ Barbearia, data e grade
	// --------------------------------------------------
	d, err := loadDay(ctx, uc.repo, in.BarbershopID, in.Date, now)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 2️⃣ Serviço
	// --------------------------------------------------
	product, span, err := resolveService(ctx, uc.repo, d.grid, in.BarbershopID, in.ProductID)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 3️⃣ Horário na grade + antecedência mínima
	// --------------------------------------------------
	start, err := d.grid.IndexOf(strings.TrimSpace(in.Time))
	if err != nil {
		return nil, err
	}
	if !d.grid.Fits(start, span) {
		return nil, httperr.ErrBusinessMsg(httperr.CodeOutOfHours, "O serviço termina depois do fechamento.")
	}
	if d.grid.SlotStart(start).Before(d.notBefore(now)) {
		return nil, httperr.ErrBusinessMsg(httperr.CodeOutOfHours, "Horário muito próximo; respeite a antecedência mínima.")
	}

	// --------------------------------------------------
	// 4️⃣ Barbeiro
	// --------------------------------------------------
	constraint := conflict.FromPtr(in.BarberID)
	if id, ok := constraint.BarberID(); ok {
		if _, found := d.barber(id); !found {
			return nil, httperr.ErrBusiness(httperr.CodeInvalidResource)
		}
	}

	// --------------------------------------------------
	// 5️⃣ Cliente
	// --------------------------------------------------
	client, err := uc.resolveClient(ctx, in)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 6️⃣ Pré-checagem (retrato pode estar velho)
	// --------------------------------------------------
	occ, err := d.occupancy(ctx, uc.repo)
	if err != nil {
		return nil, err
	}

	req := conflict.Request{Start: start, Span: span, Constraint: constraint}
	res, err := conflict.Detect(occ, req)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		uc.auditConflict(in, d, res)
		return nil, outcomeError(res.Outcome)
	}

	candidates := orderCandidates(res, occ)

	// --------------------------------------------------
	// 7️⃣ Decisão serializada por (dia, barbeiro)
	// --------------------------------------------------

	// Reserva sem barbeiro no intervalo consome folga do dia inteiro; os
	// pedidos "qualquer um" entram em fila por dia.
	if constraint.IsAny() && occ.Unassigned(start, span) > 0 {
		release, err := uc.locker.Lock(ctx, lock.DayKey(d.shop.ID, d.grid.DateString()))
		if err != nil {
			return nil, err
		}
		defer release()
	}

	timeouts := 0
	for _, barberID := range candidates {
		ap, err := uc.tryBarber(ctx, d, req, barberID, product, client, in)

		switch {
		case err == nil:
			uc.afterBooking(ctx, in, d, ap, client)
			return ap, nil

		case httperr.IsBusiness(err, httperr.CodeTimeout):
			timeouts++
			continue

		case httperr.IsBusiness(err, httperr.CodeSlotConflict):
			continue

		default:
			return nil, err
		}
	}

	if timeouts == len(candidates) {
		return nil, httperr.ErrBusiness(httperr.CodeTimeout)
	}

	final := conflict.FullyBooked
	if !constraint.IsAny() {
		final = conflict.Conflict
	}
	uc.auditConflict(in, d, conflict.Result{Outcome: final})
	return nil, outcomeError(final)
}

// tryBarber trava o barbeiro, relê a agenda, re-decide e grava.
func (uc *PlaceBooking) tryBarber(
	ctx context.Context,
	d *day,
	req conflict.Request,
	barberID uint,
	product *models.BarberProduct,
	client *models.Client,
	in PlaceBookingInput,
) (*models.Appointment, error) {

	release, err := uc.locker.Lock(ctx, lock.BookingKey(d.shop.ID, d.grid.DateString(), barberID))
	if err != nil {
		return nil, err
	}
	defer release()

	occ, err := d.occupancy(ctx, uc.repo)
	if err != nil {
		return nil, err
	}

	if req.Constraint.IsAny() {
		// reservas sem barbeiro ainda contam contra "qualquer um"
		res, err := conflict.Detect(occ, req)
		if err != nil {
			return nil, err
		}
		if !res.OK() || !containsID(res.Candidates, barberID) {
			return nil, httperr.ErrBusiness(httperr.CodeSlotConflict)
		}
	} else {
		res, err := conflict.Detect(occ, conflict.Request{Start: req.Start, Span: req.Span, Constraint: conflict.Specific(barberID)})
		if err != nil {
			return nil, err
		}
		if !res.OK() {
			return nil, httperr.ErrBusiness(httperr.CodeSlotConflict)
		}
	}

	id := barberID
	ap := &models.Appointment{
		BarbershopID:    d.shop.ID,
		BarberID:        &id,
		ClientID:        client.ID,
		BarberProductID: product.ID,
		StartTime:       d.grid.SlotStart(req.Start),
		EndTime:         d.grid.SlotStart(req.Start + req.Span), // alinhado à grade
		Status:          string(domain.InitialStatus()),
		Notes:           in.Notes,
	}

	if err := uc.repo.CreateAppointmentIfFree(ctx, ap); err != nil {
		return nil, err
	}

	ap.Client = *client
	ap.BarberProduct = *product
	if b, ok := d.barber(barberID); ok {
		ap.Barber = b
	}
	return ap, nil
}

func (uc *PlaceBooking) resolveClient(ctx context.Context, in PlaceBookingInput) (*models.Client, error) {
	if in.Actor.IsCustomer() {
		c, err := uc.repo.GetClientByUser(ctx, in.BarbershopID, in.Actor.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusinessMsg(httperr.CodeUnauthorized, "Cliente sem cadastro nesta barbearia.")
		}
		return c, err
	}

	if in.ClientID != 0 {
		c, err := uc.repo.GetClient(ctx, in.BarbershopID, in.ClientID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusinessMsg(httperr.CodeNotFound, "Cliente não encontrado.")
		}
		return c, err
	}

	name := strings.TrimSpace(in.ClientName)
	phone := strings.TrimSpace(in.ClientPhone)
	if name == "" || phone == "" {
		return nil, httperr.ErrBusinessMsg(httperr.CodeInvalidRequest, "Informe nome e telefone do cliente.")
	}

	return uc.repo.GetOrCreateClient(ctx, in.BarbershopID, name, phone, strings.TrimSpace(in.ClientEmail))
}

func (uc *PlaceBooking) afterBooking(
	ctx context.Context,
	in PlaceBookingInput,
	d *day,
	ap *models.Appointment,
	client *models.Client,
) {

	if uc.waitlist != nil {
		n, err := uc.waitlist.RemoveForBooking(ctx, d.shop.ID, client.ID, d.grid.DateString(), ap.StartTime.Format(slot.TimeLayout))
		if err != nil {
			uc.log.Warn("waitlist cleanup failed",
				zap.Uint("appointment_id", ap.ID),
				zap.Uint("client_id", client.ID),
				zap.Error(err),
			)
		} else if n > 0 {
			uc.log.Info("waitlist entries fulfilled by booking",
				zap.Uint("client_id", client.ID),
				zap.Int64("count", n),
			)
		}
	}

	var userID *uint
	if in.Actor.UserID != 0 {
		uid := in.Actor.UserID
		userID = &uid
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: d.shop.ID,
		UserID:       userID,
		Action:       audit.ActionAppointmentCreated,
		Entity:       "appointment",
		EntityID:     &ap.ID,
		Metadata: map[string]any{
			"barber_id": *ap.BarberID,
			"date":      d.grid.DateString(),
			"time":      ap.StartTime.Format(slot.TimeLayout),
		},
	})
}

func (uc *PlaceBooking) auditConflict(in PlaceBookingInput, d *day, res conflict.Result) {
	uc.audit.Dispatch(audit.Event{
		BarbershopID: d.shop.ID,
		Action:       audit.ActionAppointmentConflict,
		Entity:       "appointment",
		Metadata: map[string]any{
			"outcome": res.Outcome.String(),
			"date":    in.Date,
			"time":    in.Time,
		},
	})
}

// orderCandidates: barbeiro pedido, ou os livres do menos carregado
// para o mais carregado no dia, desempate por ID.
func orderCandidates(res conflict.Result, occ *slot.Occupancy) []uint {
	if res.Outcome == conflict.Available {
		return []uint{res.BarberID}
	}

	out := make([]uint, len(res.Candidates))
	copy(out, res.Candidates)
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := occ.Load(out[i]), occ.Load(out[j])
		if li != lj {
			return li < lj
		}
		return out[i] < out[j]
	})
	return out
}

func outcomeError(o conflict.Outcome) error {
	if o == conflict.FullyBooked {
		return httperr.ErrBusiness(httperr.CodeFullyBooked)
	}
	return httperr.ErrBusiness(httperr.CodeSlotConflict)
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
