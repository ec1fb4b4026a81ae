package appointment

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/barber-booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/slot"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

const defaultMinAdvance = 120

// day reúne o que é preciso para decidir sobre uma data: a grade, os
// barbeiros ativos e o retrato de ocupação lido agora.
type day struct {
	shop    *models.Barbershop
	cfg     slot.Config
	grid    *slot.Grid
	barbers []models.Barber
	hours   []models.WorkingHours
}

func loadDay(
	ctx context.Context,
	repo domain.Repository,
	barbershopID uint,
	date string,
	now time.Time,
) (*day, error) {

	shop, err := repo.GetBarbershopByID(ctx, barbershopID)
	if err != nil {
		return nil, err
	}

	cfg := slot.ConfigFromShop(shop)

	d, err := slot.ParseDate(cfg, date)
	if err != nil {
		return nil, err
	}

	grid, err := slot.NewGrid(cfg, d, now)
	if err != nil {
		return nil, err
	}

	barbers, err := repo.ListActiveBarbers(ctx, barbershopID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(barbers))
	for _, b := range barbers {
		ids = append(ids, b.ID)
	}
	hours, err := repo.ListWorkingHours(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &day{shop: shop, cfg: cfg, grid: grid, barbers: barbers, hours: hours}, nil
}

// occupancy relê os agendamentos ativos do dia e monta o retrato.
func (d *day) occupancy(ctx context.Context, repo domain.Repository) (*slot.Occupancy, error) {
	apps, err := repo.ListActiveAppointments(ctx, d.shop.ID, d.grid.DayStart(), d.grid.DayEnd())
	if err != nil {
		return nil, err
	}
	return slot.Build(d.grid, d.barbers, d.hours, apps), nil
}

func (d *day) barber(id uint) (*models.Barber, bool) {
	for i := range d.barbers {
		if d.barbers[i].ID == id {
			return &d.barbers[i], true
		}
	}
	return nil, false
}

// notBefore é o primeiro instante reservável: agora + antecedência mínima.
func (d *day) notBefore(now time.Time) time.Time {
	minAdvance := d.shop.MinAdvanceMinutes
	if minAdvance <= 0 {
		minAdvance = defaultMinAdvance
	}
	return now.Add(time.Duration(minAdvance) * time.Minute)
}

// resolveService valida o serviço e devolve quantos slots ele ocupa.
func resolveService(
	ctx context.Context,
	repo domain.Repository,
	grid *slot.Grid,
	barbershopID uint,
	productID uint,
) (*models.BarberProduct, int, error) {

	product, err := repo.GetProduct(ctx, barbershopID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, httperr.ErrBusiness(httperr.CodeInvalidService)
		}
		return nil, 0, err
	}

	if !product.Active || isBeverage(product.Category) {
		return nil, 0, httperr.ErrBusiness(httperr.CodeInvalidService)
	}
	if product.DurationMin <= 0 {
		return nil, 0, httperr.ErrBusiness(httperr.CodeInvalidDuration)
	}

	return product, grid.Span(time.Duration(product.DurationMin) * time.Minute), nil
}

// Bebidas são vendidas no balcão e não ocupam agenda.
func isBeverage(category string) bool {
	c := strings.ToLower(strings.TrimSpace(category))
	return c == "beverage" || c == "beverages" || c == "bebida" || c == "bebidas"
}

// SlotInfo é um horário validado contra a grade, sem olhar ocupação.
type SlotInfo struct {
	Shop    *models.Barbershop
	Grid    *slot.Grid
	Product *models.BarberProduct
	Barber  *models.Barber
	Start   int
	Span    int
}

func (s *SlotInfo) Date() string { return s.Grid.DateString() }
func (s *SlotInfo) Time() string { return s.Grid.Label(s.Start) }

// ValidateSlot aplica as mesmas validações de data, horário, serviço e
// barbeiro da reserva. Usado pela lista de espera.
func ValidateSlot(
	ctx context.Context,
	repo domain.Repository,
	now time.Time,
	barbershopID uint,
	date string,
	hm string,
	productID uint,
	barberID *uint,
) (*SlotInfo, error) {

	d, err := loadDay(ctx, repo, barbershopID, date, now)
	if err != nil {
		return nil, err
	}

	product, span, err := resolveService(ctx, repo, d.grid, barbershopID, productID)
	if err != nil {
		return nil, err
	}

	start, err := d.grid.IndexOf(strings.TrimSpace(hm))
	if err != nil {
		return nil, err
	}
	if !d.grid.Fits(start, span) {
		return nil, httperr.ErrBusinessMsg(httperr.CodeOutOfHours, "O serviço termina depois do fechamento.")
	}

	info := &SlotInfo{Shop: d.shop, Grid: d.grid, Product: product, Start: start, Span: span}

	if barberID != nil && *barberID != 0 {
		b, ok := d.barber(*barberID)
		if !ok {
			return nil, httperr.ErrBusiness(httperr.CodeInvalidResource)
		}
		info.Barber = b
	}

	return info, nil
}
