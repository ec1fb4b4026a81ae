package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/barber-booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/slot"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
)

type AvailabilityInput struct {
	BarbershopID uint
	Date         string
	ProductID    uint  // 0 = um slot
	BarberID     *uint // nil = todos
}

type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type BarberAvailability struct {
	BarberID uint       `json:"barber_id"`
	Name     string     `json:"name"`
	Occupied []string   `json:"occupied"`
	Starts   []TimeSlot `json:"starts"`
}

type Availability struct {
	Date        string               `json:"date"`
	SlotMinutes int                  `json:"slot_minutes"`
	Span        int                  `json:"span"`
	Slots       []slot.SlotStatus    `json:"slots"`
	Barbers     []BarberAvailability `json:"barbers"`
}

type GetAvailability struct {
	repo domain.Repository
	now  func() time.Time
}

func NewGetAvailability(repo domain.Repository, now func() time.Time) *GetAvailability {
	if now == nil {
		now = time.Now
	}
	return &GetAvailability{repo: repo, now: now}
}

func (uc *GetAvailability) Execute(
	ctx context.Context,
	in AvailabilityInput,
) (*Availability, error) {

	now := uc.now()

	d, err := loadDay(ctx, uc.repo, in.BarbershopID, in.Date, now)
	if err != nil {
		return nil, err
	}

	span := 1
	if in.ProductID != 0 {
		if _, span, err = resolveService(ctx, uc.repo, d.grid, in.BarbershopID, in.ProductID); err != nil {
			return nil, err
		}
	}

	if in.BarberID != nil {
		if _, ok := d.barber(*in.BarberID); !ok {
			return nil, httperr.ErrBusiness(httperr.CodeInvalidResource)
		}
	}

	occ, err := d.occupancy(ctx, uc.repo)
	if err != nil {
		return nil, err
	}

	cut := d.notBefore(now)

	out := &Availability{
		Date:        d.grid.DateString(),
		SlotMinutes: int(d.grid.Width() / time.Minute),
		Span:        span,
		Slots:       occ.Aggregate(cut),
		Barbers:     []BarberAvailability{},
	}

	for _, b := range d.barbers {
		if in.BarberID != nil && *in.BarberID != b.ID {
			continue
		}

		ba := BarberAvailability{BarberID: b.ID, Name: b.Name, Occupied: []string{}, Starts: []TimeSlot{}}
		for _, i := range occ.Occupied(b.ID) {
			ba.Occupied = append(ba.Occupied, d.grid.Label(i))
		}
		for _, i := range occ.StartsFor(b.ID, span, cut) {
			ba.Starts = append(ba.Starts, TimeSlot{
				Start: d.grid.Label(i),
				End:   d.grid.SlotStart(i + span).Format(slot.TimeLayout),
			})
		}
		out.Barbers = append(out.Barbers, ba)
	}

	return out, nil
}
