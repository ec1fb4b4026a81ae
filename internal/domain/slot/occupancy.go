package slot

import (
	"sort"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

type Status string

const (
	StatusOpen    Status = "open"
	StatusLimited Status = "limited"
	StatusFull    Status = "full"
)

// SlotStatus é a visão agregada de um slot para o cliente.
type SlotStatus struct {
	Index  int    `json:"-"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Status Status `json:"status"`
	Free   int    `json:"free"`
}

// Occupancy guarda, por barbeiro, os slots indisponíveis do dia: reservas
// ativas somadas a bloqueios de expediente e almoço. Reservas sem barbeiro
// (legado) entram num contador por slot.
type Occupancy struct {
	grid       *Grid
	barbers    []uint
	busy       map[uint]*bitset.BitSet
	load       map[uint]int
	unassigned []int
}

// Build projeta os agendamentos ativos do dia na grade. Barbeiros fora de
// barbers são ignorados; hours é opcional (barbeiro sem nenhuma entrada
// atende no horário da barbearia).
func Build(
	grid *Grid,
	barbers []models.Barber,
	hours []models.WorkingHours,
	appointments []models.Appointment,
) *Occupancy {

	occ := &Occupancy{
		grid:       grid,
		busy:       make(map[uint]*bitset.BitSet, len(barbers)),
		load:       make(map[uint]int, len(barbers)),
		unassigned: make([]int, grid.Size()),
	}

	for _, b := range barbers {
		if _, dup := occ.busy[b.ID]; dup {
			continue
		}
		occ.barbers = append(occ.barbers, b.ID)
		occ.busy[b.ID] = bitset.New(uint(grid.Size()))
	}
	sort.Slice(occ.barbers, func(i, j int) bool { return occ.barbers[i] < occ.barbers[j] })

	occ.applyWorkingHours(hours)

	for _, a := range appointments {
		from, to, ok := grid.Cover(a.StartTime, a.EndTime)
		if !ok {
			continue
		}

		if a.BarberID == nil {
			for i := from; i < to; i++ {
				occ.unassigned[i]++
			}
			continue
		}

		set, ok := occ.busy[*a.BarberID]
		if !ok {
			continue
		}
		for i := from; i < to; i++ {
			set.Set(uint(i))
		}
		occ.load[*a.BarberID]++
	}

	return occ
}

func (o *Occupancy) applyWorkingHours(hours []models.WorkingHours) {
	byBarber := make(map[uint][]models.WorkingHours)
	for _, wh := range hours {
		byBarber[wh.BarberID] = append(byBarber[wh.BarberID], wh)
	}

	weekday := int(o.grid.Date().Weekday())

	for id, set := range o.busy {
		entries, ok := byBarber[id]
		if !ok {
			continue
		}

		var today *models.WorkingHours
		for i := range entries {
			if entries[i].Weekday == weekday {
				today = &entries[i]
				break
			}
		}

		// configurou a semana mas não este dia: folga
		if today == nil || !today.Active || today.StartTime == "" || today.EndTime == "" {
			set.FlipRange(0, uint(o.grid.Size()))
			continue
		}

		o.blockOutside(set, today.StartTime, today.EndTime)
		if today.LunchStart != "" && today.LunchEnd != "" {
			o.blockInside(set, today.LunchStart, today.LunchEnd)
		}
	}
}

func (o *Occupancy) blockOutside(set *bitset.BitSet, startHM, endHM string) {
	start, err1 := clock(o.grid.Date(), startHM)
	end, err2 := clock(o.grid.Date(), endHM)
	if err1 != nil || err2 != nil || !end.After(start) {
		set.FlipRange(0, uint(o.grid.Size()))
		return
	}

	for i := 0; i < o.grid.Size(); i++ {
		if o.grid.SlotStart(i).Before(start) || o.grid.SlotEnd(i).After(end) {
			set.Set(uint(i))
		}
	}
}

func (o *Occupancy) blockInside(set *bitset.BitSet, startHM, endHM string) {
	start, err1 := clock(o.grid.Date(), startHM)
	end, err2 := clock(o.grid.Date(), endHM)
	if err1 != nil || err2 != nil {
		return
	}
	o.block(set, start, end)
}

func (o *Occupancy) block(set *bitset.BitSet, start, end time.Time) {
	from, to, ok := o.grid.Cover(start, end)
	if !ok {
		return
	}
	for i := from; i < to; i++ {
		set.Set(uint(i))
	}
}

func (o *Occupancy) Grid() *Grid { return o.grid }

// Barbers devolve os barbeiros considerados, em ordem de ID.
func (o *Occupancy) Barbers() []uint {
	out := make([]uint, len(o.barbers))
	copy(out, o.barbers)
	return out
}

func (o *Occupancy) Has(barberID uint) bool {
	_, ok := o.busy[barberID]
	return ok
}

// Load é o número de reservas do barbeiro no dia.
func (o *Occupancy) Load(barberID uint) int { return o.load[barberID] }

// Busy diz se algum slot de [start, start+span) está ocupado para o barbeiro.
func (o *Occupancy) Busy(barberID uint, start, span int) bool {
	set, ok := o.busy[barberID]
	if !ok {
		return true
	}
	for i := start; i < start+span; i++ {
		if set.Test(uint(i)) {
			return true
		}
	}
	return false
}

// Free lista, em ordem de ID, os barbeiros livres em todo o intervalo.
func (o *Occupancy) Free(start, span int) []uint {
	var out []uint
	for _, id := range o.barbers {
		if !o.Busy(id, start, span) {
			out = append(out, id)
		}
	}
	return out
}

// Unassigned é o pico de reservas sem barbeiro no intervalo.
func (o *Occupancy) Unassigned(start, span int) int {
	peak := 0
	for i := start; i < start+span && i < len(o.unassigned); i++ {
		if i >= 0 && o.unassigned[i] > peak {
			peak = o.unassigned[i]
		}
	}
	return peak
}

// Occupied devolve os índices ocupados do barbeiro.
func (o *Occupancy) Occupied(barberID uint) []int {
	set, ok := o.busy[barberID]
	if !ok {
		return nil
	}
	out := make([]int, 0, set.Count())
	for i, e := set.NextSet(0); e; i, e = set.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// Aggregate resume cada slot: open quando nenhum barbeiro está ocupado,
// limited quando sobra ao menos um, full quando não sobra nenhum. Slots
// que começam antes de notBefore aparecem como full.
func (o *Occupancy) Aggregate(notBefore time.Time) []SlotStatus {
	out := make([]SlotStatus, o.grid.Size())
	total := len(o.barbers)

	for i := range out {
		free := 0
		for _, id := range o.barbers {
			if !o.busy[id].Test(uint(i)) {
				free++
			}
		}
		free -= o.unassigned[i]
		if free < 0 {
			free = 0
		}
		if o.grid.SlotStart(i).Before(notBefore) {
			free = 0
		}

		st := StatusLimited
		switch {
		case free == 0:
			st = StatusFull
		case free == total:
			st = StatusOpen
		}

		out[i] = SlotStatus{
			Index:  i,
			Start:  o.grid.Label(i),
			End:    o.grid.SlotEnd(i).Format(TimeLayout),
			Status: st,
			Free:   free,
		}
	}
	return out
}

// StartsFor lista os inícios em que o barbeiro comporta span slots.
func (o *Occupancy) StartsFor(barberID uint, span int, notBefore time.Time) []int {
	var out []int
	for i := 0; i+span <= o.grid.Size(); i++ {
		if o.grid.SlotStart(i).Before(notBefore) {
			continue
		}
		if !o.Busy(barberID, i, span) {
			out = append(out, i)
		}
	}
	return out
}
