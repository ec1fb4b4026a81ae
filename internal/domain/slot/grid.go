// Package slot discretiza o dia da barbearia em slots de largura fixa e
// projeta a ocupação dos barbeiros sobre eles. Nada aqui grava estado.
package slot

import (
	"fmt"
	"time"

	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	"github.com/BruksfildServices01/barber-booking-engine/internal/timezone"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	DefaultOpen        = "09:00"
	DefaultClose       = "20:00"
	DefaultSlotMinutes = 30
	NoClosedWeekday    = -1
)

type Config struct {
	Location      *time.Location
	Open          string
	Close         string
	SlotMinutes   int
	ClosedWeekday int
}

func ConfigFromShop(shop *models.Barbershop) Config {
	cfg := Config{
		Location:      timezone.Location(shop.Timezone),
		Open:          shop.OpenTime,
		Close:         shop.CloseTime,
		SlotMinutes:   shop.SlotMinutes,
		ClosedWeekday: shop.ClosedWeekday,
	}
	if cfg.Open == "" {
		cfg.Open = DefaultOpen
	}
	if cfg.Close == "" {
		cfg.Close = DefaultClose
	}
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = DefaultSlotMinutes
	}
	return cfg
}

// Validate confere uma configuração vinda do cadastro da barbearia.
func (cfg Config) Validate() error {
	open, err1 := time.Parse(TimeLayout, cfg.Open)
	closing, err2 := time.Parse(TimeLayout, cfg.Close)
	if err1 != nil || err2 != nil {
		return httperr.ErrBusinessMsg(httperr.CodeInvalidRequest, "Horário deve estar no formato HH:mm.")
	}
	if !closing.After(open) {
		return httperr.ErrBusinessMsg(httperr.CodeInvalidRequest, "Fechamento deve ser depois da abertura.")
	}
	if cfg.SlotMinutes < 5 || cfg.SlotMinutes > 240 {
		return httperr.ErrBusinessMsg(httperr.CodeInvalidRequest, "Slot deve ter entre 5 e 240 minutos.")
	}
	if closing.Sub(open) < time.Duration(cfg.SlotMinutes)*time.Minute {
		return httperr.ErrBusinessMsg(httperr.CodeInvalidRequest, "Expediente menor que um slot.")
	}
	if cfg.ClosedWeekday < NoClosedWeekday || cfg.ClosedWeekday > 6 {
		return httperr.ErrBusinessMsg(httperr.CodeInvalidRequest, "Dia de folga inválido.")
	}
	return nil
}

// Grid é a sequência ordenada de slots de um dia: slot i cobre
// [start + i*width, start + (i+1)*width).
type Grid struct {
	date  time.Time
	start time.Time
	width time.Duration
	size  int
}

// NewGrid valida a data contra a regra de agenda (não pode ser passada nem
// cair na folga semanal) e monta a grade do expediente.
func NewGrid(cfg Config, date time.Time, now time.Time) (*Grid, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	nowLocal := now.In(loc)
	today := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, loc)

	if day.Before(today) {
		return nil, httperr.ErrBusinessMsg(httperr.CodeInvalidDate, "Data no passado.")
	}
	if cfg.ClosedWeekday >= 0 && int(day.Weekday()) == cfg.ClosedWeekday {
		return nil, httperr.ErrBusinessMsg(httperr.CodeInvalidDate, "A barbearia não abre neste dia.")
	}

	open, err := clock(day, cfg.Open)
	if err != nil {
		return nil, err
	}
	closing, err := clock(day, cfg.Close)
	if err != nil {
		return nil, err
	}

	width := time.Duration(cfg.SlotMinutes) * time.Minute
	if width <= 0 {
		width = DefaultSlotMinutes * time.Minute
	}

	size := int(closing.Sub(open) / width)
	if size <= 0 {
		return nil, httperr.ErrBusinessMsg(httperr.CodeInvalidDate, "Expediente vazio neste dia.")
	}

	return &Grid{date: day, start: open, width: width, size: size}, nil
}

// ParseDate interpreta YYYY-MM-DD no fuso da barbearia.
func ParseDate(cfg Config, value string) (time.Time, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, httperr.ErrBusinessMsg(httperr.CodeInvalidDate, "Data inválida.")
	}
	return d, nil
}

func clock(day time.Time, hm string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, hm)
	if err != nil {
		return time.Time{}, httperr.ErrBusinessMsg(httperr.CodeOutOfHours, fmt.Sprintf("Horário inválido: %q.", hm))
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

func (g *Grid) Size() int                 { return g.size }
func (g *Grid) Width() time.Duration      { return g.width }
func (g *Grid) Date() time.Time           { return g.date }
func (g *Grid) DateString() string        { return g.date.Format(DateLayout) }
func (g *Grid) DayStart() time.Time       { return g.start }
func (g *Grid) DayEnd() time.Time         { return g.SlotStart(g.size) }
func (g *Grid) SlotStart(i int) time.Time { return g.start.Add(time.Duration(i) * g.width) }
func (g *Grid) SlotEnd(i int) time.Time   { return g.SlotStart(i + 1) }
func (g *Grid) Label(i int) string        { return g.SlotStart(i).Format(TimeLayout) }

// Index devolve o slot que começa exatamente em t.
func (g *Grid) Index(t time.Time) (int, bool) {
	off := t.Sub(g.start)
	if off < 0 || off%g.width != 0 {
		return 0, false
	}
	i := int(off / g.width)
	if i >= g.size {
		return 0, false
	}
	return i, true
}

// IndexOf converte "HH:mm" em índice de slot.
func (g *Grid) IndexOf(hm string) (int, error) {
	t, err := clock(g.date, hm)
	if err != nil {
		return 0, err
	}
	i, ok := g.Index(t)
	if !ok {
		return 0, httperr.ErrBusinessMsg(httperr.CodeOutOfHours, "Horário fora da grade de atendimento.")
	}
	return i, nil
}

// Span é a quantidade de slots contíguos para uma duração, arredondada para cima.
func (g *Grid) Span(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	n := int(d / g.width)
	if d%g.width != 0 {
		n++
	}
	return n
}

// Fits diz se [start, start+span) cabe inteiro no expediente.
func (g *Grid) Fits(start, span int) bool {
	return start >= 0 && span > 0 && start+span <= g.size
}

// Cover devolve os slots [from, to) tocados pelo intervalo [start, end),
// recortado ao expediente.
func (g *Grid) Cover(start, end time.Time) (from, to int, ok bool) {
	if !end.After(start) {
		return 0, 0, false
	}
	dayEnd := g.DayEnd()
	if !start.Before(dayEnd) || !end.After(g.start) {
		return 0, 0, false
	}

	if start.Before(g.start) {
		start = g.start
	}
	if end.After(dayEnd) {
		end = dayEnd
	}

	from = int(start.Sub(g.start) / g.width)
	rem := end.Sub(g.start)
	to = int(rem / g.width)
	if rem%g.width != 0 {
		to++
	}
	return from, to, from < to
}
