// Package conflict decide se um intervalo de slots pode ser reservado
// dado um retrato de ocupação. É puro: não trava nada e não grava nada.
package conflict

import (
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/slot"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
)

// Constraint é a preferência de barbeiro do pedido.
type Constraint struct {
	barberID uint
	specific bool
}

func Any() Constraint                   { return Constraint{} }
func Specific(barberID uint) Constraint { return Constraint{barberID: barberID, specific: true} }

// FromPtr trata nil como "qualquer barbeiro".
func FromPtr(barberID *uint) Constraint {
	if barberID == nil || *barberID == 0 {
		return Any()
	}
	return Specific(*barberID)
}

func (c Constraint) IsAny() bool { return !c.specific }

func (c Constraint) BarberID() (uint, bool) { return c.barberID, c.specific }

// Ptr devolve nil para "qualquer barbeiro".
func (c Constraint) Ptr() *uint {
	if !c.specific {
		return nil
	}
	id := c.barberID
	return &id
}

type Outcome int

const (
	Available Outcome = iota
	Conflict
	AvailableWith
	FullyBooked
)

func (o Outcome) String() string {
	switch o {
	case Available:
		return "available"
	case Conflict:
		return "conflict"
	case AvailableWith:
		return "available_with"
	case FullyBooked:
		return "fully_booked"
	}
	return "unknown"
}

type Request struct {
	Start      int
	Span       int
	Constraint Constraint
}

type Result struct {
	Outcome    Outcome
	BarberID   uint
	Candidates []uint
}

func (r Result) OK() bool { return r.Outcome == Available || r.Outcome == AvailableWith }

// Detect verifica o pedido contra a ocupação. Para um barbeiro específico
// devolve Available ou Conflict; para qualquer barbeiro devolve os
// candidatos livres em todo o intervalo ou FullyBooked.
func Detect(occ *slot.Occupancy, req Request) (Result, error) {
	if req.Span <= 0 {
		return Result{}, httperr.ErrBusiness(httperr.CodeInvalidDuration)
	}
	if !occ.Grid().Fits(req.Start, req.Span) {
		return Result{}, httperr.ErrBusiness(httperr.CodeOutOfHours)
	}

	if id, ok := req.Constraint.BarberID(); ok {
		if !occ.Has(id) {
			return Result{}, httperr.ErrBusiness(httperr.CodeInvalidResource)
		}
		if occ.Busy(id, req.Start, req.Span) {
			return Result{Outcome: Conflict, BarberID: id}, nil
		}
		return Result{Outcome: Available, BarberID: id}, nil
	}

	free := occ.Free(req.Start, req.Span)

	// cada reserva sem barbeiro consome um dos livres
	if len(free) <= occ.Unassigned(req.Start, req.Span) {
		return Result{Outcome: FullyBooked}, nil
	}
	return Result{Outcome: AvailableWith, Candidates: free}, nil
}
