package waitlist

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

// SlotKey identifica o slot liberado por um cancelamento.
type SlotKey struct {
	BarbershopID uint
	Date         string // YYYY-MM-DD
	StartTime    string // HH:mm
	BarberID     *uint
}

// DateCount alimenta o resumo do painel.
type DateCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type Repository interface {
	// InsertEntry devolve already_waiting se o cliente já tiver entrada
	// ativa para o mesmo serviço, data, horário e barbeiro.
	InsertEntry(ctx context.Context, entry *models.WaitlistEntry) error

	// ListActiveForSlot: entradas ativas do horário. Com barbeiro, casa
	// quem aceita qualquer um ou pediu esse; sem barbeiro, só quem aceita
	// qualquer um. Client, BarberProduct e Barber vêm carregados.
	ListActiveForSlot(ctx context.Context, key SlotKey) ([]models.WaitlistEntry, error)

	// MarkNotified só afeta entradas ainda ativas; false se já foi.
	MarkNotified(ctx context.Context, entryID uint, at time.Time) (bool, error)

	GetEntry(ctx context.Context, barbershopID, entryID uint) (*models.WaitlistEntry, error)

	ListForClient(ctx context.Context, barbershopID, clientID uint) ([]models.WaitlistEntry, error)

	UpdateEntryStatus(ctx context.Context, entryID uint, from, to Status) (bool, error)

	// RemoveForBooking tira da fila as entradas ativas do cliente que a
	// reserva acabou de atender.
	RemoveForBooking(ctx context.Context, barbershopID, clientID uint, date, startTime string) (int64, error)

	// ActiveBarbershops lista as barbearias com alguma entrada ativa.
	ActiveBarbershops(ctx context.Context) ([]models.Barbershop, error)

	// ExpireBefore expira entradas ativas da barbearia com data anterior a
	// date (calendário da barbearia).
	ExpireBefore(ctx context.Context, barbershopID uint, date string) (int64, error)

	SummaryActive(ctx context.Context, barbershopID uint) ([]DateCount, error)
}
