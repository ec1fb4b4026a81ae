// Package lock serializa decisões de reserva por chave (barbearia, dia,
// barbeiro). Quem chama recebe uma função de liberação; se a espera passar
// do limite a chamada devolve timeout e nada foi travado.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
)

type Release func()

type Locker interface {
	Lock(ctx context.Context, key string) (Release, error)
}

// BookingKey é a chave de serialização de um barbeiro num dia.
func BookingKey(barbershopID uint, date string, barberID uint) string {
	return fmt.Sprintf("booking:%d:%s:%d", barbershopID, date, barberID)
}

// DayKey serializa pedidos "qualquer barbeiro" de um dia inteiro. Sempre
// tomada antes de qualquer BookingKey do mesmo dia.
func DayKey(barbershopID uint, date string) string {
	return fmt.Sprintf("booking-day:%d:%s", barbershopID, date)
}

// WaitlistKey protege o casamento da fila de um slot liberado.
func WaitlistKey(barbershopID uint, date, startTime string) string {
	return fmt.Sprintf("waitlist:%d:%s:%s", barbershopID, date, startTime)
}

func errTimeout(key string, wait time.Duration) error {
	return httperr.ErrBusinessMsg(
		httperr.CodeTimeout,
		fmt.Sprintf("Agenda ocupada, tente novamente. (%s após %s)", key, wait),
	)
}
