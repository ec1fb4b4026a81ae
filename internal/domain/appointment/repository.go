package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

type Repository interface {
	// -------- Barbershop --------
	GetBarbershopByID(
		ctx context.Context,
		id uint,
	) (*models.Barbershop, error)

	GetBarbershopBySlug(
		ctx context.Context,
		slug string,
	) (*models.Barbershop, error)

	// -------- Product --------
	GetProduct(
		ctx context.Context,
		barbershopID uint,
		productID uint,
	) (*models.BarberProduct, error)

	// -------- Barber --------
	ListActiveBarbers(
		ctx context.Context,
		barbershopID uint,
	) ([]models.Barber, error)

	GetBarber(
		ctx context.Context,
		barbershopID uint,
		barberID uint,
	) (*models.Barber, error)

	ListWorkingHours(
		ctx context.Context,
		barberIDs []uint,
	) ([]models.WorkingHours, error)

	// -------- Client --------
	GetClient(
		ctx context.Context,
		barbershopID uint,
		clientID uint,
	) (*models.Client, error)

	GetClientByUser(
		ctx context.Context,
		barbershopID uint,
		userID uint,
	) (*models.Client, error)

	GetOrCreateClient(
		ctx context.Context,
		barbershopID uint,
		name string,
		phone string,
		email string,
	) (*models.Client, error)

	// -------- Appointment (create / conflict) --------

	// ListActiveAppointments devolve pending/confirmed que tocam [start, end).
	ListActiveAppointments(
		ctx context.Context,
		barbershopID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	// CreateAppointmentIfFree grava apenas se o barbeiro continuar livre no
	// intervalo; caso contrário devolve slot_conflict.
	CreateAppointmentIfFree(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// -------- Appointment (state change) --------
	GetAppointment(
		ctx context.Context,
		barbershopID uint,
		appointmentID uint,
	) (*models.Appointment, error)

	// TransitionStatus troca from -> to só se o status atual ainda for from.
	TransitionStatus(
		ctx context.Context,
		appointmentID uint,
		from Status,
		to Status,
		at time.Time,
	) error

	// -------- Listing --------
	ListAppointmentsForPeriod(
		ctx context.Context,
		barbershopID uint,
		barberID *uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)
}
