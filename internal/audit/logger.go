package audit

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

// Actions registradas pela agenda.
const (
	ActionAppointmentCreated   = "appointment_created"
	ActionAppointmentConflict  = "appointment_conflict"
	ActionAppointmentConfirmed = "appointment_confirmed"
	ActionAppointmentCompleted = "appointment_completed"
	ActionAppointmentCancelled = "appointment_cancelled"
	ActionWaitlistJoined       = "waitlist_joined"
	ActionWaitlistNotified     = "waitlist_notified"
	ActionWaitlistRemoved      = "waitlist_removed"

	ActionBarbershopUpdated   = "barbershop_updated"
	ActionBarberCreated       = "barber_created"
	ActionBarberUpdated       = "barber_updated"
	ActionWorkingHoursUpdated = "working_hours_updated"
	ActionProductCreated      = "product_created"
	ActionProductUpdated      = "product_updated"
)

var knownActions = map[string]bool{
	ActionAppointmentCreated:   true,
	ActionAppointmentConflict:  true,
	ActionAppointmentConfirmed: true,
	ActionAppointmentCompleted: true,
	ActionAppointmentCancelled: true,
	ActionWaitlistJoined:       true,
	ActionWaitlistNotified:     true,
	ActionWaitlistRemoved:      true,
	ActionBarbershopUpdated:    true,
	ActionBarberCreated:        true,
	ActionBarberUpdated:        true,
	ActionWorkingHoursUpdated:  true,
	ActionProductCreated:       true,
	ActionProductUpdated:       true,
}

func KnownAction(action string) bool { return knownActions[action] }

type Logger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Log(ev Event) error {
	var metaJSON string
	if ev.Metadata != nil {
		if b, err := json.Marshal(ev.Metadata); err == nil {
			metaJSON = string(b)
		}
	}

	log := models.AuditLog{
		BarbershopID: ev.BarbershopID,
		UserID:       ev.UserID,
		Action:       ev.Action,
		Entity:       ev.Entity,
		EntityID:     ev.EntityID,
		Metadata:     metaJSON,
	}

	return l.db.Create(&log).Error
}
