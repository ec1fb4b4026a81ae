package models

import "time"

// Barber é o recurso agendável. Desativar esconde o barbeiro das
// próximas disponibilidades sem cancelar o que já foi marcado.
type Barber struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BarbershopID uint `gorm:"index" json:"barbershop_id"`

	UserID *uint  `gorm:"index" json:"user_id"`
	Name   string `gorm:"size:100;not null" json:"name"`
	Active bool   `gorm:"default:true" json:"active"`

	WorkingHours []WorkingHours `gorm:"foreignKey:BarberID" json:"working_hours,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
