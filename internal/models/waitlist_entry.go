package models

import "time"

type WaitlistEntry struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BarbershopID uint `gorm:"index" json:"barbershop_id"`

	ClientID uint   `json:"client_id"`
	Client   Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"client"`

	BarberProductID uint          `json:"barber_product_id"`
	BarberProduct   BarberProduct `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"barber_product"`

	// nil = qualquer barbeiro
	BarberID *uint   `json:"barber_id"`
	Barber   *Barber `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"barber,omitempty"`

	Date      string `gorm:"size:10;index:idx_waitlist_slot" json:"date"`      // YYYY-MM-DD
	StartTime string `gorm:"size:5;index:idx_waitlist_slot" json:"start_time"` // HH:mm
	Status    string `gorm:"size:20;default:'active';index" json:"status"`

	NotifiedAt *time.Time `json:"notified_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
