package models

import "time"

type Barbershop struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	Name              string `gorm:"size:100;not null" json:"name"`
	Slug              string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Phone             string `gorm:"size:20" json:"phone"`
	Address           string `gorm:"size:255" json:"address"`
	Timezone          string `gorm:"size:64" json:"timezone"`
	MinAdvanceMinutes int    `gorm:"default:120" json:"min_advance_minutes"`

	// Grade do dia (HH:mm) e largura do slot
	OpenTime      string `gorm:"size:5;default:'09:00'" json:"open_time"`
	CloseTime     string `gorm:"size:5;default:'20:00'" json:"close_time"`
	SlotMinutes   int    `gorm:"default:30" json:"slot_minutes"`
	ClosedWeekday int    `gorm:"default:0" json:"closed_weekday"` // -1 = sem folga

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
