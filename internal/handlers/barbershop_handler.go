package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/audit"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/slot"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/middleware"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	"github.com/BruksfildServices01/barber-booking-engine/internal/timezone"
)

type BarbershopHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewBarbershopHandler(db *gorm.DB, audit *audit.Dispatcher) *BarbershopHandler {
	return &BarbershopHandler{db: db, audit: audit}
}

type UpdateBarbershopConfigRequest struct {
	MinAdvanceMinutes *int    `json:"min_advance_minutes"`
	Timezone          *string `json:"timezone"`
	OpenTime          *string `json:"open_time"`
	CloseTime         *string `json:"close_time"`
	SlotMinutes       *int    `json:"slot_minutes"`
	ClosedWeekday     *int    `json:"closed_weekday"`
}

func (h *BarbershopHandler) load(c *gin.Context) (*models.Barbershop, bool) {
	barbershopID := c.MustGet(middleware.ContextBarbershopID).(uint)

	var shop models.Barbershop
	if err := h.db.First(&shop, barbershopID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "barbershop_not_found", "Barbearia não encontrada.")
			return nil, false
		}
		httperr.Internal(c, "failed_to_get_barbershop", "Erro ao buscar dados da barbearia.")
		return nil, false
	}
	return &shop, true
}

func (h *BarbershopHandler) GetMeBarbershop(c *gin.Context) {
	shop, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, shop)
}

// UpdateMeBarbershop altera a grade do dia. Reservas já gravadas não são
// revalidadas contra a nova grade.
func (h *BarbershopHandler) UpdateMeBarbershop(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	shop, ok := h.load(c)
	if !ok {
		return
	}

	var req UpdateBarbershopConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, "Dados inválidos na requisição.")
		return
	}

	if req.MinAdvanceMinutes != nil {
		if *req.MinAdvanceMinutes < 0 {
			httperr.BadRequest(c, "invalid_min_advance", "Antecedência mínima deve ser zero ou positiva (em minutos).")
			return
		}
		shop.MinAdvanceMinutes = *req.MinAdvanceMinutes
	}

	if req.Timezone != nil {
		tz := strings.TrimSpace(*req.Timezone)
		if !timezone.IsValid(tz) {
			httperr.BadRequest(c, "invalid_timezone", "Fuso horário inválido.")
			return
		}
		shop.Timezone = tz
	}

	if req.OpenTime != nil {
		shop.OpenTime = strings.TrimSpace(*req.OpenTime)
	}
	if req.CloseTime != nil {
		shop.CloseTime = strings.TrimSpace(*req.CloseTime)
	}
	if req.SlotMinutes != nil {
		shop.SlotMinutes = *req.SlotMinutes
	}
	if req.ClosedWeekday != nil {
		shop.ClosedWeekday = *req.ClosedWeekday
	}

	if err := slot.ConfigFromShop(shop).Validate(); err != nil {
		httperr.Respond(c, err)
		return
	}

	if err := h.db.Save(shop).Error; err != nil {
		httperr.Internal(c, "failed_to_update_barbershop", "Erro ao salvar as configurações da barbearia.")
		return
	}

	h.audit.Dispatch(audit.Event{
		BarbershopID: shop.ID,
		UserID:       userRef(a),
		Action:       audit.ActionBarbershopUpdated,
		Entity:       "barbershop",
		EntityID:     &shop.ID,
		Metadata:     req,
	})

	c.JSON(http.StatusOK, shop)
}
