package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

// GetMe devolve o usuário e, quando houver, o barbeiro ou o cliente
// vinculados a ele na barbearia.
func (h *MeHandler) GetMe(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.Preload("Barbershop").First(&user, a.UserID).Error; err != nil {
		httperr.NotFound(c, "user_not_found", "Usuário não encontrado.")
		return
	}

	out := gin.H{
		"user": gin.H{
			"id":            user.ID,
			"name":          user.Name,
			"email":         user.Email,
			"phone":         user.Phone,
			"role":          user.Role,
			"barbershop_id": user.BarbershopID,
		},
		"barbershop": gin.H{
			"id":      user.Barbershop.ID,
			"name":    user.Barbershop.Name,
			"slug":    user.Barbershop.Slug,
			"phone":   user.Barbershop.Phone,
			"address": user.Barbershop.Address,
		},
	}

	var barber models.Barber
	if err := h.db.
		Where("barbershop_id = ? AND user_id = ?", a.BarbershopID, a.UserID).
		First(&barber).Error; err == nil {
		out["barber_id"] = barber.ID
	}

	var client models.Client
	if err := h.db.
		Where("barbershop_id = ? AND user_id = ?", a.BarbershopID, a.UserID).
		First(&client).Error; err == nil {
		out["client_id"] = client.ID
	}

	c.JSON(http.StatusOK, out)
}
