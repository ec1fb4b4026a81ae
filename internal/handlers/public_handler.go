package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/barber-booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	"github.com/BruksfildServices01/barber-booking-engine/internal/scheduling"
	ucappointment "github.com/BruksfildServices01/barber-booking-engine/internal/usecase/appointment"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

type PublicHandler struct {
	db   *gorm.DB
	repo domain.Repository
	svc  *scheduling.Service
}

func NewPublicHandler(db *gorm.DB, repo domain.Repository, svc *scheduling.Service) *PublicHandler {
	return &PublicHandler{db: db, repo: repo, svc: svc}
}

type PublicBarber struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func (h *PublicHandler) shop(c *gin.Context) (*models.Barbershop, bool) {
	shop, err := h.repo.GetBarbershopBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		httperr.NotFound(c, "barbershop_not_found", "Barbearia não encontrada.")
		return nil, false
	}
	return shop, true
}

////////////////////////////////////////////////////////
// PRODUCTS
////////////////////////////////////////////////////////

func (h *PublicHandler) ListProducts(c *gin.Context) {
	shop, ok := h.shop(c)
	if !ok {
		return
	}

	category := strings.TrimSpace(strings.ToLower(c.Query("category")))
	query := strings.TrimSpace(strings.ToLower(c.Query("query")))

	q := h.db.
		Where("barbershop_id = ? AND active = true", shop.ID)

	if category != "" {
		q = q.Where("LOWER(category) = ?", category)
	}

	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var products []models.BarberProduct
	if err := q.Order("id ASC").Find(&products).Error; err != nil {
		httperr.Internal(c, "failed_to_list_products", "Erro ao listar produtos.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"barbershop": shop,
		"products":   products,
	})
}

////////////////////////////////////////////////////////
// BARBERS
////////////////////////////////////////////////////////

func (h *PublicHandler) ListBarbers(c *gin.Context) {
	shop, ok := h.shop(c)
	if !ok {
		return
	}

	barbers, err := h.repo.ListActiveBarbers(c.Request.Context(), shop.ID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	out := make([]PublicBarber, 0, len(barbers))
	for _, b := range barbers {
		out = append(out, PublicBarber{ID: b.ID, Name: b.Name})
	}

	c.JSON(http.StatusOK, gin.H{"barbers": out})
}

////////////////////////////////////////////////////////
// AVAILABILITY
////////////////////////////////////////////////////////

// Availability devolve a visão agregada do dia e, por barbeiro, os
// inícios que comportam o serviço pedido.
func (h *PublicHandler) Availability(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, "missing_params", "Data obrigatória.")
		return
	}

	var productID uint64
	if raw := c.Query("product_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httperr.BadRequest(c, "invalid_product_id", "Serviço inválido.")
			return
		}
		productID = v
	}

	barberID, ok := optionalUint(c, "barber_id")
	if !ok {
		return
	}

	shop, ok := h.shop(c)
	if !ok {
		return
	}

	out, err := h.svc.GetAvailability(c.Request.Context(), ucappointment.AvailabilityInput{
		BarbershopID: shop.ID,
		Date:         dateStr,
		ProductID:    uint(productID),
		BarberID:     barberID,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}
