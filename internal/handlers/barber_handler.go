package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/audit"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

// BarberHandler administra os barbeiros (recursos agendáveis) da barbearia.
type BarberHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewBarberHandler(db *gorm.DB, audit *audit.Dispatcher) *BarberHandler {
	return &BarberHandler{db: db, audit: audit}
}

// --------- Requests ---------

// Com email+password o barbeiro ganha login próprio (role barber).
type CreateBarberRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=6"`
	Phone    string `json:"phone"`

	// vincula o próprio dono como barbeiro
	LinkSelf bool `json:"link_self"`
}

type UpdateBarberRequest struct {
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// --------- Handlers ---------

func (h *BarberHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	q := h.db.Where("barbershop_id = ?", a.BarbershopID)
	switch strings.TrimSpace(c.Query("active")) {
	case "true":
		q = q.Where("active = ?", true)
	case "false":
		q = q.Where("active = ?", false)
	}

	var barbers []models.Barber
	if err := q.Preload("WorkingHours").Order("id ASC").Find(&barbers).Error; err != nil {
		httperr.Internal(c, "failed_to_list_barbers", "Erro ao listar barbeiros.")
		return
	}

	c.JSON(http.StatusOK, barbers)
}

func (h *BarberHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req CreateBarberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if (email == "") != (req.Password == "") {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, "Informe e-mail e senha juntos.")
		return
	}
	if req.LinkSelf && email != "" {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, "Use link_self ou e-mail, não ambos.")
		return
	}

	barber := models.Barber{
		BarbershopID: a.BarbershopID,
		Name:         strings.TrimSpace(req.Name),
		Active:       true,
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		switch {
		case req.LinkSelf:
			barber.UserID = userRef(a)

		case email != "":
			if err := ensureEmailFree(tx, email); err != nil {
				return err
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user := models.User{
				BarbershopID: a.BarbershopID,
				Name:         barber.Name,
				Email:        email,
				PasswordHash: string(hashed),
				Phone:        req.Phone,
				Role:         string(access.RoleBarber),
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			barber.UserID = &user.ID
		}

		return tx.Create(&barber).Error
	})
	if errors.Is(err, errEmailTaken) {
		httperr.BadRequest(c, "email_already_exists", "E-mail já cadastrado.")
		return
	}
	if err != nil {
		httperr.Internal(c, "failed_to_create_barber", "Erro ao cadastrar barbeiro.")
		return
	}

	h.audit.Dispatch(audit.Event{
		BarbershopID: a.BarbershopID,
		UserID:       userRef(a),
		Action:       audit.ActionBarberCreated,
		Entity:       "barber",
		EntityID:     &barber.ID,
	})

	c.JSON(http.StatusCreated, barber)
}

// Update troca nome ou ativa/desativa. Desativar não cancela reservas já
// feitas; o barbeiro só some das próximas disponibilidades.
func (h *BarberHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var barber models.Barber
	if err := h.db.
		Where("id = ? AND barbershop_id = ?", id, a.BarbershopID).
		First(&barber).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "barber_not_found", "Barbeiro não encontrado.")
			return
		}
		httperr.Internal(c, "failed_to_get_barber", "Erro ao buscar barbeiro.")
		return
	}

	var req UpdateBarberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, err.Error())
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			httperr.BadRequest(c, httperr.CodeInvalidRequest, "Nome obrigatório.")
			return
		}
		barber.Name = name
	}
	if req.Active != nil {
		barber.Active = *req.Active
	}

	if err := h.db.Save(&barber).Error; err != nil {
		httperr.Internal(c, "failed_to_update_barber", "Erro ao salvar barbeiro.")
		return
	}

	h.audit.Dispatch(audit.Event{
		BarbershopID: a.BarbershopID,
		UserID:       userRef(a),
		Action:       audit.ActionBarberUpdated,
		Entity:       "barber",
		EntityID:     &barber.ID,
		Metadata:     req,
	})

	c.JSON(http.StatusOK, barber)
}
