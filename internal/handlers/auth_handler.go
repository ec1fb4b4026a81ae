package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/config"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/slot"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	"github.com/BruksfildServices01/barber-booking-engine/internal/timezone"
	"github.com/BruksfildServices01/barber-booking-engine/internal/validators"
)

type AuthHandler struct {
	db     *gorm.DB
	config *config.Config

	// troca a checagem de DNS nos testes
	checkEmail func(string) bool
	now        func() time.Time
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		db:         db,
		config:     cfg,
		checkEmail: validators.IsEmailDomainValid,
		now:        time.Now,
	}
}

// --------- Requests ---------

type RegisterRequest struct {
	BarbershopName    string `json:"barbershop_name" binding:"required"`
	BarbershopSlug    string `json:"barbershop_slug" binding:"required"`
	BarbershopPhone   string `json:"barbershop_phone"`
	BarbershopAddress string `json:"barbershop_address"`
	Timezone          string `json:"timezone"`

	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
}

type CustomerSignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

var errEmailTaken = errors.New("email already registered")

// --------- Handlers ---------

// Register cria a barbearia e o usuário administrador juntos.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, err.Error())
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.BarbershopSlug))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if !h.checkEmail(email) {
		httperr.BadRequest(c, "invalid_email_domain", "O domínio do e-mail informado não parece ser válido.")
		return
	}

	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = timezone.DefaultTimezone
	}
	if !timezone.IsValid(tz) {
		httperr.BadRequest(c, "invalid_timezone", "Fuso horário inválido.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Erro ao processar a senha.")
		return
	}

	var count int64
	h.db.Model(&models.Barbershop{}).Where("slug = ?", slug).Count(&count)
	if count > 0 {
		httperr.BadRequest(c, "slug_already_exists", "Este endereço já está em uso.")
		return
	}

	shop := models.Barbershop{
		Name:              req.BarbershopName,
		Slug:              slug,
		Phone:             req.BarbershopPhone,
		Address:           req.BarbershopAddress,
		Timezone:          tz,
		MinAdvanceMinutes: 120,
		OpenTime:          slot.DefaultOpen,
		CloseTime:         slot.DefaultClose,
		SlotMinutes:       slot.DefaultSlotMinutes,
		ClosedWeekday:     int(time.Sunday),
	}

	user := models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hashed),
		Phone:        req.Phone,
		Role:         string(access.RoleAdmin),
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := ensureEmailFree(tx, email); err != nil {
			return err
		}
		if err := tx.Create(&shop).Error; err != nil {
			return err
		}
		user.BarbershopID = shop.ID
		return tx.Create(&user).Error
	})
	if errors.Is(err, errEmailTaken) {
		httperr.BadRequest(c, "email_already_exists", "E-mail já cadastrado.")
		return
	}
	if err != nil {
		httperr.Internal(c, "failed_to_register", "Erro ao criar a barbearia.")
		return
	}

	h.respondWithToken(c, http.StatusCreated, &user, &shop)
}

// RegisterCustomer cadastra um cliente com login na barbearia do slug.
func (h *AuthHandler) RegisterCustomer(c *gin.Context) {
	var req CustomerSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, err.Error())
		return
	}

	var shop models.Barbershop
	if err := h.db.Where("slug = ?", c.Param("slug")).First(&shop).Error; err != nil {
		httperr.NotFound(c, "barbershop_not_found", "Barbearia não encontrada.")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !h.checkEmail(email) {
		httperr.BadRequest(c, "invalid_email_domain", "O domínio do e-mail informado não parece ser válido.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Erro ao processar a senha.")
		return
	}

	user := models.User{
		BarbershopID: shop.ID,
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hashed),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         string(access.RoleCustomer),
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := ensureEmailFree(tx, email); err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		// reaproveita o cadastro de balcão com o mesmo telefone
		var client models.Client
		q := tx.Where("barbershop_id = ? AND user_id IS NULL AND phone = ?", shop.ID, user.Phone)
		if user.Phone != "" && q.First(&client).Error == nil {
			return tx.Model(&client).Updates(map[string]any{
				"user_id": user.ID,
				"email":   email,
			}).Error
		}

		return tx.Create(&models.Client{
			BarbershopID: shop.ID,
			UserID:       &user.ID,
			Name:         user.Name,
			Phone:        user.Phone,
			Email:        email,
		}).Error
	})
	if errors.Is(err, errEmailTaken) {
		httperr.BadRequest(c, "email_already_exists", "E-mail já cadastrado.")
		return
	}
	if err != nil {
		httperr.Internal(c, "failed_to_register", "Erro ao criar o cadastro.")
		return
	}

	h.respondWithToken(c, http.StatusCreated, &user, &shop)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.db.Preload("Barbershop").
		Where("email = ?", email).
		First(&user).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Unauthorized(c, "invalid_credentials", "E-mail ou senha inválidos.")
			return
		}
		httperr.Internal(c, "internal_error", "Erro interno.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.Unauthorized(c, "invalid_credentials", "E-mail ou senha inválidos.")
		return
	}

	h.respondWithToken(c, http.StatusOK, &user, &user.Barbershop)
}

func ensureEmailFree(tx *gorm.DB, email string) error {
	var n int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return errEmailTaken
	}
	return nil
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User, shop *models.Barbershop) {
	token, err := h.generateToken(user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Erro ao gerar o token.")
		return
	}

	c.JSON(status, gin.H{
		"user": gin.H{
			"id":            user.ID,
			"name":          user.Name,
			"email":         user.Email,
			"phone":         user.Phone,
			"role":          user.Role,
			"barbershop_id": user.BarbershopID,
		},
		"barbershop": gin.H{
			"id":      shop.ID,
			"name":    shop.Name,
			"slug":    shop.Slug,
			"phone":   shop.Phone,
			"address": shop.Address,
		},
		"token": token,
	})
}

// --------- JWT ---------

func (h *AuthHandler) generateToken(user *models.User) (string, error) {
	now := h.now()
	claims := jwt.MapClaims{
		"sub":          user.ID,
		"barbershopId": user.BarbershopID,
		"role":         user.Role,
		"exp":          now.Add(24 * time.Hour).Unix(),
		"iat":          now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.config.JWTSecret))
}
