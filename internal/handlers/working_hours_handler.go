package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/audit"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/slot"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

// WorkingHoursHandler mantém o expediente semanal de cada barbeiro.
// Sem linhas cadastradas o barbeiro segue o horário da barbearia.
type WorkingHoursHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewWorkingHoursHandler(db *gorm.DB, audit *audit.Dispatcher) *WorkingHoursHandler {
	return &WorkingHoursHandler{db: db, audit: audit}
}

type WorkingDayConfig struct {
	Weekday    int    `json:"weekday" binding:"min=0,max=6"`
	Active     bool   `json:"active"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	LunchStart string `json:"lunch_start"`
	LunchEnd   string `json:"lunch_end"`
}

type WorkingHoursUpdateRequest struct {
	Days []WorkingDayConfig `json:"days" binding:"required,dive"`
}

// barber carrega o barbeiro da rota; barbeiro só mexe no próprio expediente.
func (h *WorkingHoursHandler) barber(c *gin.Context, a access.Actor) (*models.Barber, bool) {
	id, ok := uintParam(c, "id")
	if !ok {
		return nil, false
	}

	var b models.Barber
	if err := h.db.
		Where("id = ? AND barbershop_id = ?", id, a.BarbershopID).
		First(&b).Error; err != nil {
		httperr.NotFound(c, "barber_not_found", "Barbeiro não encontrado.")
		return nil, false
	}

	if !a.IsAdmin() && (b.UserID == nil || *b.UserID != a.UserID) {
		httperr.Forbidden(c, httperr.CodeUnauthorized, "Só é possível alterar o próprio expediente.")
		return nil, false
	}
	return &b, true
}

func (h *WorkingHoursHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	b, ok := h.barber(c, a)
	if !ok {
		return
	}

	var hours []models.WorkingHours
	if err := h.db.
		Where("barber_id = ?", b.ID).
		Order("weekday ASC").
		Find(&hours).Error; err != nil {

		httperr.Internal(c, "failed_to_get_working_hours", "Erro ao buscar expediente.")
		return
	}

	c.JSON(http.StatusOK, hours)
}

func (h *WorkingHoursHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	b, ok := h.barber(c, a)
	if !ok {
		return
	}

	var req WorkingHoursUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, err.Error())
		return
	}

	seen := map[int]bool{}
	toCreate := make([]models.WorkingHours, 0, len(req.Days))
	for _, d := range req.Days {
		if seen[d.Weekday] {
			httperr.BadRequest(c, httperr.CodeInvalidRequest, "Dia da semana repetido.")
			return
		}
		seen[d.Weekday] = true

		if err := validateWorkingDay(d); err != nil {
			httperr.Respond(c, err)
			return
		}

		toCreate = append(toCreate, models.WorkingHours{
			BarberID:   b.ID,
			Weekday:    d.Weekday,
			Active:     d.Active,
			StartTime:  d.StartTime,
			EndTime:    d.EndTime,
			LunchStart: d.LunchStart,
			LunchEnd:   d.LunchEnd,
		})
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("barber_id = ?", b.ID).Delete(&models.WorkingHours{}).Error; err != nil {
			return err
		}
		if len(toCreate) == 0 {
			return nil
		}
		return tx.Create(&toCreate).Error
	})
	if err != nil {
		httperr.Internal(c, "failed_to_save_working_hours", "Erro ao salvar expediente.")
		return
	}

	h.audit.Dispatch(audit.Event{
		BarbershopID: a.BarbershopID,
		UserID:       userRef(a),
		Action:       audit.ActionWorkingHoursUpdated,
		Entity:       "barber",
		EntityID:     &b.ID,
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// validateWorkingDay exige início < fim e almoço dentro do expediente.
// Dia inativo não precisa de horários.
func validateWorkingDay(d WorkingDayConfig) error {
	if !d.Active {
		return nil
	}

	parse := func(hm string) (time.Time, bool) {
		t, err := time.Parse(slot.TimeLayout, hm)
		return t, err == nil
	}

	start, ok1 := parse(d.StartTime)
	end, ok2 := parse(d.EndTime)
	if !ok1 || !ok2 || !end.After(start) {
		return httperr.ErrBusinessMsg(httperr.CodeInvalidRequest, "Expediente inválido.")
	}

	if d.LunchStart == "" && d.LunchEnd == "" {
		return nil
	}
	ls, ok1 := parse(d.LunchStart)
	le, ok2 := parse(d.LunchEnd)
	if !ok1 || !ok2 || !le.After(ls) || ls.Before(start) || le.After(end) {
		return httperr.ErrBusinessMsg(httperr.CodeInvalidRequest, "Almoço inválido.")
	}
	return nil
}
