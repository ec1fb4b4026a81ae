package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/audit"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	"github.com/BruksfildServices01/barber-booking-engine/internal/timezone"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	db *gorm.DB
}

func NewAuditLogsHandler(db *gorm.DB) *AuditLogsHandler {
	return &AuditLogsHandler{db: db}
}

// Entidades gravadas pela agenda e pelo painel.
var auditEntities = map[string]bool{
	"appointment":    true,
	"waitlist_entry": true,
	"barber":         true,
	"barbershop":     true,
	"product":        true,
}

type auditFilter struct {
	Actions  []string
	Entity   string
	EntityID *uint
	UserID   *uint
	From     *time.Time // inclusivo
	Until    *time.Time // exclusivo (dia seguinte ao "to")
	Page     int
	Limit    int
}

// parseAuditFilter lê a query. Datas são dias no fuso da barbearia.
//
//	?action=appointment_cancelled,waitlist_notified
//	&entity=appointment&entity_id=42&user_id=7
//	&from=2030-06-01&to=2030-06-30&page=2&limit=100
func parseAuditFilter(c *gin.Context, loc *time.Location) (auditFilter, error) {
	f := auditFilter{Page: 1, Limit: 50}

	for _, a := range strings.Split(c.Query("action"), ",") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if !audit.KnownAction(a) {
			return f, errors.New("ação desconhecida: " + a)
		}
		f.Actions = append(f.Actions, a)
	}

	f.Entity = strings.TrimSpace(c.Query("entity"))
	if f.Entity != "" && !auditEntities[f.Entity] {
		return f, errors.New("entidade desconhecida: " + f.Entity)
	}

	var err error
	if f.EntityID, err = queryID(c, "entity_id"); err != nil {
		return f, err
	}
	if f.EntityID != nil && f.Entity == "" {
		return f, errors.New("entity_id exige entity")
	}
	if f.UserID, err = queryID(c, "user_id"); err != nil {
		return f, err
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return f, errors.New("from inválido")
		}
		f.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return f, errors.New("to inválido")
		}
		until := to.AddDate(0, 0, 1)
		f.Until = &until
	}
	if f.From != nil && f.Until != nil && !f.From.Before(*f.Until) {
		return f, errors.New("from depois de to")
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		f.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && limit > 0 && limit <= 200 {
		f.Limit = limit
	}
	return f, nil
}

func queryID(c *gin.Context, name string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, errors.New(name + " inválido")
	}
	id := uint(v)
	return &id, nil
}

func (f auditFilter) apply(q *gorm.DB) *gorm.DB {
	if len(f.Actions) == 1 {
		q = q.Where("action = ?", f.Actions[0])
	} else if len(f.Actions) > 1 {
		q = q.Where("action IN ?", f.Actions)
	}
	if f.Entity != "" {
		q = q.Where("entity = ?", f.Entity)
	}
	if f.EntityID != nil {
		q = q.Where("entity_id = ?", *f.EntityID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.Until != nil {
		q = q.Where("created_at < ?", *f.Until)
	}
	return q
}

func (h *AuditLogsHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var shop models.Barbershop
	if err := h.db.Select("id", "timezone").First(&shop, a.BarbershopID).Error; err != nil {
		httperr.Respond(c, err)
		return
	}

	f, err := parseAuditFilter(c, timezone.Location(shop.Timezone))
	if err != nil {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, err.Error())
		return
	}

	// sempre restrito à barbearia do token
	q := f.apply(h.db.Model(&models.AuditLog{}).Where("barbershop_id = ?", a.BarbershopID))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "audit_count_failed", "Erro ao contar logs.")
		return
	}

	var logs []models.AuditLog
	if err := q.
		Order("created_at DESC, id DESC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&logs).Error; err != nil {

		httperr.Internal(c, "audit_list_failed", "Erro ao listar logs.")
		return
	}

	c.JSON(200, gin.H{
		"page":  f.Page,
		"limit": f.Limit,
		"total": total,
		"logs":  logs,
	})
}
