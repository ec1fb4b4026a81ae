package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/middleware"
)

// actor lê o ator autenticado; responde 401 quando ausente.
func actor(c *gin.Context) (access.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		httperr.Unauthorized(c, "user_not_in_context", "Autenticação necessária.")
	}
	return a, ok
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, "Identificador inválido.")
		return 0, false
	}
	return uint(v), true
}

// optionalUint lê um id opcional da query; ausente devolve nil.
func optionalUint(c *gin.Context, name string) (*uint, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, "Parâmetro "+name+" inválido.")
		return nil, false
	}
	id := uint(v)
	return &id, true
}

func nonZero(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}

func userRef(a access.Actor) *uint {
	id := a.UserID
	return &id
}
