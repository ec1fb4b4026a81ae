package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking-engine/internal/scheduling"
	ucwaitlist "github.com/BruksfildServices01/barber-booking-engine/internal/usecase/waitlist"
)

type WaitlistHandler struct {
	svc *scheduling.Service
}

func NewWaitlistHandler(svc *scheduling.Service) *WaitlistHandler {
	return &WaitlistHandler{svc: svc}
}

type JoinWaitlistRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	BarberID  *uint  `json:"barber_id"`
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time" binding:"required"`

	// equipe inscrevendo cliente de balcão
	ClientID uint `json:"client_id"`
}

func (h *WaitlistHandler) Join(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, err.Error())
		return
	}

	entry, err := h.svc.JoinWaitlist(c.Request.Context(), ucwaitlist.JoinInput{
		BarbershopID: a.BarbershopID,
		Actor:        a,
		ClientID:     req.ClientID,
		ProductID:    req.ProductID,
		BarberID:     nonZero(req.BarberID),
		Date:         req.Date,
		Time:         req.Time,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// List mostra as esperas do cliente logado (ou de ?client_id para a equipe).
func (h *WaitlistHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	clientID, ok := optionalUint(c, "client_id")
	if !ok {
		return
	}
	var id uint
	if clientID != nil {
		id = *clientID
	}

	entries, err := h.svc.ListWaitlist(c.Request.Context(), a.BarbershopID, a, id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, entries)
}

func (h *WaitlistHandler) Remove(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.RemoveWaitlistEntry(c.Request.Context(), a.BarbershopID, a, id); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *WaitlistHandler) Summary(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	out, err := h.svc.WaitlistSummary(c.Request.Context(), a.BarbershopID, a)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, out)
}
