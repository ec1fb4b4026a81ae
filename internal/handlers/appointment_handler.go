package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/slot"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking-engine/internal/scheduling"
	ucappointment "github.com/BruksfildServices01/barber-booking-engine/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	svc *scheduling.Service
}

func NewAppointmentHandler(svc *scheduling.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	// vazio ou 0 = qualquer barbeiro
	BarberID  *uint  `json:"barber_id"`
	ProductID uint   `json:"product_id" binding:"required"`
	Date      string `json:"date" binding:"required"` // YYYY-MM-DD
	Time      string `json:"time" binding:"required"` // HH:mm

	// só para a equipe (balcão)
	ClientID    uint   `json:"client_id"`
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	ClientEmail string `json:"client_email"`

	Notes string `json:"notes" binding:"max=255"`
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeInvalidRequest, err.Error())
		return
	}

	ap, err := h.svc.PlaceBooking(c.Request.Context(), ucappointment.PlaceBookingInput{
		BarbershopID: a.BarbershopID,
		Actor:        a,
		BarberID:     nonZero(req.BarberID),
		ProductID:    req.ProductID,
		Date:         req.Date,
		Time:         req.Time,
		ClientID:     req.ClientID,
		ClientName:   req.ClientName,
		ClientPhone:  req.ClientPhone,
		ClientEmail:  req.ClientEmail,
		Notes:        req.Notes,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, ap)
}

// ======================================================
// STATUS
// ======================================================

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	res, err := h.svc.CancelBooking(c.Request.Context(), a.BarbershopID, id, a)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, res)
}

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	ap, err := h.svc.ConfirmBooking(c.Request.Context(), a.BarbershopID, id, a)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	ap, err := h.svc.CompleteBooking(c.Request.Context(), a.BarbershopID, id, a)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// LIST
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, "missing_date", "Data obrigatória.")
		return
	}

	// só o dia importa; o fuso é o da barbearia
	date, err := time.Parse(slot.DateLayout, dateStr)
	if err != nil {
		httperr.BadRequest(c, httperr.CodeInvalidDate, "Data inválida.")
		return
	}

	barberID, ok := optionalUint(c, "barber_id")
	if !ok {
		return
	}

	out, err := h.svc.ListAppointmentsByDate(c.Request.Context(), a.BarbershopID, a, barberID, date)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, out)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	yearStr := c.Query("year")
	monthStr := c.Query("month")

	if yearStr == "" || monthStr == "" {
		httperr.BadRequest(c, "missing_year_or_month", "Ano e mês são obrigatórios.")
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2100 {
		httperr.BadRequest(c, "invalid_year", "Ano inválido.")
		return
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		httperr.BadRequest(c, "invalid_month", "Mês inválido.")
		return
	}

	barberID, ok := optionalUint(c, "barber_id")
	if !ok {
		return
	}

	out, err := h.svc.ListAppointmentsByMonth(c.Request.Context(), a.BarbershopID, a, barberID, year, month)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":         year,
		"month":        month,
		"appointments": out,
	})
}
