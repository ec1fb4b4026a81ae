package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking-engine/internal/infra/memory"
	"github.com/BruksfildServices01/barber-booking-engine/internal/lock"
	"github.com/BruksfildServices01/barber-booking-engine/internal/middleware"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	"github.com/BruksfildServices01/barber-booking-engine/internal/scheduling"
)

// Domingo; as reservas caem na segunda 2030-06-03.
var testNow = time.Date(2030, 6, 2, 8, 0, 0, 0, time.UTC)

const testDate = "2030-06-03"

type env struct {
	t       *testing.T
	store   *memory.Store
	svc     *scheduling.Service
	shop    models.Barbershop
	barbers []models.Barber
	beard   models.BarberProduct
	admin   access.Actor
	ana     access.Actor
	beto    access.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	e := &env{t: t, store: store}

	e.shop = store.AddBarbershop(models.Barbershop{
		Name:              "Barbearia Central",
		Slug:              "central",
		Timezone:          "UTC",
		MinAdvanceMinutes: 120,
		OpenTime:          "09:00",
		CloseTime:         "20:00",
		SlotMinutes:       30,
		ClosedWeekday:     int(time.Sunday),
	})

	for i, name := range []string{"Rafa", "Léo"} {
		uid := uint(100 + i)
		e.barbers = append(e.barbers, store.AddBarber(models.Barber{
			BarbershopID: e.shop.ID,
			UserID:       &uid,
			Name:         name,
			Active:       true,
		}))
	}

	e.beard = store.AddProduct(models.BarberProduct{
		BarbershopID: e.shop.ID, Name: "Barba", DurationMin: 30, Active: true,
	})

	e.admin = access.Actor{UserID: 1, BarbershopID: e.shop.ID, Role: access.RoleAdmin}
	e.ana = e.customer(501, "Ana")
	e.beto = e.customer(502, "Beto")

	e.svc = scheduling.New(scheduling.Deps{
		Appointments: store,
		Waitlist:     store,
		Locker:       lock.NewLocal(time.Second),
		Log:          zap.NewNop(),
		Now:          func() time.Time { return testNow },
		BookingURL:   "https://agenda.example.com/central",
	})
	return e
}

func (e *env) customer(uid uint, name string) access.Actor {
	e.store.AddClient(models.Client{
		BarbershopID: e.shop.ID,
		UserID:       &uid,
		Name:         name,
		Email:        name + "@example.com",
	})
	return access.Actor{UserID: uid, BarbershopID: e.shop.ID, Role: access.RoleCustomer}
}

// router monta as rotas com o ator já injetado, sem JWT.
func (e *env) router(as access.Actor, register func(r gin.IRoutes)) *gin.Engine {
	r := gin.New()
	g := r.Group("/")
	g.Use(func(c *gin.Context) {
		c.Set(middleware.ContextActor, as)
		c.Set(middleware.ContextBarbershopID, as.BarbershopID)
		c.Set(middleware.ContextUserID, as.UserID)
		c.Next()
	})
	register(g)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"error_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body.Code
}
