package waitlist

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/audit"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/waitlist"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	ucappointment "github.com/BruksfildServices01/barber-booking-engine/internal/usecase/appointment"
)

type JoinInput struct {
	BarbershopID uint
	Actor        access.Actor

	// Equipe pode inscrever um cliente de balcão.
	ClientID uint

	ProductID uint
	BarberID  *uint // nil = qualquer barbeiro
	Date      string
	Time      string
}

type JoinWaitlist struct {
	catalog appointment.Repository
	repo    waitlist.Repository
	audit   *audit.Dispatcher
	now     func() time.Time
}

func NewJoinWaitlist(
	catalog appointment.Repository,
	repo waitlist.Repository,
	audit *audit.Dispatcher,
	now func() time.Time,
) *JoinWaitlist {
	if now == nil {
		now = time.Now
	}
	return &JoinWaitlist{catalog: catalog, repo: repo, audit: audit, now: now}
}

func (uc *JoinWaitlist) Execute(
	ctx context.Context,
	in JoinInput,
) (*models.WaitlistEntry, error) {

	info, err := ucappointment.ValidateSlot(
		ctx, uc.catalog, uc.now(),
		in.BarbershopID, in.Date, in.Time, in.ProductID, in.BarberID,
	)
	if err != nil {
		return nil, err
	}

	client, err := resolveClient(ctx, uc.catalog, in.BarbershopID, in.Actor, in.ClientID)
	if err != nil {
		return nil, err
	}

	entry := &models.WaitlistEntry{
		BarbershopID:    in.BarbershopID,
		ClientID:        client.ID,
		BarberProductID: info.Product.ID,
		Date:            info.Date(),
		StartTime:       info.Time(),
		Status:          string(waitlist.StatusActive),
	}
	if info.Barber != nil {
		id := info.Barber.ID
		entry.BarberID = &id
	}

	if err := uc.repo.InsertEntry(ctx, entry); err != nil {
		return nil, err
	}

	entry.Client = *client
	entry.BarberProduct = *info.Product
	entry.Barber = info.Barber

	uc.audit.Dispatch(audit.Event{
		BarbershopID: in.BarbershopID,
		Action:       audit.ActionWaitlistJoined,
		Entity:       "waitlist_entry",
		EntityID:     &entry.ID,
		Metadata:     map[string]string{"date": entry.Date, "time": entry.StartTime},
	})

	return entry, nil
}

// resolveClient: cliente logado só age por si; equipe indica o cliente.
func resolveClient(
	ctx context.Context,
	catalog appointment.Repository,
	barbershopID uint,
	actor access.Actor,
	clientID uint,
) (*models.Client, error) {

	var (
		c   *models.Client
		err error
	)

	switch {
	case actor.IsCustomer():
		c, err = catalog.GetClientByUser(ctx, barbershopID, actor.UserID)
	case actor.IsStaff() && clientID != 0:
		c, err = catalog.GetClient(ctx, barbershopID, clientID)
	default:
		return nil, httperr.ErrBusinessMsg(httperr.CodeInvalidRequest, "Informe o cliente.")
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.ErrBusinessMsg(httperr.CodeNotFound, "Cliente não encontrado.")
	}
	return c, err
}
