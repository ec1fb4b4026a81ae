package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/audit"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/waitlist"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	"github.com/BruksfildServices01/barber-booking-engine/internal/timezone"
)

// ======================================================
// LIST
// ======================================================

type ListEntries struct {
	catalog appointment.Repository
	repo    waitlist.Repository
}

func NewListEntries(catalog appointment.Repository, repo waitlist.Repository) *ListEntries {
	return &ListEntries{catalog: catalog, repo: repo}
}

// Execute devolve as esperas active/notified do cliente, por data e hora.
func (uc *ListEntries) Execute(
	ctx context.Context,
	barbershopID uint,
	actor access.Actor,
	clientID uint,
) ([]models.WaitlistEntry, error) {

	client, err := resolveClient(ctx, uc.catalog, barbershopID, actor, clientID)
	if err != nil {
		return nil, err
	}
	return uc.repo.ListForClient(ctx, barbershopID, client.ID)
}

// ======================================================
// REMOVE
// ======================================================

type RemoveEntry struct {
	catalog appointment.Repository
	repo    waitlist.Repository
	audit   *audit.Dispatcher
}

func NewRemoveEntry(catalog appointment.Repository, repo waitlist.Repository, audit *audit.Dispatcher) *RemoveEntry {
	return &RemoveEntry{catalog: catalog, repo: repo, audit: audit}
}

func (uc *RemoveEntry) Execute(
	ctx context.Context,
	barbershopID uint,
	actor access.Actor,
	entryID uint,
) error {

	entry, err := uc.repo.GetEntry(ctx, barbershopID, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.ErrBusinessMsg(httperr.CodeNotFound, "Entrada não encontrada.")
		}
		return err
	}

	if !actor.IsAdmin() {
		if !actor.IsCustomer() {
			return httperr.ErrBusiness(httperr.CodeUnauthorized)
		}
		client, err := uc.catalog.GetClientByUser(ctx, barbershopID, actor.UserID)
		if err != nil || client.ID != entry.ClientID {
			return httperr.ErrBusiness(httperr.CodeUnauthorized)
		}
	}

	from := waitlist.Status(entry.Status)
	if !from.Visible() {
		return httperr.ErrBusiness(httperr.CodeInvalidTransition)
	}

	ok, err := uc.repo.UpdateEntryStatus(ctx, entry.ID, from, waitlist.StatusRemoved)
	if err != nil {
		return err
	}
	if !ok {
		return httperr.ErrBusiness(httperr.CodeInvalidTransition)
	}

	var userID *uint
	if actor.UserID != 0 {
		uid := actor.UserID
		userID = &uid
	}
	uc.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       userID,
		Action:       audit.ActionWaitlistRemoved,
		Entity:       "waitlist_entry",
		EntityID:     &entry.ID,
	})
	return nil
}

// ======================================================
// SUMMARY
// ======================================================

const summaryDates = 5

type Summary struct {
	TotalActive int64                `json:"total_active"`
	Dates       []waitlist.DateCount `json:"dates"`
}

type GetSummary struct {
	repo waitlist.Repository
}

func NewGetSummary(repo waitlist.Repository) *GetSummary {
	return &GetSummary{repo: repo}
}

func (uc *GetSummary) Execute(ctx context.Context, barbershopID uint) (*Summary, error) {
	counts, err := uc.repo.SummaryActive(ctx, barbershopID)
	if err != nil {
		return nil, err
	}

	out := &Summary{Dates: []waitlist.DateCount{}}
	for _, c := range counts {
		out.TotalActive += c.Count
	}
	if len(counts) > summaryDates {
		counts = counts[:summaryDates]
	}
	out.Dates = append(out.Dates, counts...)
	return out, nil
}

// ======================================================
// EXPIRE
// ======================================================

type ExpireEntries struct {
	repo waitlist.Repository
	now  func() time.Time
}

func NewExpireEntries(repo waitlist.Repository, now func() time.Time) *ExpireEntries {
	if now == nil {
		now = timezone.Now
	}
	return &ExpireEntries{repo: repo, now: now}
}

// Execute expira, barbearia por barbearia, as entradas ativas de datas
// anteriores ao dia corrente no fuso da barbearia. Uma barbearia com erro
// não impede as demais.
func (uc *ExpireEntries) Execute(ctx context.Context) (int64, error) {
	shops, err := uc.repo.ActiveBarbershops(ctx)
	if err != nil {
		return 0, err
	}

	now := uc.now()
	var total int64
	var errs []error
	for _, shop := range shops {
		today := now.In(timezone.Location(shop.Timezone)).Format("2006-01-02")
		n, err := uc.repo.ExpireBefore(ctx, shop.ID, today)
		if err != nil {
			errs = append(errs, fmt.Errorf("barbershop %d: %w", shop.ID, err))
			continue
		}
		total += n
	}
	return total, errors.Join(errs...)
}
