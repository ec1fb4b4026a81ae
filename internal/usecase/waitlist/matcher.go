package waitlist

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking-engine/internal/audit"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/waitlist"
	"github.com/BruksfildServices01/barber-booking-engine/internal/lock"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
	"github.com/BruksfildServices01/barber-booking-engine/internal/notify"
)

// Freed descreve a capacidade liberada por um cancelamento.
type Freed struct {
	BarbershopID   uint
	BarbershopName string
	Date           string
	Starts         []string // inícios de slot liberados (HH:mm)
	BarberID       *uint    // nil = reserva sem barbeiro
}

type Report struct {
	Matched  int `json:"matched"`
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// Matcher avisa a fila de um slot liberado. Avisar não segura a vaga: o
// slot continua aberto para quem reservar primeiro.
type Matcher struct {
	repo       waitlist.Repository
	locker     lock.Locker
	dispatcher notify.Dispatcher
	audit      *audit.Dispatcher
	log        *zap.Logger
	now        func() time.Time
	bookingURL string
}

func NewMatcher(
	repo waitlist.Repository,
	locker lock.Locker,
	dispatcher notify.Dispatcher,
	audit *audit.Dispatcher,
	log *zap.Logger,
	now func() time.Time,
	bookingURL string,
) *Matcher {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{
		repo:       repo,
		locker:     locker,
		dispatcher: dispatcher,
		audit:      audit,
		log:        log,
		now:        now,
		bookingURL: strings.TrimSpace(bookingURL),
	}
}

// Match nunca devolve erro: falhas ficam no log e no relatório.
func (m *Matcher) Match(ctx context.Context, f Freed) Report {
	var rep Report
	for _, start := range f.Starts {
		m.matchSlot(ctx, f, start, &rep)
	}

	m.log.Info("waitlist match finished",
		zap.Uint("barbershop_id", f.BarbershopID),
		zap.String("date", f.Date),
		zap.Strings("starts", f.Starts),
		zap.Int("matched", rep.Matched),
		zap.Int("notified", rep.Notified),
		zap.Int("failed", rep.Failed),
		zap.Int("skipped", rep.Skipped),
	)
	return rep
}

func (m *Matcher) matchSlot(ctx context.Context, f Freed, start string, rep *Report) {
	release, err := m.locker.Lock(ctx, lock.WaitlistKey(f.BarbershopID, f.Date, start))
	if err != nil {
		m.log.Warn("waitlist lock failed", zap.String("date", f.Date), zap.String("start", start), zap.Error(err))
		rep.Failed++
		return
	}
	defer release()

	entries, err := m.repo.ListActiveForSlot(ctx, waitlist.SlotKey{
		BarbershopID: f.BarbershopID,
		Date:         f.Date,
		StartTime:    start,
		BarberID:     f.BarberID,
	})
	if err != nil {
		m.log.Warn("waitlist query failed", zap.String("date", f.Date), zap.String("start", start), zap.Error(err))
		rep.Failed++
		return
	}

	for i := range entries {
		rep.Matched++
		m.notifyEntry(ctx, f, &entries[i], rep)
	}
}

func (m *Matcher) notifyEntry(ctx context.Context, f Freed, e *models.WaitlistEntry, rep *Report) {
	email := strings.TrimSpace(e.Client.Email)
	if email == "" {
		m.log.Info("waitlist entry without email, skipped",
			zap.Uint("entry_id", e.ID),
			zap.Uint("client_id", e.ClientID),
		)
		rep.Skipped++
		return
	}

	msg := notify.SlotOpened{
		EntryID:        e.ID,
		BarbershopName: f.BarbershopName,
		ClientName:     e.Client.Name,
		Email:          email,
		ServiceName:    e.BarberProduct.Name,
		Date:           e.Date,
		StartTime:      e.StartTime,
		BookingURL:     m.link(e),
	}
	if e.Barber != nil {
		msg.BarberName = e.Barber.Name
	}

	if err := m.dispatcher.Send(ctx, msg); err != nil {
		m.log.Warn("waitlist dispatch failed",
			zap.Uint("entry_id", e.ID),
			zap.Uint("client_id", e.ClientID),
			zap.Error(err),
		)
		rep.Failed++
		return
	}

	ok, err := m.repo.MarkNotified(ctx, e.ID, m.now())
	if err != nil {
		m.log.Warn("waitlist mark notified failed",
			zap.Uint("entry_id", e.ID),
			zap.Error(err),
		)
		rep.Failed++
		return
	}
	if !ok {
		// saiu de active entre a leitura e agora (removida pelo cliente)
		rep.Skipped++
		return
	}

	rep.Notified++
	m.audit.Dispatch(audit.Event{
		BarbershopID: f.BarbershopID,
		Action:       audit.ActionWaitlistNotified,
		Entity:       "waitlist_entry",
		EntityID:     &e.ID,
		Metadata:     map[string]string{"date": e.Date, "time": e.StartTime},
	})
}

func (m *Matcher) link(e *models.WaitlistEntry) string {
	if m.bookingURL == "" {
		return ""
	}
	q := url.Values{}
	q.Set("date", e.Date)
	q.Set("time", e.StartTime)
	q.Set("product_id", fmt.Sprint(e.BarberProductID))
	if e.BarberID != nil {
		q.Set("barber_id", fmt.Sprint(*e.BarberID))
	}
	sep := "?"
	if strings.Contains(m.bookingURL, "?") {
		sep = "&"
	}
	return m.bookingURL + sep + q.Encode()
}
