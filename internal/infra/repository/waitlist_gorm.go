package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/waitlist"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

const waitlistActiveIndex = "uniq_waitlist_active"

type WaitlistGormRepository struct {
	db *gorm.DB
}

func NewWaitlistGormRepository(db *gorm.DB) *WaitlistGormRepository {
	return &WaitlistGormRepository{db: db}
}

// --------------------------------------------------
// Entry
// --------------------------------------------------

func (r *WaitlistGormRepository) InsertEntry(
	ctx context.Context,
	entry *models.WaitlistEntry,
) error {

	err := r.db.WithContext(ctx).Create(entry).Error
	if httperr.IsUniqueViolation(err, waitlistActiveIndex) {
		return httperr.ErrBusiness(httperr.CodeAlreadyWaiting)
	}
	return err
}

func (r *WaitlistGormRepository) GetEntry(
	ctx context.Context,
	barbershopID uint,
	entryID uint,
) (*models.WaitlistEntry, error) {

	var entry models.WaitlistEntry
	if err := r.db.WithContext(ctx).
		Where("id = ? AND barbershop_id = ?", entryID, barbershopID).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *WaitlistGormRepository) ListForClient(
	ctx context.Context,
	barbershopID uint,
	clientID uint,
) ([]models.WaitlistEntry, error) {

	var entries []models.WaitlistEntry
	if err := r.db.WithContext(ctx).
		Preload("BarberProduct").
		Preload("Barber").
		Where(
			"barbershop_id = ? AND client_id = ? AND status IN ?",
			barbershopID, clientID,
			[]string{string(waitlist.StatusActive), string(waitlist.StatusNotified)},
		).
		Order("date ASC, start_time ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// --------------------------------------------------
// Matching
// --------------------------------------------------

func (r *WaitlistGormRepository) ListActiveForSlot(
	ctx context.Context,
	key waitlist.SlotKey,
) ([]models.WaitlistEntry, error) {

	q := r.db.WithContext(ctx).
		Preload("Client").
		Preload("BarberProduct").
		Preload("Barber").
		Where(
			"barbershop_id = ? AND date = ? AND start_time = ? AND status = ?",
			key.BarbershopID, key.Date, key.StartTime, string(waitlist.StatusActive),
		)

	if key.BarberID != nil {
		q = q.Where("(barber_id IS NULL OR barber_id = ?)", *key.BarberID)
	} else {
		q = q.Where("barber_id IS NULL")
	}

	var entries []models.WaitlistEntry
	if err := q.Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *WaitlistGormRepository) MarkNotified(
	ctx context.Context,
	entryID uint,
	at time.Time,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ? AND status = ?", entryID, string(waitlist.StatusActive)).
		Updates(map[string]any{
			"status":      string(waitlist.StatusNotified),
			"notified_at": at,
		})

	return res.RowsAffected > 0, res.Error
}

func (r *WaitlistGormRepository) UpdateEntryStatus(
	ctx context.Context,
	entryID uint,
	from waitlist.Status,
	to waitlist.Status,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ? AND status = ?", entryID, string(from)).
		Update("status", string(to))

	return res.RowsAffected > 0, res.Error
}

func (r *WaitlistGormRepository) RemoveForBooking(
	ctx context.Context,
	barbershopID uint,
	clientID uint,
	date string,
	startTime string,
) (int64, error) {

	res := r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where(
			"barbershop_id = ? AND client_id = ? AND date = ? AND start_time = ? AND status IN ?",
			barbershopID, clientID, date, startTime,
			[]string{string(waitlist.StatusActive), string(waitlist.StatusNotified)},
		).
		Update("status", string(waitlist.StatusRemoved))

	return res.RowsAffected, res.Error
}

func (r *WaitlistGormRepository) ActiveBarbershops(
	ctx context.Context,
) ([]models.Barbershop, error) {

	active := r.db.
		Model(&models.WaitlistEntry{}).
		Select("DISTINCT barbershop_id").
		Where("status = ?", string(waitlist.StatusActive))

	var shops []models.Barbershop
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", active).
		Order("id ASC").
		Find(&shops).Error; err != nil {
		return nil, err
	}
	return shops, nil
}

func (r *WaitlistGormRepository) ExpireBefore(
	ctx context.Context,
	barbershopID uint,
	date string,
) (int64, error) {

	res := r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("barbershop_id = ? AND status = ? AND date < ?", barbershopID, string(waitlist.StatusActive), date).
		Update("status", string(waitlist.StatusExpired))

	return res.RowsAffected, res.Error
}

// --------------------------------------------------
// Summary
// --------------------------------------------------

func (r *WaitlistGormRepository) SummaryActive(
	ctx context.Context,
	barbershopID uint,
) ([]waitlist.DateCount, error) {

	var out []waitlist.DateCount
	if err := r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Select("date, COUNT(*) AS count").
		Where("barbershop_id = ? AND status = ?", barbershopID, string(waitlist.StatusActive)).
		Group("date").
		Order("date ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Compile-time check
var _ waitlist.Repository = (*WaitlistGormRepository)(nil)
