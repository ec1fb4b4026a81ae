package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/config"
	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

// Sem sobreposição por barbeiro entre agendamentos ativos. É a última
// barreira caso o lock de aplicação falhe (ex.: dois processos com
// LOCK_BACKEND=local).
const appointmentOverlapConstraint = `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint WHERE conname = 'appointments_no_overlap'
	) THEN
		ALTER TABLE appointments
		ADD CONSTRAINT appointments_no_overlap
		EXCLUDE USING gist (
			barber_id WITH =,
			tstzrange(start_time, end_time, '[)') WITH &&
		)
		WHERE (barber_id IS NOT NULL AND status IN ('pending', 'confirmed'));
	END IF;
END
$$;`

// Uma entrada ativa por (cliente, serviço, horário, barbeiro); barber_id
// nulo conta como "qualquer".
const waitlistActiveIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS uniq_waitlist_active
ON waitlist_entries (
	barbershop_id, client_id, barber_product_id, date, start_time, COALESCE(barber_id, 0)
)
WHERE status = 'active';`

func NewDB(cfg *config.Config, log *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get sql.DB", zap.Error(err))
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db); err != nil {
		log.Fatal("failed to migrate", zap.Error(err))
	}

	res := db.Exec(`
        UPDATE barbershops
        SET timezone = 'America/Sao_Paulo'
        WHERE timezone IS NULL OR timezone = ''
    `)
	if res.Error != nil {
		log.Warn("timezone backfill failed", zap.Error(res.Error))
	}

	return db
}

// Migrate cria as tabelas e as constraints que o gorm não expressa.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Barbershop{},
		&models.User{},
		&models.Barber{},
		&models.BarberProduct{},
		&models.WorkingHours{},
		&models.Client{},
		&models.Appointment{},
		&models.WaitlistEntry{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	// ordem importa: a constraint depende da extensão
	steps := []struct{ name, sql string }{
		{"btree_gist", `CREATE EXTENSION IF NOT EXISTS btree_gist`},
		{"appointments_no_overlap", appointmentOverlapConstraint},
		{"uniq_waitlist_active", waitlistActiveIndex},
	}
	for _, st := range steps {
		if err := db.Exec(st.sql).Error; err != nil {
			return fmt.Errorf("%s: %w", st.name, err)
		}
	}
	return nil
}
