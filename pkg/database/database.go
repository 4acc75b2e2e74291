package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/citamed/citamed/internal/config"
	"github.com/citamed/citamed/internal/domain"
	"github.com/citamed/citamed/internal/domain/appointment"
	"github.com/citamed/citamed/internal/domain/doctor"
	"github.com/citamed/citamed/internal/domain/escalation"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	models := []any{
		&domain.User{},
		&domain.AuditLog{},
		&doctor.Doctor{},
		&doctor.Schedule{},
		&appointment.Appointment{},
		&appointment.UrgencyAssessment{},
		&escalation.Escalation{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name  string
		query string
	}{
		// The real double-booking guard: two concurrent inserts for the
		// same free slot both pass the row-locked pre-check (FOR UPDATE on
		// an empty result set locks nothing), so the loser must be stopped
		// here with a 23505 that the repository maps to ErrSlotTaken.
		{
			name:  "ux_appointments_doctor_slot",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS ux_appointments_doctor_slot ON appointments (doctor_id, scheduled_at) WHERE status = 'BOOKED'`,
		},
		{
			name:  "idx_appointments_user_time",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_user_time ON appointments (user_id, scheduled_at DESC)`,
		},
		// Database-level backstop for the one-active-escalation rule; the
		// repository also checks under a row lock, but the partial unique
		// index holds even against writers that bypass it.
		{
			name:  "ux_escalations_one_active",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS ux_escalations_one_active ON emergency_escalations (appointment_id) WHERE status <> 'RESOLVED'`,
		},
		{
			name:  "idx_escalations_pending",
			query: `CREATE INDEX IF NOT EXISTS idx_escalations_pending ON emergency_escalations (created_at) WHERE status = 'PENDING'`,
		},
		{
			name:  "idx_doctors_specialty_load",
			query: `CREATE INDEX IF NOT EXISTS idx_doctors_specialty_load ON doctors (specialty, current_patient_load)`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			return fmt.Errorf("creating index %s: %w", idx.name, err)
		}
	}

	return nil
}
