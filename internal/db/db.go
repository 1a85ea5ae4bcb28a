package db

import (
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lojf/ministry/internal/models"
)

// DefaultDSN enables WAL, a busy timeout and foreign keys.
const DefaultDSN = "ministry.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

var conn *gorm.DB

// Init opens the process-wide connection used by cmd/server.
func Init(dsn string, level logger.LogLevel) error {
	gdb, err := Open(dsn, level)
	if err != nil {
		return err
	}
	conn = gdb
	log.Println("database ready (sqlite)")
	return nil
}

func Conn() *gorm.DB {
	return conn
}

// Open connects to dsn and migrates the schema.
func Open(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	// This also serializes check-in and payment transactions.
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, errors.Wrap(err, "sql db")
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

// Migrate creates tables and the composite indexes GORM does not derive
// from struct tags.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(models.All()...); err != nil {
		return errors.Wrap(err, "auto-migrate")
	}
	for _, stmt := range []string{
		"CREATE INDEX IF NOT EXISTS idx_attendance_org_session ON attendances(organization_id, session_id)",
		"CREATE INDEX IF NOT EXISTS idx_payment_org_enrollment ON payments(organization_id, enrollment_id)",
	} {
		if err := gdb.Exec(stmt).Error; err != nil {
			return errors.Wrap(err, "create index")
		}
	}
	return nil
}
