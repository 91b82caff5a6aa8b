// File: internal/database/database.go
package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/iyunix/go-medreport/internal/repository/chat"
	"github.com/iyunix/go-medreport/internal/repository/message"
	"github.com/iyunix/go-medreport/internal/repository/report"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to DATABASE_URL. postgres:// and postgresql:// URLs use the
// postgres driver; sqlite:// URLs and bare paths use sqlite.
func Open(databaseURL string, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(level)}

	dialector, isSQLite := dialectorFor(databaseURL)
	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if isSQLite {
		// sqlite allows a single writer; serialising avoids SQLITE_BUSY under
		// concurrent analysis jobs.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

func dialectorFor(databaseURL string) (gorm.Dialector, bool) {
	lower := strings.ToLower(databaseURL)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return postgres.Open(databaseURL), false
	}
	return sqlite.Open(SQLitePath(databaseURL)), true
}

// SQLitePath turns sqlite URLs into a driver path. "sqlite:///./x.db" and
// "sqlite://./x.db" are relative, "sqlite:////abs/x.db" is absolute.
func SQLitePath(databaseURL string) string {
	path := databaseURL
	if strings.HasPrefix(strings.ToLower(path), "sqlite://") {
		path = path[len("sqlite://"):]
		if strings.HasPrefix(path, "/") {
			path = path[1:]
		}
	}
	if path == "" {
		return ":memory:"
	}
	return path
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	for name, migrate := range map[string]func(*gorm.DB) error{
		"reports":  report.Migrate,
		"chats":    chat.Migrate,
		"messages": message.Migrate,
	} {
		if err := migrate(db); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", name, err)
		}
	}
	return nil
}
