package repo

import (
	"ImmichDrop/config"
	"ImmichDrop/model"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var Db *gorm.DB

// migrations is the ordered schema list applied once at startup. Each step
// is idempotent, so re-running on an existing state file is safe.
var migrations = []interface{}{
	&model.UploadRecord{},
	&model.Invite{},
	&model.UploadEvent{},
	&model.PlatformCookie{},
}

func migrateAll(db *gorm.DB) error {
	for _, m := range migrations {
		if err := db.AutoMigrate(m); err != nil {
			return err
		}
	}
	return nil
}

// OpenSqlite opens (and migrates) a SQLite state database at the given path
// and assigns it to the package handle.
func OpenSqlite(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("empty state db path")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	// WAL plus a busy timeout so concurrent request handlers do not trip
	// over SQLITE_BUSY on the claim/consume conditional updates.
	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	// One writer at a time keeps SQLite happy under concurrent handlers.
	sqlDB.SetMaxOpenConns(1)

	if err := migrateAll(db); err != nil {
		return err
	}
	Db = db
	return nil
}

// InitSqlite initializes the state database from configuration.
func InitSqlite() {
	if err := OpenSqlite(config.AppConfig.StateDBPath); err != nil {
		log.Fatal("init sqlite fail: ", err)
	}
	log.Println("init sqlite success")
}
