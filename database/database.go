package database

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"bloem/models"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the database described by the DB_* environment variables and
// stores the handle in the package-level DB used by the controllers.
func Connect() {
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	name := os.Getenv("DB_NAME")
	sslmode := os.Getenv("DB_SSLMODE")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, pass, name, port, sslmode,
	)

	db, err := Open(dsn)
	if err != nil {
		log.Fatal("❌ Failed to connect to database: ", err)
	}

	DB = db
	log.Println("✅ Connected to database")

	autoMigrateEnv := os.Getenv("DB_AUTO_MIGRATE")
	autoMigrate, err := strconv.ParseBool(autoMigrateEnv)
	if err != nil && autoMigrateEnv != "" {
		log.Printf("⚠️  Invalid value for DB_AUTO_MIGRATE: %s", autoMigrateEnv)
	}

	if autoMigrate {
		log.Println("🟡 Starting auto-migration...")
		if err := Migrate(DB); err != nil {
			log.Fatal("❌ Failed to auto-migrate database: ", err)
		}
		log.Println("✅ Auto migration completed")
	}
}

// Open opens a GORM connection for the given DSN. Postgres DSNs are the
// production path; anything else (":memory:", file paths) opens sqlite, which
// is what the tests use.
func Open(dsn string) (*gorm.DB, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, fmt.Errorf("database: empty dsn")
	}
	if isPostgresDSN(trimmed) {
		return gorm.Open(postgres.Open(trimmed), &gorm.Config{})
	}
	return openSQLite(trimmed)
}

func openSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("database: open sqlite: %w", err)
	}
	// An in-memory database exists per connection; pin the pool to one so
	// every caller sees the same database.
	if strings.Contains(dsn, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database: open sqlite sql: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func isPostgresDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") ||
		strings.HasPrefix(lower, "postgresql://") ||
		strings.Contains(lower, "host=") ||
		strings.Contains(lower, "dbname=")
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Merchant{},
		&models.Customer{},
		&models.PointLedgerEntry{},
		&models.PaymentCode{},
		&models.Transaction{},
	)
}
