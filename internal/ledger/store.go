package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/pinehill-dev/pinehill/internal/config"
	"github.com/pinehill-dev/pinehill/internal/model"
)

var (
	// ErrNotFound is returned when a keyed lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation is returned when a write breaks a unique or
	// foreign key constraint.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrInvalid is returned when a row fails validation before it is written.
	ErrInvalid = errors.New("invalid record")
)

// ValidationErrors lists every invariant a rejected row violates. It matches
// ErrInvalid under errors.Is.
type ValidationErrors []model.ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, ve := range v {
		msgs[i] = ve.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() error { return ErrInvalid }

// Store is the ledger of units, tenants, payments and expenses. It is created
// once at startup and shared by reference; a Store obtained inside
// Transaction is bound to that transaction.
type Store struct {
	db     *gorm.DB
	driver string
}

// Open connects to the ledger database described by cfg.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("getting sqlite handle: %w", err)
		}
		// SQLite has a single writer; one connection keeps foreign key
		// enforcement and transactions on the same handle.
		sqlDB.SetMaxOpenConns(1)
	}

	return &Store{db: db, driver: cfg.Driver}, nil
}

// sqliteDSN turns a file path into a DSN with foreign keys enforced.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Migrate creates or updates the ledger schema.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&model.Unit{}, &model.Tenant{}, &model.Payment{}, &model.Expense{}); err != nil {
		return fmt.Errorf("migrating ledger schema: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting database handle: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Transaction runs fn against a Store bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, driver: s.driver})
	})
}

// Snapshot runs read-only fn against one consistent view of the ledger.
func (s *Store) Snapshot(ctx context.Context, fn func(tx *Store) error) error {
	var opts []*sql.TxOptions
	if s.driver == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, driver: s.driver})
	}, opts...)
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// upsert inserts value or, when its primary key exists, replaces every column.
func (s *Store) upsert(ctx context.Context, value any) error {
	return s.conn(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(value).Error
}

// forUpdate locks selected rows on databases that support row locks.
func (s *Store) forUpdate(db *gorm.DB) *gorm.DB {
	if s.driver == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "constraint failed") || strings.Contains(msg, "SQLSTATE 23") {
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	return err
}

func validation(errs []model.ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return ValidationErrors(errs)
}
