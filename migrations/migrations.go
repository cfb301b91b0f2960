// Package migrations embeds the SQL schema and applies it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var FS embed.FS

// Unique index names, matched against pq.Error.Constraint
const (
	ProviderSlotIndex = "bookings_provider_slot_active_uidx"
	ClientSlotIndex   = "bookings_client_slot_active_uidx"
	PaymentRefIndex   = "bookings_payment_ref_uidx"
)

var ErrMigrate = errors.New("migrations: apply")

// Up applies all pending migrations. databaseURL is a postgres:// URL.
func Up(databaseURL string) error {
	m, err := newMigrate(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: up: %v", ErrMigrate, err)
	}
	return nil
}

// Down rolls back every migration
func Down(databaseURL string) error {
	m, err := newMigrate(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: down: %v", ErrMigrate, err)
	}
	return nil
}

// Force sets the schema version without running migrations
func Force(databaseURL string, version int) error {
	m, err := newMigrate(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("%w: force %d: %v", ErrMigrate, version, err)
	}
	return nil
}

func newMigrate(databaseURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(FS, ".")
	if err != nil {
		return nil, fmt.Errorf("%w: source: %v", ErrMigrate, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: create migrator: %v", ErrMigrate, err)
	}
	return m, nil
}
