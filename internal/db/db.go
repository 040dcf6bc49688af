package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            nickname TEXT NOT NULL,
            avatar TEXT DEFAULT '',
            phone_number TEXT DEFAULT '',
            full_name TEXT DEFAULT '',
            id_card_number TEXT DEFAULT '',
            driver_license_number TEXT DEFAULT '',
            created_at TIMESTAMPTZ DEFAULT NOW(),
            updated_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS vehicles (
            id SERIAL PRIMARY KEY,
            owner_id INT NOT NULL REFERENCES users(id),
            title TEXT NOT NULL,
            brand TEXT NOT NULL,
            model TEXT NOT NULL,
            year INT NOT NULL,
            color TEXT DEFAULT '',
            vehicle_type TEXT DEFAULT '',
            vehicle_registration_id TEXT NOT NULL,
            price_per_day BIGINT NOT NULL,
            city TEXT DEFAULT '',
            district TEXT DEFAULT '',
            ward TEXT DEFAULT '',
            address TEXT DEFAULT '',
            time_pickup_start TEXT DEFAULT '',
            time_pickup_end TEXT DEFAULT '',
            time_return_start TEXT DEFAULT '',
            time_return_end TEXT DEFAULT '',
            hidden BOOLEAN DEFAULT FALSE,
            created_at TIMESTAMPTZ DEFAULT NOW(),
            updated_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS rentals (
            id SERIAL PRIMARY KEY,
            vehicle_id INT NOT NULL REFERENCES vehicles(id),
            renter_id INT NOT NULL REFERENCES users(id),
            vehicle_owner_id INT NOT NULL REFERENCES users(id),
            renter_phone_number TEXT DEFAULT '',
            status TEXT NOT NULL,
            start_datetime TIMESTAMPTZ NOT NULL,
            end_datetime TIMESTAMPTZ NOT NULL,
            total_days INT NOT NULL,
            daily_price BIGINT NOT NULL,
            total_price BIGINT NOT NULL,
            deposit_price BIGINT NOT NULL,
            status_workflow_history JSONB NOT NULL DEFAULT '[]',
            created_at TIMESTAMPTZ DEFAULT NOW(),
            updated_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_rentals_vehicle_period
            ON rentals (vehicle_id, start_datetime, end_datetime);`,
		`CREATE TABLE IF NOT EXISTS contracts (
            id UUID PRIMARY KEY,
            rental_id INT NOT NULL REFERENCES rentals(id),
            contract_status TEXT NOT NULL,
            renter_status TEXT NOT NULL,
            owner_status TEXT NOT NULL,
            payload JSONB NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW(),
            updated_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_contracts_rental ON contracts (rental_id);`,
		`CREATE TABLE IF NOT EXISTS chat_sessions (
            id SERIAL PRIMARY KEY,
            sender_id INT NOT NULL REFERENCES users(id),
            receiver_id INT NOT NULL REFERENCES users(id),
            created_at TIMESTAMPTZ DEFAULT NOW(),
            UNIQUE(sender_id, receiver_id)
        );`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
            id SERIAL PRIMARY KEY,
            session_id INT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
            type TEXT NOT NULL DEFAULT 'text',
            content TEXT NOT NULL,
            sender_id INT NOT NULL,
            receiver_id INT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages (session_id, created_at);`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
