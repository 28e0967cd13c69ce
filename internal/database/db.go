// Package database opens the MySQL connection pool and creates the schema
// the MySQL store expects.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%s", host, port)
	cfg.DBName = name
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Aggregates are stored as JSON documents next to the columns used for
// lookups and locking.  version backs the compare-and-swap in every UPDATE.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS test_centers (
		id             VARCHAR(64)  NOT NULL PRIMARY KEY,
		name           VARCHAR(255) NOT NULL,
		location       VARCHAR(255) NOT NULL,
		normal_vacancy INT          NOT NULL,
		total_vacancy  INT          NOT NULL,
		availability   JSON         NOT NULL,
		history        JSON         NOT NULL,
		version        BIGINT       NOT NULL DEFAULT 1,
		created_at     DATETIME(3)  NOT NULL,
		updated_at     DATETIME(3)  NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS colleges (
		id           VARCHAR(64)  NOT NULL PRIMARY KEY,
		name         VARCHAR(255) NOT NULL,
		exam         JSON         NOT NULL,
		booked_dates JSON         NOT NULL,
		version      BIGINT       NOT NULL DEFAULT 1,
		created_at   DATETIME(3)  NOT NULL,
		updated_at   DATETIME(3)  NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id           VARCHAR(64) NOT NULL PRIMARY KEY,
		college_id   VARCHAR(64) NOT NULL,
		test_centers JSON        NOT NULL,
		version      BIGINT      NOT NULL DEFAULT 1,
		created_at   DATETIME(3) NOT NULL,
		updated_at   DATETIME(3) NOT NULL,
		KEY idx_bookings_college (college_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS students (
		seq        BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		id         VARCHAR(64)  NOT NULL,
		college_id VARCHAR(64)  NOT NULL,
		first_name VARCHAR(255) NOT NULL,
		last_name  VARCHAR(255) NOT NULL,
		email      VARCHAR(255) NOT NULL,
		dob        DATE         NULL,
		fields     JSON         NULL,
		created_at DATETIME(3)  NOT NULL,
		UNIQUE KEY uq_students_id (id),
		KEY idx_students_college (college_id, seq)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS student_assignments (
		id               VARCHAR(64)  NOT NULL PRIMARY KEY,
		run_id           VARCHAR(64)  NOT NULL,
		student_id       VARCHAR(64)  NOT NULL,
		college_id       VARCHAR(64)  NOT NULL,
		test_center_id   VARCHAR(64)  NOT NULL,
		test_center_name VARCHAR(255) NOT NULL,
		location         VARCHAR(255) NOT NULL,
		exam_date        DATE         NOT NULL,
		slot             VARCHAR(64)  NOT NULL,
		regno            CHAR(13)     NOT NULL,
		email_status     ENUM('pending','sent','failed') NOT NULL DEFAULT 'pending',
		assigned_at      DATETIME(3)  NOT NULL,
		seq              INT          NOT NULL,
		UNIQUE KEY uq_assignments_regno (college_id, regno),
		KEY idx_assignments_student (student_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing table.  It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
