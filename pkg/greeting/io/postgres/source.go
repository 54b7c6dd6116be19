// Package postgres loads people from a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Use pgx via database/sql

	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Table    string `yaml:"table"`
	MaxConns int    `yaml:"max_conns"`
}

const defaultTable = "people"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Source reads every row of the people table on each call.
type Source struct {
	db     *sql.DB
	query  string
	logger *slog.Logger
}

var _ core.RecordSource = (*Source)(nil)

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Source, error) {
	query, err := SelectQuery(cfg.Table)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	} else {
		db.SetMaxOpenConns(4)
	}
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Source{db: db, query: query, logger: logger}, nil
}

// SelectQuery builds the scan query for table. Rows come back in insertion
// order where the table has no explicit ordering column.
func SelectQuery(table string) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		table = defaultTable
	}
	if !identRe.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return fmt.Sprintf(
		"SELECT first_name, last_name, email, date_of_birth FROM %s ORDER BY ctid",
		table,
	), nil
}

func (s *Source) People(ctx context.Context) ([]core.Person, error) {
	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var people []core.Person
	for rows.Next() {
		var (
			first, last, email sql.NullString
			dob                sql.NullTime
		)
		if err := rows.Scan(&first, &last, &email, &dob); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		p := core.Person{
			FirstName: strings.TrimSpace(first.String),
			LastName:  strings.TrimSpace(last.String),
			Email:     strings.TrimSpace(email.String),
		}
		if dob.Valid {
			y, m, d := dob.Time.Date()
			t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
			p.DateOfBirth = &t
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	s.logger.Debug("loaded people from postgres", "count", len(people))
	return people, nil
}

// Close closes the database connection.
func (s *Source) Close() error {
	return s.db.Close()
}
