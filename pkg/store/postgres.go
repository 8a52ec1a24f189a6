package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codeGROOVE-dev/retry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solvire/fartemis/pkg/candidate"
	"github.com/solvire/fartemis/pkg/linkurl"
)

const schema = `
CREATE TABLE IF NOT EXISTS people (
	id            BIGSERIAL PRIMARY KEY,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	linkedin_url  TEXT UNIQUE,
	linkedin_urn  TEXT UNIQUE,
	email         TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contact_methods (
	person_id  BIGINT NOT NULL REFERENCES people(id),
	kind       TEXT NOT NULL,
	value      TEXT NOT NULL,
	PRIMARY KEY (person_id, kind)
);

CREATE TABLE IF NOT EXISTS source_links (
	person_id  BIGINT NOT NULL REFERENCES people(id),
	url        TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	relevance  DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (person_id, url)
);

CREATE TABLE IF NOT EXISTS company_associations (
	person_id     BIGINT NOT NULL REFERENCES people(id),
	company_name  TEXT NOT NULL,
	job_title     TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT '',
	influence     INT NOT NULL DEFAULT 5,
	status        TEXT NOT NULL DEFAULT 'to_contact',
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (person_id, company_name)
);
`

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// PostgresOption configures a Postgres store.
type PostgresOption func(*Postgres)

// WithPostgresLogger sets the logger.
func WithPostgresLogger(logger *slog.Logger) PostgresOption {
	return func(s *Postgres) { s.logger = logger }
}

// Open connects to Postgres and ensures the schema exists.
func Open(ctx context.Context, dsn string, opts ...PostgresOption) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Postgres{pool: pool, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

// FindOrCreatePerson looks up by URN, then normalized URL, then name, and
// creates the person when nothing matches. A unique-constraint race with
// a concurrent writer is retried once with a fresh lookup before the
// conflict is surfaced.
func (s *Postgres) FindOrCreatePerson(ctx context.Context, key PersonKey, create Person) (PersonID, bool, error) {
	type result struct {
		id      PersonID
		created bool
	}
	res, err := retry.DoWithData(
		func() (result, error) {
			if id, err := s.lookup(ctx, key); err == nil {
				return result{id: id}, nil
			} else if !errors.Is(err, ErrNotFound) {
				return result{}, err
			}
			id, err := s.insertPerson(ctx, create)
			if err != nil {
				return result{}, err
			}
			return result{id: id, created: true}, nil
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.RetryIf(isUniqueViolation),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(_ uint, err error) {
			s.logger.Debug("person insert conflicted, retrying with fresh lookup", "error", err)
		}),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, false, fmt.Errorf("%w: %w", candidate.ErrPersistenceConflict, err)
		}
		return 0, false, err
	}
	return res.id, res.created, nil
}

func (s *Postgres) lookup(ctx context.Context, key PersonKey) (PersonID, error) {
	var id int64
	if key.URN != "" {
		err := s.pool.QueryRow(ctx, `SELECT id FROM people WHERE linkedin_urn = $1`, key.URN).Scan(&id)
		if err == nil {
			return PersonID(id), nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("lookup by urn: %w", err)
		}
	}
	if key.URL != "" {
		err := s.pool.QueryRow(ctx, `SELECT id FROM people WHERE linkedin_url = $1`, linkurl.Normalize(key.URL)).Scan(&id)
		if err == nil {
			return PersonID(id), nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("lookup by url: %w", err)
		}
	}
	if key.FirstName != "" && key.LastName != "" {
		err := s.pool.QueryRow(ctx,
			`SELECT id FROM people WHERE lower(first_name) = lower($1) AND lower(last_name) = lower($2) ORDER BY id LIMIT 1`,
			key.FirstName, key.LastName).Scan(&id)
		if err == nil {
			return PersonID(id), nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("lookup by name: %w", err)
		}
	}
	return 0, ErrNotFound
}

func (s *Postgres) insertPerson(ctx context.Context, p Person) (PersonID, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO people (first_name, last_name, linkedin_url, linkedin_urn, email)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''))
		 RETURNING id`,
		p.FirstName, p.LastName, linkurl.Normalize(p.LinkedInURL), p.LinkedInURN, p.Email).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert person: %w", err)
	}
	return PersonID(id), nil
}

// GetPerson implements Store.
func (s *Postgres) GetPerson(ctx context.Context, id PersonID) (Person, error) {
	var p Person
	err := s.pool.QueryRow(ctx,
		`SELECT first_name, last_name, COALESCE(linkedin_url, ''), COALESCE(linkedin_urn, ''), COALESCE(email, '')
		 FROM people WHERE id = $1`, int64(id)).
		Scan(&p.FirstName, &p.LastName, &p.LinkedInURL, &p.LinkedInURN, &p.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	if err != nil {
		return Person{}, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

// UpsertContactMethod implements Store.
func (s *Postgres) UpsertContactMethod(ctx context.Context, id PersonID, kind, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contact_methods (person_id, kind, value) VALUES ($1, $2, $3)
		 ON CONFLICT (person_id, kind) DO UPDATE SET value = EXCLUDED.value`,
		int64(id), kind, value)
	if err != nil {
		return fmt.Errorf("upsert contact method: %w", err)
	}
	return nil
}

// UpsertSourceLink implements Store.
func (s *Postgres) UpsertSourceLink(ctx context.Context, id PersonID, url, title string, relevance float64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO source_links (person_id, url, title, relevance) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (person_id, url) DO UPDATE SET title = EXCLUDED.title, relevance = EXCLUDED.relevance`,
		int64(id), linkurl.Normalize(url), title, relevance)
	if err != nil {
		return fmt.Errorf("upsert source link: %w", err)
	}
	return nil
}

// UpsertCompanyAssociation implements Store. The existing status column is
// left untouched on update so a worked relationship is never reset to the
// to_contact default.
func (s *Postgres) UpsertCompanyAssociation(ctx context.Context, id PersonID, company string, defaults Association) error {
	status := defaults.Status
	if status == "" {
		status = StatusToContact
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO company_associations (person_id, company_name, job_title, role, influence, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (person_id, company_name) DO UPDATE
		 SET job_title = EXCLUDED.job_title,
		     role = EXCLUDED.role,
		     influence = EXCLUDED.influence,
		     updated_at = now()`,
		int64(id), company, defaults.JobTitle, defaults.Role, defaults.Influence, status)
	if err != nil {
		return fmt.Errorf("upsert company association: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
