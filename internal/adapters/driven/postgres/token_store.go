package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/agentllm/agentllm-core/internal/core/domain"
	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
)

// TokenStore is the PostgreSQL implementation of driven.TokenStore. Each
// registered service maps to its own table; SQL is built from the static
// registry, so identifiers never come from caller input. Encrypted fields
// pass through the FieldCodec on the way in and out.
type TokenStore struct {
	db       *DB
	codec    *FieldCodec
	registry *domain.TokenTypeRegistry
}

// NewTokenStore creates a TokenStore over an initialized database.
func NewTokenStore(db *DB, codec *FieldCodec, registry *domain.TokenTypeRegistry) *TokenStore {
	return &TokenStore{db: db, codec: codec, registry: registry}
}

var _ driven.TokenStore = (*TokenStore)(nil)

func (s *TokenStore) Upsert(ctx context.Context, service, userID string, fields map[string]string) error {
	cfg, err := s.registry.Lookup(service)
	if err != nil {
		return err
	}
	if userID == "" {
		return fmt.Errorf("%w: empty user id", domain.ErrValidation)
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields to store", domain.ErrValidation)
	}

	// Validate everything before touching the row so a partially bad
	// payload leaves the stored record untouched.
	names := make([]string, 0, len(fields))
	for name := range fields {
		if !cfg.HasField(name) {
			return fmt.Errorf("%w: unknown field %q for service %q", domain.ErrValidation, name, service)
		}
		names = append(names, name)
	}

	columns := []string{"user_id"}
	values := []any{userID}
	for _, name := range names {
		value := fields[name]
		if cfg.IsEncrypted(name) {
			value, err = s.codec.EncryptField(value)
			if err != nil {
				return fmt.Errorf("encrypting %s.%s: %w", service, name, err)
			}
		}
		columns = append(columns, name)
		values = append(values, value)
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pq.QuoteIdentifier(col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	// Only the supplied columns are overwritten on conflict; the insert
	// and update branches resolve atomically for concurrent first writes.
	updates := make([]string, 0, len(names)+1)
	for _, name := range names {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", pq.QuoteIdentifier(name), pq.QuoteIdentifier(name)))
	}
	updates = append(updates, "updated_at = now()")

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (user_id) DO UPDATE SET %s",
		pq.QuoteIdentifier(cfg.Table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("upserting %s token: %w", service, err)
	}
	return nil
}

func (s *TokenStore) Get(ctx context.Context, service, userID string) (map[string]string, error) {
	cfg, err := s.registry.Lookup(service)
	if err != nil {
		return nil, err
	}

	quoted := make([]string, len(cfg.Fields))
	for i, name := range cfg.Fields {
		quoted[i] = pq.QuoteIdentifier(name)
	}
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE user_id = $1",
		strings.Join(quoted, ", "),
		pq.QuoteIdentifier(cfg.Table),
	)

	scanned := make([]sql.NullString, len(cfg.Fields))
	dest := make([]any, len(cfg.Fields))
	for i := range scanned {
		dest[i] = &scanned[i]
	}

	err = s.db.QueryRowContext(ctx, query, userID).Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s token: %w", service, err)
	}

	fields := make(map[string]string, len(cfg.Fields))
	for i, name := range cfg.Fields {
		if !scanned[i].Valid {
			continue
		}
		value := scanned[i].String
		if cfg.IsEncrypted(name) && value != "" {
			value, err = s.codec.DecryptField(value)
			if err != nil {
				return nil, fmt.Errorf("decrypting %s.%s for user %s: %w", service, name, userID, err)
			}
		}
		fields[name] = value
	}
	return fields, nil
}

func (s *TokenStore) Delete(ctx context.Context, service, userID string) (bool, error) {
	cfg, err := s.registry.Lookup(service)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE user_id = $1", pq.QuoteIdentifier(cfg.Table))
	res, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("deleting %s token: %w", service, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting %s token: %w", service, err)
	}
	return n > 0, nil
}

// DeleteAllForUser removes the user's rows from every registered table
// inside one transaction, so a failure partway leaves all records in place.
func (s *TokenStore) DeleteAllForUser(ctx context.Context, userID string) ([]string, error) {
	var deleted []string
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, service := range s.registry.Services() {
			cfg, err := s.registry.Lookup(service)
			if err != nil {
				return err
			}
			query := fmt.Sprintf("DELETE FROM %s WHERE user_id = $1", pq.QuoteIdentifier(cfg.Table))
			res, err := tx.ExecContext(ctx, query, userID)
			if err != nil {
				return fmt.Errorf("deleting %s token: %w", service, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("deleting %s token: %w", service, err)
			}
			if n > 0 {
				deleted = append(deleted, service)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *TokenStore) ListUsers(ctx context.Context, service string) ([]string, error) {
	cfg, err := s.registry.Lookup(service)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT user_id FROM %s ORDER BY updated_at DESC", pq.QuoteIdentifier(cfg.Table))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing %s users: %w", service, err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scanning %s user: %w", service, err)
		}
		users = append(users, userID)
	}
	return users, rows.Err()
}

func (s *TokenStore) ListServicesForUser(ctx context.Context, userID string) ([]string, error) {
	var services []string
	for _, service := range s.registry.Services() {
		cfg, err := s.registry.Lookup(service)
		if err != nil {
			return nil, err
		}
		query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE user_id = $1)", pq.QuoteIdentifier(cfg.Table))

		var exists bool
		if err := s.db.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("checking %s record: %w", service, err)
		}
		if exists {
			services = append(services, service)
		}
	}
	return services, nil
}

func (s *TokenStore) Summaries(ctx context.Context, service string) ([]domain.TokenSummary, error) {
	cfg, err := s.registry.Lookup(service)
	if err != nil {
		return nil, err
	}

	quoted := make([]string, len(cfg.Fields))
	for i, name := range cfg.Fields {
		quoted[i] = pq.QuoteIdentifier(name)
	}
	query := fmt.Sprintf(
		"SELECT user_id, %s, created_at, updated_at FROM %s ORDER BY updated_at DESC",
		strings.Join(quoted, ", "),
		pq.QuoteIdentifier(cfg.Table),
	)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing %s tokens: %w", service, err)
	}
	defer rows.Close()

	var summaries []domain.TokenSummary
	for rows.Next() {
		var (
			userID               string
			createdAt, updatedAt time.Time
		)
		scanned := make([]sql.NullString, len(cfg.Fields))
		dest := make([]any, 0, len(cfg.Fields)+3)
		dest = append(dest, &userID)
		for i := range scanned {
			dest = append(dest, &scanned[i])
		}
		dest = append(dest, &createdAt, &updatedAt)

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning %s token: %w", service, err)
		}

		// Ciphertext stands in for encrypted values: SummariseToken only
		// uses them for presence, never for display.
		fields := make(map[string]string, len(cfg.Fields))
		for i, name := range cfg.Fields {
			if scanned[i].Valid {
				fields[name] = scanned[i].String
			}
		}
		summaries = append(summaries, domain.SummariseToken(cfg, userID, fields, createdAt, updatedAt))
	}
	return summaries, rows.Err()
}
