package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jayrakel/sacco-ledger/internal/domain"
)

// MappingRepository implements usecase.MappingRepository.
type MappingRepository struct {
	pool *pgxpool.Pool
}

// NewMappingRepository creates a new MappingRepository.
func NewMappingRepository(pool *pgxpool.Pool) *MappingRepository {
	return &MappingRepository{pool: pool}
}

// Create creates a new event mapping.
func (r *MappingRepository) Create(ctx context.Context, mapping *domain.EventMapping) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_mappings (event_name, debit_account_code, credit_account_code, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		mapping.EventName,
		mapping.DebitAccountCode,
		mapping.CreditAccountCode,
		mapping.Description,
		timeToPgTimestamptz(mapping.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "event_mappings_pkey") {
			return domain.ErrMappingExists
		}

		return err
	}

	return nil
}

// GetByEvent retrieves the mapping for an event name.
func (r *MappingRepository) GetByEvent(ctx context.Context, eventName string) (*domain.EventMapping, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT event_name, debit_account_code, credit_account_code, description, created_at
		FROM event_mappings
		WHERE event_name = $1`,
		eventName,
	)

	mapping, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnmappedEvent
		}

		return nil, err
	}

	return mapping, nil
}

// List lists all mappings ordered by event name.
func (r *MappingRepository) List(ctx context.Context) ([]*domain.EventMapping, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT event_name, debit_account_code, credit_account_code, description, created_at
		FROM event_mappings
		ORDER BY event_name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []*domain.EventMapping

	for rows.Next() {
		mapping, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}

		mappings = append(mappings, mapping)
	}

	return mappings, rows.Err()
}

func scanMapping(row pgx.Row) (*domain.EventMapping, error) {
	var (
		mapping   domain.EventMapping
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&mapping.EventName,
		&mapping.DebitAccountCode,
		&mapping.CreditAccountCode,
		&mapping.Description,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	mapping.CreatedAt = createdAt.Time

	return &mapping, nil
}
