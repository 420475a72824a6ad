package postgres

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

const auditInsert = `
	INSERT INTO audit_logs (
		id, user_id, action, resource_type, resource_id, request_id,
		before_state, after_state, status, error_message, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Create writes an audit row outside any transaction.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.create(ctx, r.pool, log)
}

// CreateTx writes an audit row inside the caller's transaction.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return r.create(ctx, txQuerier(tx), log)
}

func (r *AuditRepository) create(ctx context.Context, q querier, log *domain.AuditLog) error {
	before, err := marshalJSON(log.BeforeState)
	if err != nil {
		return err
	}

	after, err := marshalJSON(log.AfterState)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, auditInsert,
		log.ID,
		log.UserID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.RequestID,
		before,
		after,
		log.Status,
		log.ErrorMessage,
		timeToPgTimestamptz(log.CreatedAt),
	)

	return err
}

// List queries audit rows with optional filters.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, user_id, action, resource_type, resource_id, request_id,
			before_state, after_state, status, error_message, created_at
		FROM audit_logs
		WHERE 1=1`

	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		query += " AND " + clause + "$" + strconv.Itoa(len(args))
	}

	if filter.UserID != "" {
		add("user_id = ", filter.UserID)
	}

	if filter.Action != "" {
		add("action = ", filter.Action)
	}

	if filter.ResourceType != "" {
		add("resource_type = ", filter.ResourceType)
	}

	if filter.ResourceID != "" {
		add("resource_id = ", filter.ResourceID)
	}

	if filter.StartDate != nil {
		add("created_at >= ", timeToPgTimestamptz(*filter.StartDate))
	}

	if filter.EndDate != nil {
		add("created_at <= ", timeToPgTimestamptz(*filter.EndDate))
	}

	limit, offset := domain.ValidatePagination(filter.Limit, filter.Offset)

	args = append(args, limit, offset)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog

	for rows.Next() {
		var (
			log       domain.AuditLog
			before    []byte
			after     []byte
			createdAt pgtype.Timestamptz
		)

		err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.Action,
			&log.ResourceType,
			&log.ResourceID,
			&log.RequestID,
			&before,
			&after,
			&log.Status,
			&log.ErrorMessage,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		if len(before) > 0 {
			_ = json.Unmarshal(before, &log.BeforeState)
		}

		if len(after) > 0 {
			_ = json.Unmarshal(after, &log.AfterState)
		}

		log.CreatedAt = createdAt.Time

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

func marshalJSON(j domain.JSON) ([]byte, error) {
	if j == nil {
		return nil, nil
	}

	return json.Marshal(j)
}
