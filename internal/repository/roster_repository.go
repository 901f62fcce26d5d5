package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	apperrors "github.com/rendezvous-csd/rendezvous-api/pkg/errors"
	"github.com/rendezvous-csd/rendezvous-api/pkg/logger"
	"github.com/rendezvous-csd/rendezvous-api/pkg/metrics"
	"github.com/rendezvous-csd/rendezvous-api/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// RosterRepository answers whether an email is on a role's roster
type RosterRepository struct {
	db Querier
}

// NewRosterRepository creates a new RosterRepository
func NewRosterRepository(db Querier) *RosterRepository {
	return &RosterRepository{db: db}
}

// Lookup returns the stored email of the first roster record matching email.
// A miss is (false, nil); only query failures return an error.
func (r *RosterRepository) Lookup(ctx context.Context, role models.Role, email string) (string, bool, error) {
	table := role.Table()
	if table == "" {
		return "", false, fmt.Errorf("role %q has no roster", role)
	}

	ctx, span := tracing.StartSpan(ctx, "roster.lookup", attribute.String("db.sql.table", table))
	defer span.End()

	start := time.Now()
	operation := "rosterLookup"

	query := fmt.Sprintf(`SELECT email FROM %s WHERE email = $1 LIMIT 1`, pgx.Identifier{table}.Sanitize())

	var canonical string
	err := r.db.QueryRow(ctx, query, email).Scan(&canonical)
	duration := metrics.MeasureDuration(start)

	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordDBOperation(operation, "not_found", duration)
		logger.LogAPICall(ctx, "postgres", operation, "not_found", duration, zap.String("table", table))
		return "", false, nil
	}
	if err != nil {
		span.RecordError(err)
		metrics.RecordDBOperation(operation, "error", duration)
		logger.LogAPICall(ctx, "postgres", operation, "error", duration,
			zap.String("table", table),
			zap.Error(err),
		)
		return "", false, apperrors.StorageError("roster lookup", err)
	}

	metrics.RecordDBOperation(operation, "success", duration)
	logger.LogAPICall(ctx, "postgres", operation, "success", duration, zap.String("table", table))

	return canonical, true, nil
}
