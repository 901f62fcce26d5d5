package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	apperrors "github.com/rendezvous-csd/rendezvous-api/pkg/errors"
	"github.com/rendezvous-csd/rendezvous-api/pkg/logger"
	"github.com/rendezvous-csd/rendezvous-api/pkg/metrics"
	"go.uber.org/zap"
)

// ImportRepository writes ingested spreadsheet rows
type ImportRepository struct {
	db Querier
}

// NewImportRepository creates a new ImportRepository
func NewImportRepository(db Querier) *ImportRepository {
	return &ImportRepository{db: db}
}

// insertQuery builds the positional INSERT for a target. Identifiers come from
// the fixed target definition and are quoted; values are always bound.
func insertQuery(target models.ImportTarget) string {
	columns := make([]string, len(target.Columns))
	placeholders := make([]string, len(target.Columns))
	for i, col := range target.Columns {
		columns[i] = pgx.Identifier{col}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		pgx.Identifier{target.Table}.Sanitize(),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
}

// InsertRow inserts one row; values are matched to target.Columns by position
func (r *ImportRepository) InsertRow(ctx context.Context, target models.ImportTarget, values []any) error {
	if len(values) != len(target.Columns) {
		return fmt.Errorf("%s expects %d values, got %d", target.Table, len(target.Columns), len(values))
	}

	start := time.Now()
	operation := "insert_" + target.Table

	_, err := r.db.Exec(ctx, insertQuery(target), values...)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		metrics.RecordDBOperation(operation, "error", duration)
		logger.LogAPICall(ctx, "postgres", operation, "error", duration, zap.Error(err))
		return apperrors.StorageError("insert "+target.Table, err)
	}

	metrics.RecordDBOperation(operation, "success", duration)
	logger.Debug("Row inserted", zap.String("table", target.Table), zap.Float64("duration", duration))
	return nil
}
