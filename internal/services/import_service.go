package services

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	apperrors "github.com/rendezvous-csd/rendezvous-api/pkg/errors"
	"github.com/rendezvous-csd/rendezvous-api/pkg/logger"
	"github.com/rendezvous-csd/rendezvous-api/pkg/metrics"
	"github.com/rendezvous-csd/rendezvous-api/pkg/spreadsheet"
	"github.com/rendezvous-csd/rendezvous-api/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ImportService turns uploaded workbooks into rows of an import target.
//
// The first data row's keys fix the column order; each row's values are taken
// in that order and matched to the target's columns by position, never by
// header name. Rows are inserted one at a time with no enclosing transaction:
// the first failing row stops the import and rows before it stay committed.
type ImportService struct {
	rows     RowInserter
	archiver UploadArchiver
}

// NewImportService creates a new ImportService. archiver may be nil.
func NewImportService(rows RowInserter, archiver UploadArchiver) *ImportService {
	return &ImportService{
		rows:     rows,
		archiver: archiver,
	}
}

// Ingest parses data and inserts every data row into target
func (s *ImportService) Ingest(ctx context.Context, target models.ImportTarget, fileName string, data []byte) (*models.ImportReport, error) {
	ctx, span := tracing.StartSpan(ctx, "import.ingest", attribute.String("import.table", target.Table))
	defer span.End()

	report := &models.ImportReport{Target: target.Name}
	report.ArchiveKey = s.archive(ctx, target, fileName, data)

	sheet, err := spreadsheet.Parse(bytes.NewReader(data))
	if err != nil {
		metrics.ImportRequests.WithLabelValues(target.Table, "parse_failed").Inc()
		return nil, err
	}

	if err := checkColumnOrder(sheet.Rows, target); err != nil {
		metrics.ImportRequests.WithLabelValues(target.Table, "parse_failed").Inc()
		return nil, err
	}

	keys := sheet.Rows[0].Keys
	span.SetAttributes(attribute.Int("import.rows", len(sheet.Rows)))

	for i, row := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(target, report, i+1, err)
		}

		report.Attempted++
		if err := s.rows.InsertRow(ctx, target, rowValues(row, keys)); err != nil {
			span.RecordError(err)
			return nil, s.fail(target, report, i+1, err)
		}
		report.Succeeded++
	}

	metrics.ImportRequests.WithLabelValues(target.Table, "success").Inc()
	metrics.ImportedRows.WithLabelValues(target.Table, "success").Add(float64(report.Succeeded))
	logger.Info("Spreadsheet imported",
		zap.String("table", target.Table),
		zap.String("file", fileName),
		zap.Int("rows", report.Succeeded))

	return report, nil
}

// checkColumnOrder rejects sheets whose rows cannot be mapped positionally:
// no data rows, a first row of the wrong width, or a row whose keys differ
// from the first row's
func checkColumnOrder(rows []spreadsheet.Row, target models.ImportTarget) error {
	if len(rows) == 0 {
		return apperrors.ErrEmptySheet
	}

	keys := rows[0].Keys
	if len(keys) != len(target.Columns) {
		return apperrors.ParseError(fmt.Sprintf("sheet has %d columns, %s expects %d",
			len(keys), target.Table, len(target.Columns)))
	}

	for i, row := range rows[1:] {
		if !slices.Equal(row.Keys, keys) {
			return &apperrors.RowParseError{
				Row:    i + 2,
				Reason: "columns differ from the first row",
			}
		}
	}

	return nil
}

// rowValues extracts the row's values in key order; empty cells become NULL
func rowValues(row spreadsheet.Row, keys []string) []any {
	ordered := row.Ordered(keys)
	values := make([]any, len(ordered))
	for i, v := range ordered {
		if v != "" {
			values[i] = v
		}
	}
	return values
}

func (s *ImportService) fail(target models.ImportTarget, report *models.ImportReport, row int, err error) error {
	metrics.ImportRequests.WithLabelValues(target.Table, "insert_failed").Inc()
	metrics.ImportedRows.WithLabelValues(target.Table, "success").Add(float64(report.Succeeded))
	metrics.ImportedRows.WithLabelValues(target.Table, "failed").Inc()

	logger.Error("Spreadsheet import aborted",
		zap.String("table", target.Table),
		zap.Int("row", row),
		zap.Int("imported", report.Succeeded),
		zap.Error(err))

	return &apperrors.ImportError{
		Row:       row,
		Attempted: report.Attempted,
		Succeeded: report.Succeeded,
		Err:       err,
	}
}

// archive stores the raw upload when an archiver is configured.
// Failures are logged and do not block the import.
func (s *ImportService) archive(ctx context.Context, target models.ImportTarget, fileName string, data []byte) string {
	if s.archiver == nil {
		return ""
	}

	key, err := s.archiver.Archive(ctx, target.Name, fileName, data)
	if err != nil {
		logger.Warn("Failed to archive upload",
			zap.String("table", target.Table),
			zap.String("file", fileName),
			zap.Error(err))
		return ""
	}
	return key
}
