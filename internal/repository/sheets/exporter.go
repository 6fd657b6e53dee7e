package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/carbontracker/internal/domain/models"
)

const (
	logsSheet = "Logs"
	// LogsRange is where exported log totals land.
	LogsRange = logsSheet + "!A:E"
	totalCol  = 4
)

var logsHeader = []interface{}{"date", "log id", "user id", "category", "total kg"}

// LogSource lists and loads emission logs.
type LogSource interface {
	ListLogIDs(ctx context.Context) ([]string, error)
	GetLog(ctx context.Context, id string) (models.EmissionLog, error)
}

// Exporter mirrors log totals into a spreadsheet, one row per log.
type Exporter struct {
	repo   Repository
	logs   LogSource
	logger *zap.Logger
}

// NewExporter wires an exporter.
func NewExporter(repo Repository, logs LogSource, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{repo: repo, logs: logs, logger: logger}
}

// Export appends every log not yet present in the sheet and rewrites the rows
// whose total changed since they were written. Rows are matched by log id. It
// returns how many rows were written; the header is added when the sheet is
// empty.
func (e *Exporter) Export(ctx context.Context) (int, error) {
	existing, err := e.repo.ReadRange(ctx, LogsRange)
	if err != nil {
		return 0, err
	}

	// Values start at row 1, so index i is sheet row i+1.
	rowIndex := make(map[string]int, len(existing))
	for i, row := range existing {
		if len(row) > 1 {
			rowIndex[fmt.Sprint(row[1])] = i
		}
	}

	ids, err := e.logs.ListLogIDs(ctx)
	if err != nil {
		return 0, err
	}

	var (
		appends [][]interface{}
		updates []RangeUpdate
	)
	for _, id := range ids {
		log, err := e.logs.GetLog(ctx, id)
		if err != nil {
			e.logger.Warn("skipping log during export", zap.String("log_id", id), zap.Error(err))
			continue
		}

		i, ok := rowIndex[id]
		if !ok {
			appends = append(appends, Row(log))
			continue
		}
		if sameTotal(existing[i], log.TotalEmissionsKg) {
			continue
		}
		updates = append(updates, RangeUpdate{
			Range: fmt.Sprintf("%s!A%d:E%d", logsSheet, i+1, i+1),
			Rows:  [][]interface{}{Row(log)},
		})
	}

	if len(updates) > 0 {
		if err := e.repo.UpdateRanges(ctx, updates); err != nil {
			return 0, err
		}
	}

	if len(appends) > 0 {
		if len(existing) == 0 {
			appends = append([][]interface{}{logsHeader}, appends...)
		}
		if err := e.repo.AppendRows(ctx, LogsRange, appends); err != nil {
			return len(updates), err
		}
		if len(existing) == 0 {
			appends = appends[1:]
		}
	}

	written := len(appends) + len(updates)
	if written > 0 {
		e.logger.Info("emission logs exported",
			zap.Int("appended", len(appends)),
			zap.Int("updated", len(updates)))
	}
	return written, nil
}

// sameTotal reports whether the row's total cell already holds total. Cells
// come back formatted, so the value is parsed before comparing.
func sameTotal(row []interface{}, total float64) bool {
	if len(row) <= totalCol {
		return false
	}
	raw := strings.ReplaceAll(strings.TrimSpace(fmt.Sprint(row[totalCol])), ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	return err == nil && v == total
}

// Row renders a log as a sheet row.
func Row(log models.EmissionLog) []interface{} {
	return []interface{}{
		log.Date.Format("2006-01-02"),
		log.ID,
		log.UserID,
		log.Category,
		log.TotalEmissionsKg,
	}
}
