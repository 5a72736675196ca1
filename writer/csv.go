// Package writer persists normalized index masters in the formats the
// trading terminal and its operators consume.
package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"masterflow/logger"
	"masterflow/models"
)

// csvHeader is the fixed header the terminal's master-file loader expects.
var csvHeader = []string{"id", "index_name", "token", "created_at"}

// WriteCSV writes the normalized records to path, overwriting any
// existing file. Parent directories are created as needed. Fields are
// quoted by the csv writer, so index names containing commas survive
// the round trip.
func WriteCSV(records []models.NormalizedIndexRecord, path string) error {
	log := logger.GetLogger().WithComponent("csv_writer").WithFields(logger.Fields{"path": path})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory for '%s': %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file '%s': %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header to '%s': %w", path, err)
	}

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.ID),
			rec.IndexName,
			rec.Token,
			rec.CreatedAt.Format(models.MasterTimestampFormat),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row to '%s': %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv file '%s': %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv file '%s': %w", path, err)
	}

	log.WithFields(logger.Fields{"records": len(records)}).Info("csv master written")
	logger.IncrementFileWritten()

	return nil
}
