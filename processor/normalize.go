// Package processor turns raw XTS index records into the normalized
// rows persisted in the master files.
package processor

import (
	"strings"
	"time"

	"masterflow/logger"
	"masterflow/models"
)

// Normalize converts raw index records into master-file rows. The
// composite name field is split on the LAST underscore: label text may
// itself contain underscores, the token suffix is always the final
// segment. Records without an underscore keep the full name and fall
// back to exchangeInstrumentID for the token. Sequence ids are 1-based
// positional; created_at is the single instant passed in, shared by
// every record of the run.
func Normalize(records []models.RawIndexRecord, createdAt time.Time) []models.NormalizedIndexRecord {
	normalized := make([]models.NormalizedIndexRecord, 0, len(records))
	for i, raw := range records {
		name, token := splitNameToken(raw)
		normalized = append(normalized, models.NormalizedIndexRecord{
			ID:        i + 1,
			IndexName: name,
			Token:     token,
			CreatedAt: createdAt,
		})
	}

	logger.GetLogger().WithComponent("normalizer").WithFields(logger.Fields{
		"records": len(normalized),
	}).Debug("normalized index records")
	logger.AddRecordsNormalized(len(normalized))

	return normalized
}

func splitNameToken(raw models.RawIndexRecord) (name, token string) {
	if idx := strings.LastIndex(raw.Name, "_"); idx >= 0 {
		return raw.Name[:idx], raw.Name[idx+1:]
	}
	return raw.Name, raw.ExchangeInstrumentID.String()
}
