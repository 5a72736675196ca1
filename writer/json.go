package writer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"masterflow/logger"
)

// WriteRawJSON writes the verbatim record array pretty-printed to path
// for audit parity with the API payload. An empty list produces "[]".
func WriteRawJSON(raw json.RawMessage, path string) error {
	log := logger.GetLogger().WithComponent("json_writer").WithFields(logger.Fields{"path": path})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory for '%s': %w", path, err)
	}

	if len(raw) == 0 {
		raw = json.RawMessage("[]")
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return fmt.Errorf("format raw json for '%s': %w", path, err)
	}
	pretty.WriteByte('\n')

	if err := os.WriteFile(path, pretty.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write json file '%s': %w", path, err)
	}

	log.WithFields(logger.Fields{"bytes": pretty.Len()}).Info("raw json written")
	logger.IncrementFileWritten()

	return nil
}
