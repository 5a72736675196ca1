package writer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"masterflow/models"
)

func sampleRecords(createdAt time.Time) []models.NormalizedIndexRecord {
	return []models.NormalizedIndexRecord{
		{ID: 1, IndexName: "Nifty 50", Token: "26000", CreatedAt: createdAt},
		{ID: 2, IndexName: "Nifty Bank", Token: "26001", CreatedAt: createdAt},
	}
}

func TestWriteCSV(t *testing.T) {
	createdAt := time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "masters", "nse_cm_index_master.csv")

	if err := WriteCSV(sampleRecords(createdAt), path); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("unexpected line count: %d", len(lines))
	}
	if lines[0] != "id,index_name,token,created_at" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if lines[1] != "1,Nifty 50,26000,2024-03-01 09:15:00.000" {
		t.Errorf("unexpected first row: %s", lines[1])
	}
}

func TestWriteCSVQuotesEmbeddedCommas(t *testing.T) {
	createdAt := time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
	records := []models.NormalizedIndexRecord{
		{ID: 1, IndexName: "Odd, Name", Token: "1", CreatedAt: createdAt},
	}
	path := filepath.Join(t.TempDir(), "out.csv")

	if err := WriteCSV(records, path); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.Contains(string(data), `"Odd, Name"`) {
		t.Errorf("embedded comma not quoted: %s", data)
	}
}

func TestWriteCSVEmptyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := WriteCSV(nil, path); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if strings.TrimRight(string(data), "\n") != "id,index_name,token,created_at" {
		t.Errorf("empty input should produce header only: %q", data)
	}
}

func TestWriteCSVOverwrites(t *testing.T) {
	createdAt := time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "out.csv")

	if err := WriteCSV(sampleRecords(createdAt), path); err != nil {
		t.Fatalf("first WriteCSV failed: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	if err := WriteCSV(sampleRecords(createdAt), path); err != nil {
		t.Fatalf("second WriteCSV failed: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	if string(first) != string(second) {
		t.Error("rerun with identical input should overwrite byte-for-byte")
	}
}

func TestWriteRawJSONPretty(t *testing.T) {
	raw := json.RawMessage(`[{"name":"Nifty 50_26000"}]`)
	path := filepath.Join(t.TempDir(), "masters", "raw.json")

	if err := WriteRawJSON(raw, path); err != nil {
		t.Fatalf("WriteRawJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	if !strings.Contains(string(data), "\n  {") {
		t.Errorf("output not indented: %s", data)
	}

	var parsed []models.RawIndexRecord
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("output not valid json: %v", err)
	}
	if len(parsed) != 1 || parsed[0].Name != "Nifty 50_26000" {
		t.Errorf("unexpected round trip: %+v", parsed)
	}
}

func TestWriteRawJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.json")
	if err := WriteRawJSON(nil, path); err != nil {
		t.Fatalf("WriteRawJSON failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("empty raw should produce []: %q", data)
	}
}

func TestWriteParquet(t *testing.T) {
	createdAt := time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "masters", "nse_cm_index_master.parquet")

	if err := WriteParquet(sampleRecords(createdAt), path, "snappy"); err != nil {
		t.Fatalf("WriteParquet failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat parquet: %v", err)
	}
	if info.Size() == 0 {
		t.Error("parquet file is empty")
	}
}

func TestContentTypeFor(t *testing.T) {
	if ct := contentTypeFor("a/b.csv"); ct != "text/csv" {
		t.Errorf("unexpected content type: %s", ct)
	}
	if ct := contentTypeFor("a/b.json"); ct != "application/json" {
		t.Errorf("unexpected content type: %s", ct)
	}
	if ct := contentTypeFor("a/b.parquet"); ct != "application/octet-stream" {
		t.Errorf("unexpected content type: %s", ct)
	}
}
