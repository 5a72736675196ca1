package writer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	pqwriter "github.com/xitongsys/parquet-go/writer"

	"masterflow/logger"
	"masterflow/models"
)

// indexParquetRecord is the parquet schema of the optional archival
// artifact.
type indexParquetRecord struct {
	ID        int32  `parquet:"name=id, type=INT32"`
	IndexName string `parquet:"name=index_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Token     string `parquet:"name=token, type=BYTE_ARRAY, convertedtype=UTF8"`
	CreatedAt int64  `parquet:"name=created_at, type=INT64"`
}

// memoryFileWriter implements ParquetFile interface for in-memory writing
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{
		buffer: &bytes.Buffer{},
	}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	// Write-only usage; seeking is not required.
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error) {
	return mfw.buffer.Read(b)
}

func (mfw *memoryFileWriter) Write(b []byte) (int, error) {
	return mfw.buffer.Write(b)
}

func (mfw *memoryFileWriter) Close() error {
	return nil
}

func (mfw *memoryFileWriter) Bytes() []byte {
	return mfw.buffer.Bytes()
}

// WriteParquet writes the normalized records as a parquet file, built
// in memory and flushed to path in one write.
func WriteParquet(records []models.NormalizedIndexRecord, path, compression string) error {
	log := logger.GetLogger().WithComponent("parquet_writer").WithFields(logger.Fields{"path": path})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory for '%s': %w", path, err)
	}

	fw := newMemoryFileWriter()
	pw, err := pqwriter.NewParquetWriter(fw, new(indexParquetRecord), 4)
	if err != nil {
		return fmt.Errorf("create parquet writer for '%s': %w", path, err)
	}

	switch compression {
	case "snappy":
		pw.CompressionType = parquet.CompressionCodec_SNAPPY
	case "gzip":
		pw.CompressionType = parquet.CompressionCodec_GZIP
	default:
		pw.CompressionType = parquet.CompressionCodec_UNCOMPRESSED
	}

	for _, rec := range records {
		row := indexParquetRecord{
			ID:        int32(rec.ID),
			IndexName: rec.IndexName,
			Token:     rec.Token,
			CreatedAt: rec.CreatedAt.UnixMilli(),
		}
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			return fmt.Errorf("write parquet record to '%s': %w", path, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet file '%s': %w", path, err)
	}

	if err := os.WriteFile(path, fw.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write parquet file '%s': %w", path, err)
	}

	log.WithFields(logger.Fields{
		"records":   len(records),
		"file_size": len(fw.Bytes()),
	}).Info("parquet master written")
	logger.IncrementFileWritten()

	return nil
}
