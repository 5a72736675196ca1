// Package pipeline runs the index-master acquisition sequence: login,
// fetch, normalize, persist. Every stage is synchronous and a failure
// at any stage halts the run.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	appconfig "masterflow/config"
	"masterflow/logger"
	"masterflow/models"
	"masterflow/processor"
	"masterflow/reader/xts"
	"masterflow/writer"
)

// Pipeline is one run of the master-data acquisition flow.
type Pipeline struct {
	config   *appconfig.Config
	client   *xts.Client
	uploader *writer.Uploader
	runID    string
	now      func() time.Time
	log      *logger.Log
}

// New wires the pipeline for the resolved credentials. The S3 uploader
// is only constructed when enabled so local-only runs never touch the
// AWS SDK.
func New(cfg *appconfig.Config, creds models.Credentials) (*Pipeline, error) {
	p := &Pipeline{
		config: cfg,
		client: xts.NewClient(cfg, creds),
		runID:  uuid.New().String(),
		now:    time.Now,
		log:    logger.GetLogger(),
	}

	if cfg.Storage.S3.Enabled {
		uploader, err := writer.NewUploader(cfg)
		if err != nil {
			return nil, fmt.Errorf("create s3 uploader: %w", err)
		}
		p.uploader = uploader
	}

	return p, nil
}

// Run executes the full pipeline once. The returned error is the first
// stage failure; nothing is retried.
func (p *Pipeline) Run(ctx context.Context) error {
	log := p.log.WithComponent("pipeline").WithFields(logger.Fields{"run_id": p.runID})

	start := p.now()

	if _, err := p.client.Login(ctx); err != nil {
		log.WithError(err).Error("login failed")
		return fmt.Errorf("login: %w", err)
	}

	for _, segment := range p.config.Segments() {
		if err := p.runSegment(ctx, segment); err != nil {
			log.WithError(err).WithFields(logger.Fields{"segment": segment.String()}).Error("segment failed")
			return err
		}
	}

	logger.LogPerformanceEntry(log, "pipeline", "run", p.now().Sub(start), logger.Fields{
		"segments": len(p.config.Segments()),
	})

	return nil
}

func (p *Pipeline) runSegment(ctx context.Context, segment models.Segment) error {
	log := p.log.WithComponent("pipeline").WithFields(logger.Fields{
		"run_id":  p.runID,
		"segment": segment.String(),
	})

	list, err := p.client.FetchIndexList(ctx, segment)
	if err != nil {
		return fmt.Errorf("fetch %s index list: %w", segment, err)
	}

	createdAt := p.now()
	records := processor.Normalize(list.Records, createdAt)
	if len(records) == 0 {
		log.Warn("segment returned no indices; writing empty master")
	}

	csvPath := p.artifactPath(segment, "csv")
	jsonPath := p.artifactPath(segment, "json")

	if err := writer.WriteCSV(records, csvPath); err != nil {
		return err
	}
	if err := writer.WriteRawJSON(list.Raw, jsonPath); err != nil {
		return err
	}

	artifacts := []string{csvPath, jsonPath}

	if p.config.Output.Formats.Parquet.Enabled {
		parquetPath := p.artifactPath(segment, "parquet")
		if err := writer.WriteParquet(records, parquetPath, p.config.Output.Formats.Parquet.Compression); err != nil {
			return err
		}
		artifacts = append(artifacts, parquetPath)
	}

	if p.uploader != nil {
		for _, artifact := range artifacts {
			if err := p.uploader.Upload(ctx, artifact, createdAt); err != nil {
				return err
			}
		}
	}

	log.WithFields(logger.Fields{
		"records": len(records),
		"csv":     csvPath,
		"json":    jsonPath,
	}).Info("segment master updated")

	return nil
}

func (p *Pipeline) artifactPath(segment models.Segment, ext string) string {
	return filepath.Join(p.config.Output.Dir, fmt.Sprintf("%s_index_master.%s", segment.FilePrefix(), ext))
}
