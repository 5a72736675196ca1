package writer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "masterflow/config"
	"masterflow/logger"
)

// Uploader copies produced master artifacts to an S3 bucket so other
// terminal installs can pull them without running the pipeline.
type Uploader struct {
	config   *appconfig.Config
	s3Client *s3.Client
	log      *logger.Log
}

// NewUploader configures the AWS SDK and validates that credentials are
// actually present before the pipeline produces anything.
func NewUploader(cfg *appconfig.Config) (*Uploader, error) {
	log := logger.GetLogger()
	ctx := context.Background()

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Storage.S3.Region),
	}
	if cfg.Storage.S3.AccessKeyID != "" && cfg.Storage.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Storage.S3.AccessKeyID,
				cfg.Storage.S3.SecretAccessKey,
				"",
			),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.WithComponent("s3_uploader").WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	creds, err := awsConfig.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Storage.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.S3.Endpoint)
		}
		o.UsePathStyle = cfg.Storage.S3.PathStyle
	})

	log.WithComponent("s3_uploader").WithFields(logger.Fields{
		"bucket":     cfg.Storage.S3.Bucket,
		"region":     cfg.Storage.S3.Region,
		"endpoint":   cfg.Storage.S3.Endpoint,
		"path_style": cfg.Storage.S3.PathStyle,
	}).Info("s3 uploader initialized")

	return &Uploader{
		config:   cfg,
		s3Client: s3Client,
		log:      log,
	}, nil
}

// Upload copies one local artifact to the bucket under a
// date-partitioned key. Upload failures are fatal to the run, like any
// other write failure.
func (u *Uploader) Upload(ctx context.Context, localPath string, ts time.Time) error {
	log := u.log.WithComponent("s3_uploader").WithFields(logger.Fields{"path": localPath})

	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read artifact '%s': %w", localPath, err)
	}

	key := path.Join(
		u.config.Storage.S3.KeyPrefix,
		fmt.Sprintf("date=%s", ts.UTC().Format("2006-01-02")),
		filepath.Base(localPath),
	)

	if _, err := u.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.config.Storage.S3.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(localPath)),
	}); err != nil {
		log.WithError(err).
			WithEnv("S3_BUCKET").
			WithFields(logger.Fields{"bucket": u.config.Storage.S3.Bucket, "s3_key": key}).
			Error("failed to upload artifact")
		return fmt.Errorf("upload '%s' to s3: %w", localPath, err)
	}

	log.WithFields(logger.Fields{"s3_key": key, "file_size": len(data)}).Info("artifact uploaded")
	logger.IncrementUpload()

	return nil
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".parquet":
		return "application/octet-stream"
	default:
		return "application/octet-stream"
	}
}
