// Package archive ships content items to S3 cold storage before the
// retention sweep purges them from the database.
package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/fiddyhq/autopublisher/pkg/models"
)

// Service uploads archive objects to S3
type Service struct {
	s3Client *s3.Client
	bucket   string
	prefix   string
}

// Config holds archive configuration
type Config struct {
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	S3Bucket           string
	Prefix             string // defaults to "archive/content"
}

// NewService creates a new archive service
func NewService(cfg Config) (*Service, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("archive S3 bucket not configured")
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.AWSRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		prefix = "archive/content"
	}

	return &Service{
		s3Client: s3.NewFromConfig(awsCfg),
		bucket:   cfg.S3Bucket,
		prefix:   prefix,
	}, nil
}

// manifest is the on-disk shape of one archive object
type manifest struct {
	ArchivedAt time.Time             `json:"archived_at"`
	Count      int                   `json:"count"`
	Items      []*models.ContentItem `json:"items"`
}

// ArchiveContent writes the given items to S3 as one gzipped JSON object.
// Returning an error postpones the purge to the next sweep, so nothing is
// deleted that was not stored first.
func (s *Service) ArchiveContent(ctx context.Context, items []*models.ContentItem) error {
	if len(items) == 0 {
		return nil
	}

	payload, err := json.Marshal(manifest{
		ArchivedAt: time.Now().UTC(),
		Count:      len(items),
		Items:      items,
	})
	if err != nil {
		return fmt.Errorf("marshal archive manifest: %w", err)
	}

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err := gzipWriter.Write(payload); err != nil {
		return fmt.Errorf("compress archive: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("close gzip writer: %w", err)
	}

	timestamp := time.Now().UTC().Format("20060102-150405")
	key := fmt.Sprintf("%s/%s-%s.json.gz", s.prefix, timestamp, uuid.NewString())

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(buf.Bytes()),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
		StorageClass:    types.StorageClassStandardIa, // Infrequent Access for archives
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Printf("✅ Archived %d content items to S3: s3://%s/%s (size: %d bytes)",
		len(items), s.bucket, key, buf.Len())

	return nil
}

// ArchiveInfo contains information about one archive object
type ArchiveInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ListArchives lists archive objects in S3, newest listing first is not
// guaranteed; S3 returns keys in lexicographic order.
func (s *Service) ListArchives(ctx context.Context) ([]ArchiveInfo, error) {
	result, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + "/"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list S3 objects: %w", err)
	}

	archives := make([]ArchiveInfo, 0, len(result.Contents))
	for _, obj := range result.Contents {
		archives = append(archives, ArchiveInfo{
			Key:          *obj.Key,
			Size:         *obj.Size,
			LastModified: *obj.LastModified,
		})
	}

	return archives, nil
}
