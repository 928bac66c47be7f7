// internal/services/export_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/javajoker/commerce-jobs/internal/config"
	"github.com/javajoker/commerce-jobs/internal/models"
)

// ExportService uploads committed revenue snapshots to S3 for the BI
// pipeline. It is optional: a missing bucket config disables it entirely.
type ExportService struct {
	s3Client *s3.S3
	bucket   string
}

func NewExportService(cfg *config.Config) (*ExportService, error) {
	if cfg.AWS.S3Bucket == "" {
		return nil, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &ExportService{
		s3Client: s3.New(sess),
		bucket:   cfg.AWS.S3Bucket,
	}, nil
}

func (s *ExportService) ExportReports(ctx context.Context, reports []models.RevenueReport) error {
	for _, report := range reports {
		body, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to marshal report %s: %w", report.ID, err)
		}

		key := fmt.Sprintf("reports/%s/%s.json", report.ReportType, report.GeneratedAt.UTC().Format("2006-01-02T15-04-05Z"))
		if report.Period != "" {
			key = fmt.Sprintf("reports/%s/%s/%s.json", report.ReportType, report.Period, report.GeneratedAt.UTC().Format("2006-01-02T15-04-05Z"))
		}

		_, err = s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return fmt.Errorf("failed to upload report %s: %w", key, err)
		}
	}

	return nil
}
