package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/maheshrc27/cascade-scheduler/configs"
	"github.com/maheshrc27/cascade-scheduler/internal/models"
)

// ReportArchive stores calendar digests for later display.
type ReportArchive interface {
	ArchiveAnalysis(ctx context.Context, analysis *models.CalendarAnalysis) (string, error)
}

type R2Service struct {
	config cfg.R2
	client *s3.Client
}

func NewR2Service(ctx context.Context, r2 cfg.R2) (*R2Service, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("load r2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	})

	return &R2Service{config: r2, client: client}, nil
}

func (r *R2Service) ArchiveAnalysis(ctx context.Context, analysis *models.CalendarAnalysis) (string, error) {
	body, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal analysis: %w", err)
	}

	key := DigestKey(analysis.GeneratedAt)
	if err := r.UploadToR2(ctx, key, body, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

func (r *R2Service) UploadToR2(ctx context.Context, key string, file []byte, filetype string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(filetype),
	}

	_, err := r.client.PutObject(ctx, input)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("upload %s: %w", key, err)
	}

	return nil
}

// DigestKey is the object key for a digest generated at t.
func DigestKey(t time.Time) string {
	return fmt.Sprintf("digests/%s/%s.json", t.Format("2006-01-02"), t.Format("150405"))
}
