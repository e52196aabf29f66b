// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"matchverse/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Settings configures the Cloudflare R2 bucket used for result archives.
type R2Settings struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// ObjectPutter is the subset of the S3 client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Archive writes finished match results to R2 as JSON documents.
type R2Archive struct {
	Client     ObjectPutter
	Bucket     string
	CDNBaseURL string
}

func NewR2Archive(ctx context.Context, settings R2Settings) (*R2Archive, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", settings.AccountID)
	cdnBaseURL := settings.CDNBaseURL
	if cdnBaseURL == "" {
		cdnBaseURL = endpoint
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			settings.AccessKeyID, settings.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &R2Archive{Client: client, Bucket: settings.Bucket, CDNBaseURL: cdnBaseURL}, nil
}

// ResultKey is the object key for a result: match-results/2006/01/<match id>.json
func ResultKey(result *models.MatchResult) string {
	created := result.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return fmt.Sprintf("match-results/%s/%s.json", created.UTC().Format("2006/01"), result.MatchID)
}

// ArchiveMatchResult uploads the result as a JSON document.
func (a *R2Archive) ArchiveMatchResult(ctx context.Context, result *models.MatchResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = a.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(ResultKey(result)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to R2: %w", err)
	}
	log.Printf("📦 [R2] archived result for match %s at %s", result.MatchID, a.URLFor(result))
	return nil
}

// URLFor returns the public CDN URL of an archived result.
func (a *R2Archive) URLFor(result *models.MatchResult) string {
	return fmt.Sprintf("%s/%s", a.CDNBaseURL, ResultKey(result))
}
