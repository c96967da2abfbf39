package brief

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/inbox-agent/internal/domain"
)

// S3Exporter optionally uploads a generated DailyBrief to S3 (SPEC_FULL
// §4.8/§10, config.BriefExportConfig) — grounded on internal/agent's S3
// knowledge-base storage (PutObject with a JSON body and a prefix-scoped
// key), trimmed to what a brief export needs: no encryption or compression,
// since briefs are not sensitive knowledge-base state.
type S3Exporter struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Exporter builds an exporter against the default AWS credential chain.
func NewS3Exporter(ctx context.Context, region, bucket, prefix string) (*S3Exporter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("brief: failed to load AWS config: %w", err)
	}

	return &S3Exporter{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Export uploads the brief as a JSON object keyed by date.
func (e *S3Exporter) Export(ctx context.Context, b domain.DailyBrief) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("brief: failed to serialize brief: %w", err)
	}

	key := e.prefix + b.DateUTC + ".json"
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("brief: failed to upload to s3: %w", err)
	}
	return nil
}
