// Package export writes sale rows to the operator's export sheet, stored as
// monthly CSV objects in S3-compatible storage.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/crosslister/backend/internal/application/sync"
	"github.com/crosslister/backend/internal/domain/sales"
	infraconfig "github.com/crosslister/backend/internal/infrastructure/config"
)

// Ensure S3RowExporter implements RowExporter
var _ sync.RowExporter = (*S3RowExporter)(nil)

// csvHeader is the first row of every monthly sheet
var csvHeader = []string{
	"sale_id", "sold_at", "platform", "title",
	"sale_price", "fees", "net_profit", "price_approximate",
}

// S3RowExporter appends sale rows to monthly CSV objects. S3 offers no
// append, so each write reads the current month's object, adds the row,
// and puts it back. The sweep serializes emissions, so there is a single
// writer per object.
type S3RowExporter struct {
	client       *s3.Client
	bucket       string
	objectPrefix string
	logger       *zap.Logger
}

// NewS3RowExporter creates an exporter from the export configuration.
// It works against any S3-compatible storage backend.
func NewS3RowExporter(cfg *infraconfig.ExportConfig, logger *zap.Logger) (*S3RowExporter, error) {
	if cfg == nil {
		return nil, errors.New("export configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("export bucket is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	region := cfg.Region
	if region == "" {
		region = "eu-west-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3RowExporter{
		client:       client,
		bucket:       cfg.Bucket,
		objectPrefix: strings.Trim(cfg.ObjectPrefix, "/"),
		logger:       logger,
	}, nil
}

// AppendSaleRow writes one sale row to the current month's sheet and returns
// a reference of the form "s3://bucket/key#row".
func (e *S3RowExporter) AppendSaleRow(ctx context.Context, event *sales.SaleEvent) (string, error) {
	key := e.objectKey(event.SoldAt)

	existing, err := e.readObject(ctx, key)
	if err != nil {
		return "", err
	}

	records := existing
	if len(records) == 0 {
		records = append(records, csvHeader)
	}
	records = append(records, saleRow(event))
	rowNumber := len(records) - 1

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(records); err != nil {
		return "", fmt.Errorf("failed to encode export sheet: %w", err)
	}

	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to write export sheet: %w", err)
	}

	rowRef := fmt.Sprintf("s3://%s/%s#%d", e.bucket, key, rowNumber)
	e.logger.Info("Appended sale row to export sheet",
		zap.String("row_ref", rowRef),
		zap.String("sale_event_id", event.ID.String()))
	return rowRef, nil
}

// readObject fetches and parses the current sheet; a missing object is an
// empty sheet.
func (e *S3RowExporter) readObject(ctx context.Context, key string) ([][]string, error) {
	out, err := e.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(e.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) || strings.Contains(err.Error(), "NoSuchKey") ||
			strings.Contains(err.Error(), "NotFound") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read export sheet: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read export sheet body: %w", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("export sheet %s is not valid CSV: %w", key, err)
	}
	return records, nil
}

// objectKey returns the monthly sheet key for a sale date
func (e *S3RowExporter) objectKey(soldAt time.Time) string {
	name := fmt.Sprintf("sales-%s.csv", soldAt.UTC().Format("2006-01"))
	if e.objectPrefix == "" {
		return name
	}
	return e.objectPrefix + "/" + name
}

// saleRow renders one sale event as a CSV record
func saleRow(event *sales.SaleEvent) []string {
	return []string{
		event.ID.String(),
		event.SoldAt.UTC().Format(time.RFC3339),
		event.Platform.String(),
		event.Title,
		event.SalePrice.StringFixed(2),
		event.Fees.StringFixed(2),
		event.NetProfit.StringFixed(2),
		fmt.Sprintf("%t", event.PriceApproximate),
	}
}
