package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"vtt-feedback/internal/feedback"
	"vtt-feedback/internal/observability"
	appErrors "vtt-feedback/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// DefaultPrefix is the key prefix feedback objects are written under.
const DefaultPrefix = "feedback/"

const jsonSuffix = ".json"

// ObjectAPI is the subset of the S3 client used for retrieval, making the
// store testable.
type ObjectAPI interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Options narrows what the store returns.
type Options struct {
	Prefix string
	// Since and Until bound the record event time; zero means unbounded.
	// Records without a parseable event time are always kept.
	Since time.Time
	Until time.Time
}

// Stats summarizes one retrieval.
type Stats struct {
	Pages     int
	Listed    int
	Matched   int
	Fetched   int
	Failed    int
	Filtered  int
	BytesRead int64
}

// Store reads feedback records from a bucket.
type Store struct {
	client  ObjectAPI
	bucket  string
	opts    Options
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewStore creates a store for the bucket. metrics may be nil.
func NewStore(client ObjectAPI, bucket string, opts Options, logger *zap.Logger, metrics *observability.Collector) *Store {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &Store{
		client:  client,
		bucket:  bucket,
		opts:    opts,
		logger:  logger.With(zap.String("bucket", bucket), zap.String("prefix", opts.Prefix)),
		metrics: metrics,
	}
}

// URI is the s3:// location being read.
func (s *Store) URI() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.opts.Prefix)
}

// FetchAll lists every key under the prefix and decodes each .json object,
// in listing order. Objects that cannot be fetched or decoded are logged and
// skipped. A listing failure aborts and is returned.
func (s *Store) FetchAll(ctx context.Context) ([]feedback.Record, Stats, error) {
	var (
		records []feedback.Record
		stats   Stats
	)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.opts.Prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error("Failed to list feedback objects", zap.Int("page", stats.Pages+1), zap.Error(err))
			return records, stats, classifyListError(err)
		}
		stats.Pages++
		s.inc(func(m *observability.Collector) { m.ListPages.Inc() })

		for _, obj := range page.Contents {
			stats.Listed++
			s.inc(func(m *observability.Collector) { m.ObjectsListed.Inc() })

			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, jsonSuffix) {
				continue
			}
			stats.Matched++

			if err := ctx.Err(); err != nil {
				return records, stats, err
			}

			rec, n, reason, err := s.fetch(ctx, key)
			stats.BytesRead += n
			s.inc(func(m *observability.Collector) { m.BytesRead.Add(float64(n)) })
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return records, stats, ctxErr
				}
				stats.Failed++
				s.inc(func(m *observability.Collector) { m.ObjectsFailed.WithLabelValues(reason).Inc() })
				s.logger.Warn("Error reading feedback object",
					zap.String("key", key),
					zap.String("reason", reason),
					zap.Error(err))
				continue
			}
			stats.Fetched++
			s.inc(func(m *observability.Collector) { m.ObjectsFetched.Inc() })

			if !s.inWindow(rec) {
				stats.Filtered++
				s.inc(func(m *observability.Collector) { m.ObjectsSkipped.Inc() })
				continue
			}
			records = append(records, rec)
		}
	}

	s.logger.Info("Feedback retrieval complete",
		zap.Int("pages", stats.Pages),
		zap.Int("listed", stats.Listed),
		zap.Int("fetched", stats.Fetched),
		zap.Int("failed", stats.Failed),
		zap.Int("filtered", stats.Filtered),
		zap.Int("records", len(records)))

	return records, stats, nil
}

// fetch downloads and decodes one object, returning the bytes read and, on
// failure, which step failed.
func (s *Store) fetch(ctx context.Context, key string) (feedback.Record, int64, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, 0, observability.ReasonFetch, err
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, int64(len(body)), observability.ReasonRead, err
	}

	rec, err := feedback.Decode(body)
	if err != nil {
		return nil, int64(len(body)), observability.ReasonParse, err
	}
	return rec, int64(len(body)), "", nil
}

func (s *Store) inWindow(rec feedback.Record) bool {
	if s.opts.Since.IsZero() && s.opts.Until.IsZero() {
		return true
	}
	t, ok := rec.EventTime()
	if !ok {
		return true
	}
	if !s.opts.Since.IsZero() && t.Before(s.opts.Since) {
		return false
	}
	if !s.opts.Until.IsZero() && t.After(s.opts.Until) {
		return false
	}
	return true
}

func (s *Store) inc(fn func(*observability.Collector)) {
	if s.metrics != nil {
		fn(s.metrics)
	}
}

// classifyListError maps S3 API error codes onto application error types.
func classifyListError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return appErrors.NewNotFoundError("bucket").WithCode(apiErr.ErrorCode()).WithCause(err)
		case "AccessDenied", "AllAccessDisabled", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return appErrors.NewUnauthorizedError("access to bucket denied").WithCode(apiErr.ErrorCode()).WithCause(err)
		default:
			return appErrors.NewExternalError("s3", err).WithCode(apiErr.ErrorCode())
		}
	}
	return appErrors.NewExternalError("s3", err)
}
