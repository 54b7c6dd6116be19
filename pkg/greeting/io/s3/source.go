// Package s3 loads the people CSV from an Amazon S3 (or S3-compatible) object.
package s3

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/io/local"
)

// GetObjectAPI is the subset of the S3 client used by Source.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config locates the CSV object.
type Config struct {
	Bucket string `yaml:"bucket"`
	Key    string `yaml:"key"`
	Region string `yaml:"region"`

	// Endpoint overrides the S3 endpoint (MinIO, LocalStack).
	Endpoint string `yaml:"endpoint"`
	// PathStyle forces path-style addressing, usually needed with Endpoint.
	PathStyle bool `yaml:"path_style"`
}

// Source reads the whole object on every call.
type Source struct {
	api    GetObjectAPI
	bucket string
	key    string
	logger *slog.Logger
}

var _ core.RecordSource = (*Source)(nil)

// New builds a Source using the default AWS credential chain.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Source, error) {
	if strings.TrimSpace(cfg.Bucket) == "" || strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("s3 source requires bucket and key")
	}

	var loadOpts []func(*config.LoadOptions) error
	if r := strings.TrimSpace(cfg.Region); r != "" {
		loadOpts = append(loadOpts, config.WithRegion(r))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return NewWithAPI(client, cfg.Bucket, cfg.Key, logger), nil
}

// NewWithAPI builds a Source on an existing S3 API implementation.
func NewWithAPI(api GetObjectAPI, bucket, key string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		api:    api,
		bucket: strings.TrimSpace(bucket),
		key:    strings.TrimSpace(key),
		logger: logger,
	}
}

func (s *Source) People(ctx context.Context) ([]core.Person, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("s3 object s3://%s/%s does not exist", s.bucket, s.key)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	people, err := local.ReadPeopleCSV(out.Body)
	if err != nil {
		return nil, fmt.Errorf("parse s3://%s/%s: %w", s.bucket, s.key, err)
	}
	s.logger.Debug("loaded people from s3", "bucket", s.bucket, "key", s.key, "count", len(people))
	return people, nil
}
