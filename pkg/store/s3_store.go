package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"warden/pkg/rules"
)

// S3StoreConfig configures an S3-backed Store.
type S3StoreConfig struct {
	Bucket   string
	Region   string
	Endpoint string // optional custom endpoint (MinIO, LocalStack)
	Prefix   string // optional key prefix, e.g. "rules/"
}

// S3Store implements Store against an S3 bucket, one object per firm.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store builds an S3Store from the default AWS credential chain.
func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Store) key(firmName string) string {
	return s.prefix + rules.NormalizeFirmKey(firmName) + ".json"
}

func (s *S3Store) Save(ctx context.Context, firmName string, accepted []rules.Rule, totalIterations int) (rules.RulesBundle, error) {
	bundle := BuildBundle(firmName, accepted, totalIterations, time.Now().UTC())

	data, err := json.Marshal(bundle)
	if err != nil {
		return rules.RulesBundle{}, fmt.Errorf("encode rules bundle: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(firmName)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return rules.RulesBundle{}, fmt.Errorf("s3 put failed: %w", err)
	}

	return bundle, nil
}

func (s *S3Store) Load(ctx context.Context, firmName string) (rules.RulesBundle, bool, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(firmName)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return rules.RulesBundle{}, false, nil
		}
		return rules.RulesBundle{}, false, fmt.Errorf("s3 get failed: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return rules.RulesBundle{}, false, fmt.Errorf("read s3 object: %w", err)
	}

	var bundle rules.RulesBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return rules.RulesBundle{}, false, fmt.Errorf("decode rules bundle: %w", err)
	}
	return bundle, true, nil
}
