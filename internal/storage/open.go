package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/iTrooz/caching-http-client/internal/config"
)

// Open builds the storage backend selected by cfg, scoped to sessionID
func Open(ctx context.Context, cfg *config.Config, sessionID string) (Storage, error) {
	switch cfg.Cache.Backend {
	case config.BackendMemory, "":
		return NewMemory(), nil
	case config.BackendDisk:
		disk := NewDisk(cfg.Cache.Folder, sessionID)
		if err := disk.Init(); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		return disk, nil
	case config.BackendRedis:
		r := cfg.Cache.Redis
		return NewRedis(NewRedisClient(r.Addr, r.Password, r.DB), sessionID), nil
	case config.BackendS3:
		client, err := NewS3Client(ctx, cfg.Cache.S3)
		if err != nil {
			return nil, err
		}
		return NewS3(cfg.Cache.S3.Bucket, sessionID, client), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Cache.Backend)
	}
}

// NewS3Client builds an S3 client from static credentials when given,
// falling back to the default AWS credential chain
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.UsePathStyle = true
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
