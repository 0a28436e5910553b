package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store keeps one JSON document per (id, stage) under
// <prefix>/<stage>/<entity_id>/<bundle_id>.json.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// document is the stored wire shape. Staged snapshots written by older
// stagers may be bare payload objects; Get tolerates both.
type document struct {
	Metadata *Metadata      `json:"metadata,omitempty"`
	Data     map[string]any `json:"data"`
}

func NewS3(ctx context.Context, cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("snapshot: s3 bucket not set")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	ac, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(ac, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.KeyPrefix}, nil
}

func (s *S3Store) key(id ID, stage string) string {
	k := path.Join(stage, id.EntityID, id.BundleID+".json")
	if s.prefix != "" {
		k = path.Join(s.prefix, k)
	}
	return k
}

func (s *S3Store) Get(ctx context.Context, id ID, stage string) (map[string]any, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id, stage)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, stage, id)
		}
		return nil, fmt.Errorf("snapshot: get %s/%s: %w", stage, id, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s/%s: %w", stage, id, err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err == nil && doc.Data != nil {
		return doc.Data, nil
	}
	var bare map[string]any
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, fmt.Errorf("snapshot: decode %s/%s: %w", stage, id, err)
	}
	return bare, nil
}

func (s *S3Store) Put(ctx context.Context, id ID, stage string, meta Metadata, payload map[string]any) error {
	raw, err := json.Marshal(document{Metadata: &meta, Data: payload})
	if err != nil {
		return fmt.Errorf("snapshot: encode %s/%s: %w", stage, id, err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(id, stage)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("snapshot: put %s/%s: %w", stage, id, err)
	}
	return nil
}

func (s *S3Store) Close() error {
	return nil
}
