// Package s3store implements storage.Store on an S3-compatible bucket, one
// JSON object per character.
package s3store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"lumen/pkg/storage"
)

// ObjectAPI is the part of the S3 client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Store struct {
	client ObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New creates a store on bucket. If endpoint is non-empty, path-style
// addressing is enabled (for MinIO and similar).
func New(ctx context.Context, bucket, prefix, region, endpoint string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return NewWithClient(s3.NewFromConfig(cfg, s3opts...), bucket, prefix), nil
}

func NewWithClient(client ObjectAPI, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

func (s *Store) key(name string) string {
	return s.prefix + name + ".json"
}

func (s *Store) Load(ctx context.Context, name string) (*storage.Record, error) {
	if !storage.ValidName(name) {
		return nil, fmt.Errorf("invalid character name %q", name)
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	defer out.Body.Close()

	var rec storage.Record
	if err := json.NewDecoder(out.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return &rec, nil
}

func (s *Store) Save(ctx context.Context, rec *storage.Record) error {
	if !storage.ValidName(rec.Name) {
		return fmt.Errorf("invalid character name %q", rec.Name)
	}
	rec.SavedAt = s.now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(rec.Name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
