package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/marcenaria-vision/internal/domain/analysis"
)

type Options struct {
	Endpoint   string
	Region     string
	BucketName string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	// PublicBaseURL overrides the URL prefix returned for uploaded objects
	// (CDN or reverse proxy in front of the bucket).
	PublicBaseURL string
}

type Store struct {
	client     *minio.Client
	bucketName string
	publicBase string
}

// New connects to MinIO and makes sure the bucket exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, opts.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.BucketName, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, opts.BucketName, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.BucketName, err)
		}
	}

	base := strings.TrimRight(opts.PublicBaseURL, "/")
	if base == "" {
		ep := cli.EndpointURL()
		base = fmt.Sprintf("%s://%s/%s", ep.Scheme, ep.Host, opts.BucketName)
	}
	return &Store{client: cli, bucketName: opts.BucketName, publicBase: base}, nil
}

// Put uploads data under key, replacing any existing object, and returns its public URL.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object bucket=%s key=%s: %w", s.bucketName, key, err)
	}
	return PublicURL(s.publicBase, key), nil
}

// Check is used by the health endpoint.
func (s *Store) Check(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

// PublicURL joins base and an object key, escaping each key segment.
func PublicURL(base, key string) string {
	segments := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}

var _ analysis.ArtifactStore = (*Store)(nil)
