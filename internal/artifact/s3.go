package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config locates an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Store keeps artifacts in an S3-compatible bucket.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

// NewS3Store creates a client for cfg. The bucket is created on first use.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Store{client: client, bucketName: bucket, region: region}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Store) Put(ctx context.Context, renderID, name string, content []byte) error {
	renderID, name, err := checkKey(renderID, name)
	if err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.bucketName, objectKey(renderID, name),
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType(name)})
	return err
}

func (s *S3Store) Get(ctx context.Context, renderID, name string) ([]byte, error) {
	renderID, name, err := checkKey(renderID, name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, objectKey(renderID, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *S3Store) List(ctx context.Context, renderID string) ([]string, error) {
	renderID = strings.TrimSpace(renderID)
	if renderID == "" {
		return nil, fmt.Errorf("render id is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	prefix := renderID + "/"
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == "" {
			continue
		}
		names = append(names, strings.TrimPrefix(obj.Key, prefix))
	}
	sort.Strings(names)
	return names, nil
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".json":
		return "application/json"
	case ".svg":
		return "image/svg+xml"
	case ".yaml":
		return "application/yaml"
	}
	return "application/octet-stream"
}
