package secretconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/dmitrijs2005/livedesk/internal/logging"
	"github.com/dmitrijs2005/livedesk/internal/server/models"
)

// ObjectAPI is the part of *s3.Client the repository needs.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Options describes the object store holding secret configuration.
type S3Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// NewS3Client builds an S3 client with static credentials, suitable for
// MinIO as well as AWS.
func NewS3Client(ctx context.Context, o S3Options) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(so *s3.Options) {
		if o.BaseEndpoint != "" {
			so.BaseEndpoint = aws.String(o.BaseEndpoint)
			so.UsePathStyle = true
		}
	}), nil
}

// object is the JSON document stored per key.
type object struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Sealed      bool      `json:"sealed"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// errCorruptObject marks an object whose body is not a valid entry document.
var errCorruptObject = errors.New("corrupt secret config object")

// S3Repository stores one JSON object per entry under bucket/prefix+key.
type S3Repository struct {
	api    ObjectAPI
	bucket string
	prefix string
	logger logging.Logger
	now    func() time.Time
}

// NewS3Repository returns a repository over api. A nil logger discards.
func NewS3Repository(api ObjectAPI, bucket, prefix string, logger logging.Logger) *S3Repository {
	if logger == nil {
		logger = logging.Nop()
	}
	return &S3Repository{
		api:    api,
		bucket: bucket,
		prefix: prefix,
		logger: logger.With("component", "secret_config_s3"),
		now:    time.Now,
	}
}

func (r *S3Repository) objectKey(key string) string {
	return r.prefix + key
}

func (r *S3Repository) Upsert(ctx context.Context, e *models.SecretConfigEntry) error {
	if e.Description == "" {
		prev, err := r.Get(ctx, e.Key)
		switch {
		case err == nil:
			e.Description = prev.Description
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}
	}
	e.UpdatedAt = r.now().UTC()

	body, err := json.Marshal(object{
		Key:         e.Key,
		Value:       e.Value,
		Sealed:      e.Sealed,
		Description: e.Description,
		UpdatedAt:   e.UpdatedAt,
	})
	if err != nil {
		return err
	}

	_, err = r.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.objectKey(e.Key)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 error: %w", err)
	}
	return nil
}

func (r *S3Repository) Get(ctx context.Context, key string) (*models.SecretConfigEntry, error) {
	out, err := r.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("s3 error: %w", err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 error: %w", err)
	}

	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("%w %q: %w", errCorruptObject, key, err)
	}

	return &models.SecretConfigEntry{
		Key:         key,
		Value:       o.Value,
		Sealed:      o.Sealed,
		Description: o.Description,
		UpdatedAt:   o.UpdatedAt,
	}, nil
}

func (r *S3Repository) Delete(ctx context.Context, key string) error {
	_, err := r.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("s3 error: %w", err)
	}
	return nil
}

func (r *S3Repository) List(ctx context.Context) ([]*models.SecretConfigEntry, error) {
	p := s3.NewListObjectsV2Paginator(r.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(r.prefix),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 error: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), r.prefix))
		}
	}
	sort.Strings(keys)

	entries := make([]*models.SecretConfigEntry, 0, len(keys))
	for _, k := range keys {
		e, err := r.Get(ctx, k)
		if errors.Is(err, common.ErrorNotFound) {
			// deleted between list and get
			continue
		}
		if errors.Is(err, errCorruptObject) {
			r.logger.Warn(ctx, "skipping undecodable secret config object", "key", k, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
