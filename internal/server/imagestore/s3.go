// Package imagestore hosts campground images in S3-compatible object storage
// (MinIO in development). Uploads are decoded first, so only real images are
// stored, and anything wider than the configured maximum is scaled down.
package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/dmitrijs2005/yelpcamp/internal/common"
	sc "github.com/dmitrijs2005/yelpcamp/internal/server/config"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var contentTypes = map[imaging.Format]string{
	imaging.JPEG: "image/jpeg",
	imaging.PNG:  "image/png",
	imaging.GIF:  "image/gif",
}

// S3Store implements services.ImageStore.
type S3Store struct {
	client        objectAPI
	bucket        string
	publicBaseURL string
	maxWidth      int
	now           func() time.Time
}

// New builds a store from the server configuration. The client uses
// path-style addressing so that MinIO endpoints work unchanged.
func New(ctx context.Context, cfg *sc.Config) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{
		client:        client,
		bucket:        cfg.S3Bucket,
		publicBaseURL: strings.TrimRight(cfg.S3PublicBaseURL, "/"),
		maxWidth:      cfg.ImageMaxWidth,
		now:           time.Now,
	}, nil
}

func (s *S3Store) storageKey(ext string) string {
	d := s.now()
	return fmt.Sprintf("campgrounds/%d/%d/%d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func invalidImage(cause error) error {
	return common.NewUserError(common.ErrorValidation, "Only image files are allowed!", cause)
}

// Upload validates and stores an image. The returned ID is the object key.
func (s *S3Store) Upload(ctx context.Context, filename string, data []byte) (*models.Image, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, invalidImage(err)
	}
	contentType, ok := contentTypes[format]
	if !ok {
		return nil, invalidImage(nil)
	}

	body, err := s.prepare(data, format)
	if err != nil {
		return nil, err
	}

	key := s.storageKey(ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	return &models.Image{URL: s.publicBaseURL + "/" + key, ID: key}, nil
}

// prepare decodes data and, for still images wider than maxWidth, re-encodes
// a scaled copy. GIFs are stored as uploaded to keep animation.
func (s *S3Store) prepare(data []byte, format imaging.Format) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, invalidImage(err)
	}

	if format == imaging.GIF || s.maxWidth <= 0 || img.Bounds().Dx() <= s.maxWidth {
		return data, nil
	}

	scaled := imaging.Resize(img, s.maxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, format); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Destroy deletes the object stored under id. Deleting a missing object is
// not an error in S3.
func (s *S3Store) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
