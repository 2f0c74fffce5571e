package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/amirphl/photo-moderation/config"
	"github.com/amirphl/photo-moderation/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MediaStore is the remote image host. Asset ids are object keys.
type MediaStore interface {
	UploadAsset(ctx context.Context, upload AssetUpload) (*UploadResult, error)
	DeleteAsset(ctx context.Context, assetID string) error
}

// AssetUpload describes an image to store
type AssetUpload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// UploadResult is where an uploaded asset can be fetched from
type UploadResult struct {
	URL     string
	AssetID string
}

// S3MediaStore implements MediaStore on an S3 compatible bucket
type S3MediaStore struct {
	client        *s3.Client
	uploader      *manager.Uploader
	bucket        string
	publicBaseURL string
}

// NewS3MediaStore creates a media store for the configured bucket
func NewS3MediaStore(ctx context.Context, cfg config.StorageConfig) (*S3MediaStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3MediaStore{
		client:        client,
		uploader:      manager.NewUploader(client),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// UploadAsset stores the image under a fresh key
func (s *S3MediaStore) UploadAsset(ctx context.Context, upload AssetUpload) (*UploadResult, error) {
	key := NewAssetKey(upload.FileName)

	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        upload.Body,
		ContentType: aws.String(upload.ContentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	url := out.Location
	if s.publicBaseURL != "" {
		url = s.publicBaseURL + "/" + key
	}

	return &UploadResult{URL: url, AssetID: key}, nil
}

// DeleteAsset removes the object. Deleting a missing key succeeds.
func (s *S3MediaStore) DeleteAsset(ctx context.Context, assetID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(assetID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", assetID, err)
	}
	return nil
}

// NewAssetKey builds photos/<uuid>.<ext> keeping the file's extension
func NewAssetKey(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		ext = ".jpg"
	}
	return utils.PhotoKeyPrefix + uuid.NewString() + ext
}
