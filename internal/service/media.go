package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime/multipart"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"snapfeed/internal/config"
	"snapfeed/internal/model"
)

// jpegQuality is the re-encode quality for uploaded post images.
const jpegQuality = 85

// MediaService uploads post images to Cloudflare R2 through the S3 API.
// Every upload is re-encoded to JPEG and bounded to PostImageMaxWidth, so
// stored objects never exceed the display size.
type MediaService struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewMediaService creates a MediaService targeting the configured R2 bucket.
func NewMediaService(cfg *config.Config) (*MediaService, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &MediaService{
		client:    client,
		bucket:    cfg.R2BucketName,
		publicURL: cfg.R2PublicURL,
	}, nil
}

// UploadPostImage validates, normalizes and stores one post image, and
// returns its public URL.
func (s *MediaService) UploadPostImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error) {
	if header.Size > model.MaxPostImageSize {
		return nil, model.ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if !model.IsAllowedImageType(contentType) {
		return nil, model.ErrInvalidImageType
	}

	// Decode rather than trust the declared content type.
	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, model.ErrInvalidImageType
	}

	if img.Bounds().Dx() > model.PostImageMaxWidth {
		img = imaging.Resize(img, model.PostImageMaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	key := fmt.Sprintf("%s/%s%s", model.PostImageFolder, uuid.NewString(), model.PostImageExt)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(buf.Bytes()),
		ContentType:  aws.String(model.ContentTypeJPEG),
		CacheControl: aws.String(model.ImageCacheControl),
	})
	if err != nil {
		log.Printf("[MediaService] PutObject FAILED: key=%s err=%v", key, err)
		return nil, fmt.Errorf("upload image: %w", err)
	}

	return &model.UploadResult{
		URL: fmt.Sprintf("%s/%s", s.publicURL, key),
		Key: key,
	}, nil
}

// DeletePostImage removes an uploaded object. Best-effort cleanup when a
// post is deleted.
func (s *MediaService) DeletePostImage(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}
