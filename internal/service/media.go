package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"gaman_backend/internal/config"
	"gaman_backend/internal/model"
)

// MediaStore is what the actor and post flows need from object storage.
type MediaStore interface {
	UploadPhoto(ctx context.Context, kind model.ActorKind, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)
	PresignPostUpload(ctx context.Context, req model.PresignPostUploadRequest) (*model.PresignPostUploadResponse, error)
	DeleteObject(ctx context.Context, key string) error
}

// MediaService stores photos and post media in Cloudflare R2.
type MediaService struct {
	s3Client   *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	publicURL  string
	presignTTL int
}

func NewMediaService(ctx context.Context, cfg config.StorageConfig) (*MediaService, error) {
	if !cfg.Enabled() {
		return nil, model.ErrStorageUnavailable
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config for r2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &MediaService{
		s3Client:   client,
		presigner:  s3.NewPresignClient(client, s3.WithPresignExpires(cfg.PresignTTL)),
		bucket:     cfg.R2BucketName,
		publicURL:  strings.TrimSuffix(cfg.R2PublicURL, "/"),
		presignTTL: int(cfg.PresignTTL.Seconds()),
	}, nil
}

// UploadPhoto validates the image, crops it to a square JPEG and stores it
// under the folder of the actor kind.
func (s *MediaService) UploadPhoto(ctx context.Context, kind model.ActorKind, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error) {
	data, _, err := readAndValidateImage(file, header, model.MaxPhotoSizeBytes)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := resizeToJPEG(data, model.PhotoWidth, model.PhotoHeight, 85)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", model.PhotoFolder(kind), uuid.NewString(), model.PhotoExt)
	if err := s.putObject(ctx, key, jpegBytes, model.ContentTypeJPEG, model.PhotoCacheControl); err != nil {
		return nil, err
	}

	return &model.UploadResult{URL: s.publicURL + "/" + key, Key: key}, nil
}

// PresignPostUpload hands out a short-lived PUT URL so clients upload post
// media straight to the bucket.
func (s *MediaService) PresignPostUpload(ctx context.Context, req model.PresignPostUploadRequest) (*model.PresignPostUploadResponse, error) {
	if !model.IsAllowedImageType(req.ContentType) {
		return nil, model.ErrInvalidImageType
	}
	if req.FileSize <= 0 || req.FileSize > model.MaxPostMediaSize {
		return nil, model.ErrFileTooLarge
	}

	key := fmt.Sprintf("%s/%s%s", model.PostMediaFolder, uuid.NewString(), extensionFor(req.ContentType))
	signed, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(req.ContentType),
		ContentLength: aws.Int64(req.FileSize),
	})
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return &model.PresignPostUploadResponse{
		UploadURL:  signed.URL,
		PublicURL:  s.publicURL + "/" + key,
		Key:        key,
		ExpiresInS: s.presignTTL,
	}, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case model.ContentTypePNG:
		return ".png"
	case model.ContentTypeGIF:
		return ".gif"
	case model.ContentTypeWebP:
		return ".webp"
	default:
		return ".jpg"
	}
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(file multipart.File, header *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if header.Size > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !model.IsAllowedImageType(contentType) {
		return nil, "", model.ErrInvalidImageType
	}

	return data, contentType, nil
}

// resizeToJPEG center-crops to the target size and encodes as JPEG.
func resizeToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *MediaService) putObject(ctx context.Context, key string, body []byte, contentType, cacheControl string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("upload to r2: %w", err)
	}
	return nil
}

// DeleteObject removes an object by key. An empty key is a no-op.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete from r2: %w", err)
	}
	return nil
}

// DisabledMedia stands in when R2 is not configured.
type DisabledMedia struct{}

func (DisabledMedia) UploadPhoto(context.Context, model.ActorKind, multipart.File, *multipart.FileHeader) (*model.UploadResult, error) {
	return nil, model.ErrStorageUnavailable
}

func (DisabledMedia) PresignPostUpload(context.Context, model.PresignPostUploadRequest) (*model.PresignPostUploadResponse, error) {
	return nil, model.ErrStorageUnavailable
}

func (DisabledMedia) DeleteObject(context.Context, string) error { return nil }
