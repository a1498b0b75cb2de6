package model

import "errors"

const (
	MaxPhotoSizeBytes = 5 * 1024 * 1024
	PhotoWidth        = 400
	PhotoHeight       = 400
	PhotoExt          = ".jpg"
	PhotoCacheControl = "public, max-age=31536000" // 1 year
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
)

var (
	ErrFileTooLarge       = errors.New("file too large")
	ErrInvalidImageType   = errors.New("invalid image type")
	ErrStorageUnavailable = errors.New("media storage is not configured")
)

// PhotoFolder is the bucket prefix for an actor's profile photos.
func PhotoFolder(kind ActorKind) string {
	return string(kind) + "s/photos"
}

// UploadResult represents the uploaded object location.
// Key is the object key inside the bucket, kept for later deletes.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignPostUploadRequest asks for a URL the client can PUT post media to.
type PresignPostUploadRequest struct {
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
}

type PresignPostUploadResponse struct {
	UploadURL  string `json:"upload_url"`
	PublicURL  string `json:"public_url"`
	Key        string `json:"key"`
	ExpiresInS int    `json:"expires_in"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
