package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	maxAvatarSize    = 5 * 1024 * 1024
	avatarPathPrefix = "avatars"
	sniffLen         = 512
)

var (
	ErrFileTooBig           = errors.New("file size exceeds 5MB limit")
	ErrInvalidFileType      = errors.New("invalid file type, only JPEG and PNG images are allowed")
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrDeleteFailed         = errors.New("failed to delete file")
	ErrUnauthorizedAccess   = errors.New("unauthorized access to resource")
)

// avatarExtensions maps accepted sniffed content types to object suffixes.
var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// StorageService stores avatar images for identities.
type StorageService interface {
	// UploadAvatar stores the image and returns its object key.
	UploadAvatar(ctx context.Context, userID string, file io.Reader, fileSize int64) (string, error)
	// DeleteAvatar removes objectKey when it lives under the user's prefix.
	DeleteAvatar(ctx context.Context, userID, objectKey string) error
	// ObjectURL is the public URL stored in the identity image field.
	ObjectURL(objectKey string) string
	// ObjectKeyFromURL reverses ObjectURL for URLs served by this store.
	ObjectKeyFromURL(rawURL string) (string, bool)
}

type MinIOStorageService struct {
	client     *minio.Client
	bucketName string
	baseURL    string

	mu          sync.Mutex
	bucketReady bool
}

// NewMinIOStorageService creates the client without contacting the server.
// The bucket is created on first use.
func NewMinIOStorageService(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOStorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOStorageService{
		client:     client,
		bucketName: bucketName,
		baseURL:    strings.TrimRight(client.EndpointURL().String(), "/") + "/" + bucketName,
	}, nil
}

// ensureBucket creates the bucket once it is reachable. A failed attempt is
// retried on the next call.
func (s *MinIOStorageService) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}
	s.bucketReady = true
	return nil
}

// UploadAvatar sniffs the content type from the bytes themselves and
// rejects anything that is not JPEG or PNG before touching the server.
func (s *MinIOStorageService) UploadAvatar(ctx context.Context, userID string, file io.Reader, fileSize int64) (string, error) {
	if fileSize > maxAvatarSize {
		return "", ErrFileTooBig
	}
	head, contentType, err := sniffImage(file)
	if err != nil {
		return "", err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	objectKey := avatarPrefix(userID) + uuid.NewString() + avatarExtensions[contentType]
	_, err = s.client.PutObject(ctx, s.bucketName, objectKey, io.MultiReader(bytes.NewReader(head), file), fileSize, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"User-ID":     userID,
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return objectKey, nil
}

func (s *MinIOStorageService) DeleteAvatar(ctx context.Context, userID, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	if !ownsAvatarKey(userID, objectKey) {
		return ErrUnauthorizedAccess
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (s *MinIOStorageService) ObjectURL(objectKey string) string {
	return s.baseURL + "/" + objectKey
}

func (s *MinIOStorageService) ObjectKeyFromURL(rawURL string) (string, bool) {
	key, ok := strings.CutPrefix(rawURL, s.baseURL+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// sniffImage reads the leading bytes of file and returns them with the
// detected content type. The caller must replay head before the rest of file.
func sniffImage(file io.Reader) (head []byte, contentType string, err error) {
	head = make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", fmt.Errorf("%w: read file for content detection: %v", ErrUploadFailed, err)
	}
	head = head[:n]
	contentType = strings.ToLower(strings.TrimSpace(http.DetectContentType(head)))
	if _, ok := avatarExtensions[contentType]; !ok {
		return nil, "", ErrInvalidFileType
	}
	return head, contentType, nil
}

func avatarPrefix(userID string) string {
	return avatarPathPrefix + "/user-" + userID + "/"
}

func ownsAvatarKey(userID, objectKey string) bool {
	return !strings.Contains(objectKey, "..") && strings.HasPrefix(objectKey, avatarPrefix(userID))
}
