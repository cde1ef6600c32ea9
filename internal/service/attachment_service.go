package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"doctrack/internal/config"
	"doctrack/internal/domain"
	"doctrack/internal/port"
)

// allowedAttachmentTypes maps accepted extensions to the content type sniffed from the file.
var allowedAttachmentTypes = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
}

// AttachmentUploadInput is the DTO for attachment uploads.
type AttachmentUploadInput struct {
	File   multipart.File
	Header *multipart.FileHeader
}

// Attachment is a stored attachment. Key is what documents reference in their attachment list.
type Attachment struct {
	Key          string `json:"key"`
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
	Location     string `json:"location"`
}

// AttachmentService stores document attachments and issues time-limited download links.
type AttachmentService interface {
	Upload(ctx context.Context, actor domain.Actor, input AttachmentUploadInput) (*Attachment, error)
	DownloadURL(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, actor domain.Actor, key string) error
}

type attachmentService struct {
	storage port.ObjectStorage
	cfg     *config.S3Config
	log     *zap.Logger
}

// NewAttachmentService creates a new AttachmentService implementation.
func NewAttachmentService(storage port.ObjectStorage, cfg *config.S3Config, log *zap.Logger) AttachmentService {
	return &attachmentService{storage: storage, cfg: cfg, log: log}
}

func ownerPrefix(userID int64) string {
	return fmt.Sprintf("attachments/%d/", userID)
}

func (s *attachmentService) Upload(ctx context.Context, actor domain.Actor, input AttachmentUploadInput) (*Attachment, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	contentType, ok := allowedAttachmentTypes[ext]
	if !ok {
		return nil, domain.ErrUnsupportedFile
	}
	if maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024; maxBytes > 0 && input.Header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	buf := make([]byte, 512)
	n, err := input.File.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading file header: %w", err)
	}
	if http.DetectContentType(buf[:n]) != contentType {
		return nil, domain.ErrUnsupportedFile
	}
	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}

	key := fmt.Sprintf("%s%s.%s", ownerPrefix(actor.UserID), uuid.New(), ext)
	location, err := s.storage.Put(ctx, port.AttachmentObject{
		Key:         key,
		Body:        input.File,
		ContentType: contentType,
		Size:        input.Header.Size,
	})
	if err != nil {
		s.log.Error("attachment upload failed", zap.String("key", key), zap.Error(err))
		return nil, domain.ErrUploadFailed
	}

	s.log.Info("attachment uploaded",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int64("size", input.Header.Size),
		zap.Int64("user_id", actor.UserID))
	return &Attachment{
		Key:          key,
		OriginalName: input.Header.Filename,
		ContentType:  contentType,
		Size:         input.Header.Size,
		Location:     location,
	}, nil
}

func (s *attachmentService) DownloadURL(ctx context.Context, key string) (string, error) {
	if !strings.HasPrefix(key, "attachments/") || strings.Contains(key, "..") {
		return "", domain.Validationf("invalid attachment key")
	}
	ttl := time.Duration(s.cfg.PresignExpiry) * time.Second
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	url, err := s.storage.PresignGet(ctx, key, ttl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return url, nil
}

// Remove deletes an attachment uploaded by the actor.
func (s *attachmentService) Remove(ctx context.Context, actor domain.Actor, key string) error {
	if !strings.HasPrefix(key, ownerPrefix(actor.UserID)) || strings.Contains(key, "..") {
		return domain.ErrUnauthorized
	}
	if err := s.storage.Remove(ctx, key); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	s.log.Info("attachment removed", zap.String("key", key), zap.Int64("user_id", actor.UserID))
	return nil
}
