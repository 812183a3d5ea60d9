package photo

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/photobooth/photobooth-api/internal/pkg/sharelink"
	"github.com/photobooth/photobooth-api/internal/pkg/storage"
	"github.com/photobooth/photobooth-api/internal/pkg/validator"
)

// Feed event types
const (
	EventPhotoCreated = "photo.created"
	EventPhotoDeleted = "photo.deleted"
)

// Publisher receives photo lifecycle events
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{})
}

// DeletedPayload is published when a photo is removed
type DeletedPayload struct {
	ID int64 `json:"id"`
}

// Service handles photo business logic
type Service struct {
	repo      Repository
	storage   storage.Storage
	publisher Publisher
	baseURL   string
	qrSize    int
	now       func() time.Time
}

// NewService creates photo service. baseURL overrides the request host in share links.
func NewService(repo Repository, store storage.Storage, publisher Publisher, baseURL string) *Service {
	return &Service{
		repo:      repo,
		storage:   store,
		publisher: publisher,
		baseURL:   baseURL,
		qrSize:    sharelink.DefaultQRSize,
		now:       time.Now,
	}
}

// List returns every photo, newest first
func (s *Service) List(ctx context.Context) ([]*Photo, error) {
	return s.repo.List(ctx)
}

// GetByID returns a photo or ErrPhotoNotFound
func (s *Service) GetByID(ctx context.Context, id int64) (*Photo, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPhotoNotFound
	}
	return p, nil
}

// GetByShareID resolves a share token printed in a QR code
func (s *Service) GetByShareID(ctx context.Context, token string) (*Photo, error) {
	token, err := sharelink.ParseToken(token)
	if err != nil {
		return nil, ErrPhotoNotFound
	}
	p, err := s.repo.GetByShareID(ctx, token)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPhotoNotFound
	}
	return p, nil
}

// Create validates the upload, writes frames and the QR code, then inserts the record.
// Nothing is written when validation fails; files written before a later failure are removed.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Photo, error) {
	if len(req.Frames) == 0 {
		return nil, ErrNoPhotos
	}

	if req.Type == "" {
		req.Type = string(DefaultType)
	}
	if req.Filter == "" {
		req.Filter = DefaultFilter
	}
	if req.Background == "" {
		req.Background = DefaultBackground
	}

	// Name every file up front so the full record can be validated first
	frameKeys := make([]string, len(req.Frames))
	urls := make([]string, len(req.Frames))
	for i, f := range req.Frames {
		frameKeys[i] = s.frameKey(f.MimeType)
		urls[i] = s.storage.GetURL(frameKeys[i])
	}
	qrKey := sharelink.QRFileName()
	token := sharelink.NewToken()

	np := &NewPhoto{
		Type:       Type(req.Type),
		Filter:     req.Filter,
		Background: req.Background,
		FilePath:   urls[0],
		PhotoURLs:  urls,
		QRCode:     s.storage.GetURL(qrKey),
		ShareID:    token,
	}
	if err := validatePhoto(np); err != nil {
		return nil, err
	}

	qr, err := sharelink.QRCode(sharelink.URL(s.shareBase(req.BaseURL), token), s.qrSize)
	if err != nil {
		return nil, err
	}

	var written []string
	cleanup := func() {
		for _, key := range written {
			if err := s.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
				log.Error().Err(err).Str("key", key).Msg("Failed to remove file after aborted upload")
			}
		}
	}

	for i, f := range req.Frames {
		if err := s.storage.Put(ctx, frameKeys[i], bytes.NewReader(f.Data), f.MimeType); err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to store frame %d: %w", i, err)
		}
		written = append(written, frameKeys[i])
	}

	if err := s.storage.Put(ctx, qrKey, bytes.NewReader(qr), "image/png"); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to store qr code: %w", err)
	}
	written = append(written, qrKey)

	p, err := s.repo.Create(ctx, np)
	if err != nil {
		cleanup()
		return nil, err
	}

	log.Info().
		Int64("photo_id", p.ID).
		Str("type", string(p.Type)).
		Str("filter", p.Filter).
		Int("frames", len(p.PhotoURLs)).
		Msg("Photo created")

	s.publish(ctx, EventPhotoCreated, p)
	return p, nil
}

// Delete removes the record's files, then the record
func (s *Service) Delete(ctx context.Context, id int64) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrPhotoNotFound
	}

	for _, key := range p.FileKeys() {
		if err := s.storage.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		// removed concurrently
		return ErrPhotoNotFound
	}

	log.Info().Int64("photo_id", id).Msg("Photo deleted")
	s.publish(ctx, EventPhotoDeleted, DeletedPayload{ID: id})
	return nil
}

func (s *Service) frameKey(mimeType string) string {
	ext := storage.ExtensionFor(mimeType)
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), sharelink.RandomSuffix(6), ext)
}

func (s *Service) shareBase(requestBase string) string {
	if s.baseURL != "" {
		return s.baseURL
	}
	if requestBase != "" {
		return requestBase
	}
	return "http://localhost"
}

func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, eventType, payload)
}

// validatePhoto checks the record schema and that the frame count matches the type
func validatePhoto(np *NewPhoto) error {
	errs := validator.Validate(np)

	if want := np.Type.FrameCount(); want > 0 && len(np.PhotoURLs) != want {
		errs = append(errs, validator.FieldError{
			Field:   "photoUrls",
			Message: fmt.Sprintf("%s photos need exactly %d frame(s), got %d", np.Type, want, len(np.PhotoURLs)),
		})
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
