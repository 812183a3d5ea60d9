package main

import (
	"context"

	"github.com/photobooth/photobooth-api/internal/domain/capture"
	"github.com/photobooth/photobooth-api/internal/pkg/boothclient"
)

// apiPersister stores captured frames through the photo API
type apiPersister struct {
	client *boothclient.Client
}

func (p *apiPersister) Persist(ctx context.Context, upload capture.Upload) (*capture.Record, error) {
	photo, err := p.client.Upload(ctx, boothclient.UploadRequest{
		Type:       string(upload.Mode),
		Filter:     upload.Filter,
		Background: upload.Background,
		Frames:     upload.Frames,
	})
	if err != nil {
		return nil, err
	}

	urls := make([]string, len(photo.PhotoURLs))
	for i, u := range photo.PhotoURLs {
		urls[i] = p.client.ResolveURL(u)
	}
	return &capture.Record{
		ID:        photo.ID,
		FilePath:  p.client.ResolveURL(photo.FilePath),
		PhotoURLs: urls,
		QRCode:    p.client.ResolveURL(photo.QRCode),
	}, nil
}
