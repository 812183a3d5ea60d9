package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/photobooth/photobooth-api/internal/config"
	"github.com/photobooth/photobooth-api/internal/domain/feed"
	"github.com/photobooth/photobooth-api/internal/domain/photo"
	"github.com/photobooth/photobooth-api/internal/pkg/storage"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	cfg := &config.Config{
		AllowedOrigins:  []string{"http://localhost:5173"},
		UploadURLPrefix: "/uploads",
		MaxUploadSize:   1 << 20,
	}
	store, err := storage.NewLocalStorage(t.TempDir(), cfg.UploadURLPrefix)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	hub := feed.NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	svc := photo.NewService(photo.NewMemoryRepository(), store, hub, "http://booth.local")
	return newRouter(cfg, photo.NewHandler(svc, cfg.MaxUploadSize), feed.NewHandler(hub, cfg.AllowedOrigins), store)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("health = %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestUploadedFilesAreServed(t *testing.T) {
	r := newTestRouter(t)
	frame := pngBytes(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("photos", "frame.png")
	part.Write(frame)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rr.Code, rr.Body.String())
	}

	var created photo.Photo
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(created.FilePath, "/uploads/") {
		t.Fatalf("filePath = %q", created.FilePath)
	}

	for _, p := range []string{created.FilePath, created.QRCode} {
		rr = httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, p, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", p, rr.Code)
		}
	}
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, created.FilePath, nil))
	if !bytes.Equal(rr.Body.Bytes(), frame) {
		t.Fatal("served file differs from upload")
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/share/"+created.ShareID, nil))
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != created.FilePath {
		t.Fatalf("share = %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/share/"+created.ShareID, nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), created.ShareID) {
		t.Fatalf("api share = %d %s", rr.Code, rr.Body.String())
	}
}

func TestFeedRouteIsNotAPhotoID(t *testing.T) {
	r := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/photos/feed", nil))
	if strings.Contains(rr.Body.String(), "Invalid photo ID") {
		t.Fatalf("feed routed to photo handler: %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/filters", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"sepia"`) {
		t.Fatalf("filters = %d %s", rr.Code, rr.Body.String())
	}
}
