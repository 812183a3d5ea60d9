package photo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/photobooth/photobooth-api/internal/pkg/storage"
)

type testServer struct {
	router http.Handler
	dir    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir, "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(NewService(NewMemoryRepository(), store, nil, ""), 1<<20)

	r := chi.NewRouter()
	r.Mount("/api/photos", h.Routes())
	r.Mount("/share", h.ShareRoutes())
	r.Get("/api/filters", h.Filters)
	return &testServer{router: r, dir: dir}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) files(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, fields map[string]string, files ...[]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for i, data := range files {
		fw, err := mw.CreateFormFile("photos", fmt.Sprintf("photo-%d.jpg", i))
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func decodePhoto(t *testing.T, rec *httptest.ResponseRecorder) Photo {
	t.Helper()
	var p Photo
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return p
}

func TestCreateWithoutPhotos(t *testing.T) {
	s := newTestServer(t)

	t.Run("multipart without files", func(t *testing.T) {
		rec := s.do(uploadRequest(t, map[string]string{"type": "single"}))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		if msg := decodeMessage(t, rec)["message"]; msg != "No photos uploaded" {
			t.Fatalf("message = %v", msg)
		}
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/photos", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rec := s.do(req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		if msg := decodeMessage(t, rec)["message"]; msg != "No photos uploaded" {
			t.Fatalf("message = %v", msg)
		}
	})
}

func TestCreateSingle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(uploadRequest(t, map[string]string{"type": "single"}, jpegBytes(t)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	p := decodePhoto(t, rec)
	if p.ID <= 0 || len(p.PhotoURLs) != 1 || p.QRCode == "" {
		t.Fatalf("unexpected photo: %+v", p)
	}
	if p.Type != TypeSingle || p.Filter != "normal" || p.Background != "none" {
		t.Fatalf("defaults not applied: %+v", p)
	}
	if !strings.HasPrefix(p.FilePath, "/uploads/") || !strings.HasSuffix(p.FilePath, ".jpg") {
		t.Fatalf("filePath = %q", p.FilePath)
	}
	if !strings.HasPrefix(p.QRCode, "/uploads/qr-") {
		t.Fatalf("qrCode = %q", p.QRCode)
	}
	if n := s.files(t); n != 2 {
		t.Fatalf("%d files on disk, want image + qr", n)
	}

	second := decodePhoto(t, s.do(uploadRequest(t, nil, jpegBytes(t))))
	if second.ID == p.ID {
		t.Fatal("id returned twice")
	}
}

func TestCreateRejectsInvalidUploadWithoutWriting(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"strip with one frame", uploadRequest(t, map[string]string{"type": "strip"}, jpegBytes(t)), http.StatusBadRequest},
		{"unknown filter", uploadRequest(t, map[string]string{"filter": "comic"}, jpegBytes(t)), http.StatusBadRequest},
		{"not an image", uploadRequest(t, nil, []byte("hello world")), http.StatusBadRequest},
		{"too many frames", uploadRequest(t, map[string]string{"type": "strip"}, jpegBytes(t), jpegBytes(t), jpegBytes(t), jpegBytes(t)), http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := s.do(tc.req)
		if rec.Code != tc.status {
			t.Fatalf("%s: status = %d body = %s", tc.name, rec.Code, rec.Body.String())
		}
		if n := s.files(t); n != 0 {
			t.Fatalf("%s: %d files written", tc.name, n)
		}
	}

	body := decodeMessage(t, s.do(uploadRequest(t, map[string]string{"type": "strip"}, jpegBytes(t))))
	if body["message"] != "Invalid photo data" {
		t.Fatalf("message = %v", body["message"])
	}
	if errs, ok := body["errors"].([]interface{}); !ok || len(errs) == 0 {
		t.Fatalf("errors = %v", body["errors"])
	}
}

func TestCreateStrip(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(uploadRequest(t, map[string]string{"type": "strip", "filter": "bw"}, jpegBytes(t), jpegBytes(t), jpegBytes(t)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	p := decodePhoto(t, rec)
	if len(p.PhotoURLs) != 3 || p.FilePath != p.PhotoURLs[0] {
		t.Fatalf("unexpected photo: %+v", p)
	}
}

func TestGetAndDelete(t *testing.T) {
	s := newTestServer(t)
	p := decodePhoto(t, s.do(uploadRequest(t, nil, jpegBytes(t))))
	path := fmt.Sprintf("/api/photos/%d", p.ID)

	rec := s.do(httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusOK || decodePhoto(t, rec).ID != p.ID {
		t.Fatalf("GET = %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(httptest.NewRequest(http.MethodDelete, path, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first DELETE = %d", rec.Code)
	}
	if msg := decodeMessage(t, rec)["message"]; msg != "Photo deleted successfully" {
		t.Fatalf("message = %v", msg)
	}
	if n := s.files(t); n != 0 {
		t.Fatalf("%d files left after delete", n)
	}

	rec = s.do(httptest.NewRequest(http.MethodDelete, path, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second DELETE = %d", rec.Code)
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET deleted = %d", rec.Code)
	}
	if msg := decodeMessage(t, rec)["message"]; msg != "Photo not found" {
		t.Fatalf("message = %v", msg)
	}
}

func TestInvalidID(t *testing.T) {
	s := newTestServer(t)
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := s.do(httptest.NewRequest(method, "/api/photos/abc", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d", method, rec.Code)
		}
		if msg := decodeMessage(t, rec)["message"]; msg != "Invalid photo ID" {
			t.Fatalf("message = %v", msg)
		}
	}
}

func TestListNewestFirst(t *testing.T) {
	s := newTestServer(t)
	var ids []int64
	for i := 0; i < 3; i++ {
		ids = append(ids, decodePhoto(t, s.do(uploadRequest(t, nil, jpegBytes(t)))).ID)
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/photos", nil))
	var list []Photo
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d", len(list))
	}
	for i, p := range list {
		if p.ID != ids[len(ids)-1-i] {
			t.Fatalf("position %d holds id %d", i, p.ID)
		}
	}
}

func TestListEmptyIsArray(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/photos", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("GET = %d %q", rec.Code, rec.Body.String())
	}
}

func TestShareRedirect(t *testing.T) {
	s := newTestServer(t)
	p := decodePhoto(t, s.do(uploadRequest(t, nil, jpegBytes(t))))

	rec := s.do(httptest.NewRequest(http.MethodGet, "/share/"+p.ShareID, nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != p.FilePath {
		t.Fatalf("share = %d -> %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/share/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown share = %d", rec.Code)
	}
}

func TestFilters(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/filters", nil))
	var opts []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &opts); err != nil || len(opts) != 3 || opts[0].ID != "normal" {
		t.Fatalf("filters = %s (%v)", rec.Body.String(), err)
	}
}
