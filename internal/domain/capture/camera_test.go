package capture

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFileCamera(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := FileCamera{Path: path}.Capture(context.Background())
	if err != nil || string(data) != "jpeg" {
		t.Fatalf("Capture = %q, %v", data, err)
	}

	if _, err := (FileCamera{Path: path + ".missing"}).Capture(context.Background()); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}

func TestHTTPCamera(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/snapshot.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("frame"))
	}))
	defer srv.Close()

	data, err := NewHTTPCamera(srv.URL + "/snapshot.jpg").Capture(context.Background())
	if err != nil || string(data) != "frame" {
		t.Fatalf("Capture = %q, %v", data, err)
	}

	if _, err := NewHTTPCamera(srv.URL + "/other").Capture(context.Background()); err == nil {
		t.Fatal("expected error for non-200 snapshot")
	}
}

func TestCamerasRejectOversizeFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := (FileCamera{Path: path, MaxBytes: 3}).Capture(context.Background()); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("file camera err = %v, want ErrFrameTooLarge", err)
	}
	if data, err := (FileCamera{Path: path, MaxBytes: 4}).Capture(context.Background()); err != nil || string(data) != "jpeg" {
		t.Fatalf("frame at the limit = %q, %v", data, err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("frame"))
	}))
	defer srv.Close()

	cam := NewHTTPCamera(srv.URL)
	cam.MaxBytes = 3
	if _, err := cam.Capture(context.Background()); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("http camera err = %v, want ErrFrameTooLarge", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("strip"); err != nil || m != ModeStrip {
		t.Fatalf("ParseMode(strip) = %q, %v", m, err)
	}
	if _, err := ParseMode("burst"); err == nil {
		t.Fatal("expected error")
	}
}
