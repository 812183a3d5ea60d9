package photo

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/photobooth/photobooth-api/internal/pkg/errorhandler"
	"github.com/photobooth/photobooth-api/internal/pkg/imaging"
	"github.com/photobooth/photobooth-api/internal/pkg/response"
	"github.com/photobooth/photobooth-api/internal/pkg/storage"
	"github.com/photobooth/photobooth-api/internal/pkg/validator"
)

// Handler handles photo HTTP requests
type Handler struct {
	service       *Service
	maxUploadSize int64
}

// NewHandler creates photo handler. maxUploadSize bounds each photo part.
func NewHandler(service *Service, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = 20 << 20
	}
	return &Handler{service: service, maxUploadSize: maxUploadSize}
}

// List handles GET /api/photos
// @Summary List photos, newest first
// @Tags Photo
// @Produce json
// @Success 200 {array} Photo
// @Router /api/photos [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	photos, err := h.service.List(r.Context())
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "Error fetching photos", err)
		return
	}
	response.OK(w, photos)
}

// Get handles GET /api/photos/{id}
// @Summary Get a photo
// @Tags Photo
// @Produce json
// @Param id path int true "Photo ID"
// @Success 200 {object} Photo
// @Failure 400,404 {object} response.ErrorBody
// @Router /api/photos/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid photo ID")
		return
	}

	photo, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPhotoNotFound) {
			response.NotFound(w, "Photo not found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "Error fetching photo", err)
		return
	}

	response.OK(w, photo)
}

// Create handles POST /api/photos
// @Summary Persist captured frames
// @Tags Photo
// @Accept multipart/form-data
// @Produce json
// @Param photos formData file true "1 frame for single, 3 for strip"
// @Param type formData string false "single or strip"
// @Param filter formData string false "normal, bw or sepia"
// @Param background formData string false "Decorative tag"
// @Success 201 {object} Photo
// @Failure 400,500 {object} response.ErrorBody
// @Router /api/photos [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize*MaxFrames+(1<<20))

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			// nothing attached
		case errors.As(err, &tooLarge):
			response.Error(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		default:
			response.BadRequest(w, "Invalid multipart form")
			return
		}
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	files := formFiles(r)
	if len(files) == 0 {
		response.BadRequest(w, "No photos uploaded")
		return
	}
	if len(files) > MaxFrames {
		response.BadRequest(w, fmt.Sprintf("Too many photos uploaded (max %d)", MaxFrames))
		return
	}

	req := &CreateRequest{
		Type:       r.FormValue("type"),
		Filter:     r.FormValue("filter"),
		Background: r.FormValue("background"),
		BaseURL:    requestBaseURL(r),
	}

	var fieldErrs []validator.FieldError
	for i, fh := range files {
		frame, err := h.readFrame(fh)
		if err != nil {
			fieldErrs = append(fieldErrs, validator.FieldError{
				Field:   fmt.Sprintf("photos[%d]", i),
				Message: err.Error(),
			})
			continue
		}
		req.Frames = append(req.Frames, frame)
	}
	if len(fieldErrs) > 0 {
		errorhandler.HandleErrorWithDetails(r.Context(), w, http.StatusBadRequest, "Invalid photo data", fieldErrs, nil)
		return
	}

	photo, err := h.service.Create(r.Context(), req)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			errorhandler.HandleErrorWithDetails(r.Context(), w, http.StatusBadRequest, "Invalid photo data", verr.Errors, nil)
		case errors.Is(err, ErrNoPhotos):
			response.BadRequest(w, "No photos uploaded")
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "Error creating photo", err)
		}
		return
	}

	response.Created(w, photo)
}

// Delete handles DELETE /api/photos/{id}
// @Summary Delete a photo and its files
// @Tags Photo
// @Produce json
// @Param id path int true "Photo ID"
// @Success 200 {object} response.MessageBody
// @Failure 400,404,500 {object} response.ErrorBody
// @Router /api/photos/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid photo ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrPhotoNotFound) {
			response.NotFound(w, "Photo not found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "Failed to delete photo", err)
		return
	}

	response.Message(w, http.StatusOK, "Photo deleted successfully")
}

// Share handles GET /share/{token}: the QR target redirects to the primary image
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	photo, err := h.service.GetByShareID(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, ErrPhotoNotFound) {
			response.NotFound(w, "Photo not found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "Error fetching photo", err)
		return
	}
	http.Redirect(w, r, photo.FilePath, http.StatusFound)
}

// GetShared handles GET /api/share/{token}
func (h *Handler) GetShared(w http.ResponseWriter, r *http.Request) {
	photo, err := h.service.GetByShareID(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, ErrPhotoNotFound) {
			response.NotFound(w, "Photo not found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "Error fetching photo", err)
		return
	}
	response.OK(w, photo)
}

// Filters handles GET /api/filters
func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	response.OK(w, imaging.Filters())
}

func (h *Handler) readFrame(fh *multipart.FileHeader) (Frame, error) {
	f, err := fh.Open()
	if err != nil {
		return Frame{}, err
	}
	defer f.Close()

	data, mimeType, err := storage.ReadImage(f, h.maxUploadSize)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Data: data, MimeType: mimeType}, nil
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func formFiles(r *http.Request) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File["photos"]
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
