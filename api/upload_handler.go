package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// multipart framing on top of the image itself
const multipartOverhead = 1 << 20

type uploadHandler struct {
	responder Responder
	logger    zerolog.Logger
	uploader  ImageUploader
}

func newUploadHandler(uploader ImageUploader) uploadHandler {
	logger := log.With().Str("handlerName", "uploadHandler").Logger()

	return uploadHandler{
		responder: NewResponder(logger),
		logger:    logger,
		uploader:  uploader,
	}
}

// uploadImage stores an image for use in a room's posts
// @Summary Upload image
// @Description Uploads a jpeg, png, gif or webp image of at most 5MB for a room the caller belongs to
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Param roomId formData string true "Room ID" format(uuid)
// @Success 200 {object} services.UploadedImage "Stored image"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing or invalid file"
// @Failure 403 {object} ErrorResponse "Forbidden - Not a member of the room"
// @Failure 503 {object} ErrorResponse "Service Unavailable - Storage not configured"
// @Router /upload/image [post]
func (h uploadHandler) uploadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.uploader == nil {
			h.responder.WriteError(w, errs.NewServiceUnavailableError("image storage"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageSize+multipartOverhead)
		if err := r.ParseMultipartForm(services.MaxImageSize); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.responder.WriteError(w, errs.NewValidationError("file", "File size must be less than 5MB"))
				return
			}
			h.responder.WriteError(w, errs.NewBadRequestErrorWithDetails("multipart form malformed", err.Error()))
			return
		}
		defer r.MultipartForm.RemoveAll()

		roomID, err := uuid.Parse(r.FormValue("roomId"))
		if err != nil {
			h.responder.WriteError(w, errs.NewValidationError("roomId", "roomId must be a UUID"))
			return
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			h.responder.WriteError(w, errs.NewValidationError("file", "No file provided"))
			return
		}
		defer file.Close()

		image, err := h.uploader.Upload(r.Context(), callerID(r.Context()), roomID, file)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, image)
	}
}
