package api

import (
	"net/http"

	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type aiHandler struct {
	responder Responder
	logger    zerolog.Logger
	generator DraftGenerator
}

func newAIHandler(generator DraftGenerator) aiHandler {
	logger := log.With().Str("handlerName", "aiHandler").Logger()

	return aiHandler{
		responder: NewResponder(logger),
		logger:    logger,
		generator: generator,
	}
}

// generate writes or revises a draft with the language model
// @Summary Generate draft
// @Description Generates a title, excerpt and content from context, or revises existingContent per changeRequest
// @Tags AI
// @Accept json
// @Produce json
// @Param request body services.GenerateInput true "Generation request"
// @Success 200 {object} services.GeneratedDraft "Generated draft"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid request"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Model call failed"
// @Failure 502 {object} ErrorResponse "Bad Gateway - Model replied with invalid content"
// @Failure 503 {object} ErrorResponse "Service Unavailable - AI not configured"
// @Router /ai/generate [post]
func (h aiHandler) generate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.generator == nil {
			h.responder.WriteError(w, errs.NewServiceUnavailableError("AI service"))
			return
		}

		var in services.GenerateInput
		if err := decodeJSON(w, r, &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		draft, err := h.generator.Generate(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, draft)
	}
}
