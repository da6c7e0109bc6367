package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/content"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/lifecycle"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type blogHandler struct {
	responder Responder
	logger    zerolog.Logger
	blogs     BlogLifecycle
}

func newBlogHandler(blogs BlogLifecycle) blogHandler {
	logger := log.With().Str("handlerName", "blogHandler").Logger()

	return blogHandler{
		responder: NewResponder(logger),
		logger:    logger,
		blogs:     blogs,
	}
}

// BlogResponse wraps a blog row
type BlogResponse struct {
	Blog *models.Blog `json:"blog"`
}

// BlogForEditResponse is a blog row with its editable content document
type BlogForEditResponse struct {
	Blog    *models.Blog          `json:"blog"`
	Content *content.BlogDocument `json:"content"`
}

// createBlog creates a draft in a room
// @Summary Create draft
// @Description Creates the content document and the blog row of a new draft
// @Tags Blogs
// @Accept json
// @Produce json
// @Param blog body lifecycle.CreateInput true "Draft data"
// @Success 201 {object} BlogResponse "Created draft"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid draft data"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden - Not allowed to write in the room"
// @Failure 500 {object} ErrorResponse "Internal Server Error - A store failed"
// @Router /blogs/create [post]
func (h blogHandler) createBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in lifecycle.CreateInput
		if err := decodeJSON(w, r, &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blog, err := h.blogs.CreateDraft(r.Context(), callerID(r.Context()), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, BlogResponse{Blog: blog})
	}
}

// updateBlog patches a draft
// @Summary Update draft
// @Description Applies a partial update to an unpublished draft
// @Tags Blogs
// @Accept json
// @Produce json
// @Param blogID path string true "Blog ID" format(uuid)
// @Param blog body lifecycle.UpdateInput true "Fields to change"
// @Success 200 {object} BlogResponse "Updated draft"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid blogID or data"
// @Failure 403 {object} ErrorResponse "Forbidden - Not the author or already published"
// @Failure 404 {object} ErrorResponse "Not Found - Blog not found"
// @Router /blogs/{blogID}/update [patch]
func (h blogHandler) updateBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogID, err := blogIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var in lifecycle.UpdateInput
		if err := decodeJSON(w, r, &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blog, err := h.blogs.UpdateDraft(r.Context(), callerID(r.Context()), blogID, in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, BlogResponse{Blog: blog})
	}
}

// editBlog replaces the title, content and excerpt of a blog
// @Summary Edit blog
// @Description Replaces title, content and excerpt of a draft or published blog
// @Tags Blogs
// @Accept json
// @Produce json
// @Param blogID path string true "Blog ID" format(uuid)
// @Param blog body lifecycle.EditInput true "New title, content and excerpt"
// @Success 200 {object} BlogResponse "Edited blog"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid blogID or data"
// @Failure 403 {object} ErrorResponse "Forbidden - Not the author"
// @Failure 404 {object} ErrorResponse "Not Found - Blog not found"
// @Router /blogs/{blogID}/edit [put]
func (h blogHandler) editBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogID, err := blogIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var in lifecycle.EditInput
		if err := decodeJSON(w, r, &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blog, err := h.blogs.Edit(r.Context(), callerID(r.Context()), blogID, in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, BlogResponse{Blog: blog})
	}
}

// publishBlog publishes a draft
// @Summary Publish blog
// @Description Moves the draft document to its published identity and marks the row published
// @Tags Blogs
// @Produce json
// @Param blogID path string true "Blog ID" format(uuid)
// @Success 200 {object} BlogResponse "Published blog"
// @Failure 403 {object} ErrorResponse "Forbidden - Not the author"
// @Failure 404 {object} ErrorResponse "Not Found - Blog or draft not found"
// @Failure 409 {object} ErrorResponse "Conflict - Already published"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Flagged for reconciliation"
// @Router /blogs/{blogID}/publish [post]
func (h blogHandler) publishBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogID, err := blogIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blog, err := h.blogs.Publish(r.Context(), callerID(r.Context()), blogID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Str("blogID", blog.ID.String()).Msg("blog published")
		h.responder.WriteJSON(w, BlogResponse{Blog: blog})
	}
}

// fetchForEdit loads a blog and its content for the editor
// @Summary Fetch blog for edit
// @Description Returns the blog row and content document when the caller is the author
// @Tags Blogs
// @Produce json
// @Param roomSlug query string true "Room slug"
// @Param blogSlug query string true "Blog slug"
// @Success 200 {object} BlogForEditResponse "Blog with content"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing slugs"
// @Failure 403 {object} ErrorResponse "Forbidden - Not the author"
// @Failure 404 {object} ErrorResponse "Not Found - Room, blog or content not found"
// @Router /blogs/fetch-for-edit [get]
func (h blogHandler) fetchForEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		blog, doc, err := h.blogs.FetchForEdit(r.Context(), callerID(r.Context()), query.Get("roomSlug"), query.Get("blogSlug"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, BlogForEditResponse{Blog: blog, Content: doc})
	}
}

func blogIDParam(r *http.Request) (uuid.UUID, error) {
	blogIDStr := chi.URLParam(r, "blogID")
	if blogIDStr == "" {
		return uuid.Nil, errs.NewBadRequestError("missing blogID")
	}

	blogID, err := uuid.Parse(blogIDStr)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("invalid blogID")
	}
	return blogID, nil
}
