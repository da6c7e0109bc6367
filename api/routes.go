package api

import (
	"github.com/go-chi/chi/v5"
)

// setupFrontendRoutes sets up all routes with authentication
func setupFrontendRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Get("/health", handlers.healthHandler.health())

		// Anonymous callers may read a room, members also see its join code
		r.With(authMiddleware.identify).Get("/rooms/{roomSlug}", handlers.roomHandler.getRoom())

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.authenticate)

			// Blog Handler endpoints
			r.Post("/blogs/create", handlers.blogHandler.createBlog())
			r.Patch("/blogs/{blogID}/update", handlers.blogHandler.updateBlog())
			r.Put("/blogs/{blogID}/edit", handlers.blogHandler.editBlog())
			r.Post("/blogs/{blogID}/publish", handlers.blogHandler.publishBlog())
			r.Get("/blogs/fetch-for-edit", handlers.blogHandler.fetchForEdit())

			// Room Handler endpoints
			r.Post("/rooms/create", handlers.roomHandler.createRoom())
			r.Post("/rooms/join", handlers.roomHandler.joinRoom())
			r.Get("/rooms/{roomSlug}/members", handlers.roomHandler.getMembers())

			r.Post("/upload/image", handlers.uploadHandler.uploadImage())
			r.Post("/ai/generate", handlers.aiHandler.generate())
		})
	})
}
