package api

import "time"

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		blogHandler:   newBlogHandler(deps.Blogs),
		roomHandler:   newRoomHandler(deps.Rooms),
		uploadHandler: newUploadHandler(deps.Uploader),
		aiHandler:     newAIHandler(deps.Generator),
		healthHandler: newHealthHandler(deps.Reconciliation, startupTime),
	}
}
