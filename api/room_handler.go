package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rpupo63/rooms-blog-backend/rooms"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type roomHandler struct {
	responder Responder
	logger    zerolog.Logger
	rooms     RoomService
}

func newRoomHandler(rooms RoomService) roomHandler {
	logger := log.With().Str("handlerName", "roomHandler").Logger()

	return roomHandler{
		responder: NewResponder(logger),
		logger:    logger,
		rooms:     rooms,
	}
}

type RoomResponse struct {
	Room *models.Room `json:"room"`
}

type MembersResponse struct {
	Members []models.MemberWithProfile `json:"members"`
}

// JoinRoomRequest carries the four digit join code; spaces are ignored
type JoinRoomRequest struct {
	JoinCode string `json:"joinCode"`
}

// createRoom creates a room owned by the caller
// @Summary Create room
// @Description Creates a room with a unique slug and join code and makes the caller its admin
// @Tags Rooms
// @Accept json
// @Produce json
// @Param room body rooms.CreateInput true "Room data"
// @Success 201 {object} RoomResponse "Created room"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid room data"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /rooms/create [post]
func (h roomHandler) createRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in rooms.CreateInput
		if err := decodeJSON(w, r, &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		room, err := h.rooms.Create(r.Context(), callerID(r.Context()), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, RoomResponse{Room: room})
	}
}

// joinRoom adds the caller to the room holding a join code
// @Summary Join room
// @Description Joins the room for a join code. A 409 still carries the room.
// @Tags Rooms
// @Accept json
// @Produce json
// @Param join body JoinRoomRequest true "Join code"
// @Success 200 {object} RoomResponse "Joined room"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid join code"
// @Failure 404 {object} ErrorResponse "Not Found - No room with this join code"
// @Failure 409 {object} ErrorResponse "Conflict - Already a member"
// @Failure 429 {object} ErrorResponse "Too Many Requests - Join attempts exhausted"
// @Router /rooms/join [post]
func (h roomHandler) joinRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in JoinRoomRequest
		if err := decodeJSON(w, r, &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		room, err := h.rooms.Join(r.Context(), callerID(r.Context()), in.JoinCode)
		if errs.IsAlreadyMember(err) && room != nil {
			h.responder.WriteErrorWith(w, err, map[string]any{"room": room})
			return
		}
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, RoomResponse{Room: room})
	}
}

// getRoom returns a room with its member and post counts
// @Summary Get room
// @Description Reads a room by slug. The join code is only returned to members.
// @Tags Rooms
// @Produce json
// @Param roomSlug path string true "Room slug"
// @Success 200 {object} rooms.Summary "Room summary"
// @Failure 404 {object} ErrorResponse "Not Found - Room not found"
// @Router /rooms/{roomSlug} [get]
func (h roomHandler) getRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := h.rooms.Get(r.Context(), callerID(r.Context()), chi.URLParam(r, "roomSlug"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, summary)
	}
}

// getMembers lists the members of a room
// @Summary List room members
// @Description Lists members with their profiles. Only members may call it.
// @Tags Rooms
// @Produce json
// @Param roomSlug path string true "Room slug"
// @Success 200 {object} MembersResponse "Members"
// @Failure 403 {object} ErrorResponse "Forbidden - Not a member"
// @Failure 404 {object} ErrorResponse "Not Found - Room not found"
// @Router /rooms/{roomSlug}/members [get]
func (h roomHandler) getMembers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members, err := h.rooms.Members(r.Context(), callerID(r.Context()), chi.URLParam(r, "roomSlug"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if members == nil {
			members = []models.MemberWithProfile{}
		}
		h.responder.WriteJSON(w, MembersResponse{Members: members})
	}
}
