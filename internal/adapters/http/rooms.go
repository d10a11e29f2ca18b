package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/duet/internal/app"
	"github.com/dkeye/duet/internal/domain"
	"github.com/gin-gonic/gin"
)

type roomHandlers struct {
	relay           *app.Relay
	maxParticipants int
}

type createRoomRequest struct {
	CallID          domain.CallID `json:"call_id" binding:"required"`
	MaxParticipants int           `json:"max_participants"`
}

func (h *roomHandlers) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.relay.Rooms.List()})
}

func (h *roomHandlers) get(c *gin.Context) {
	room, ok := h.relay.Rooms.Get(domain.CallID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
		return
	}
	c.JSON(http.StatusOK, room.Info())
}

func (h *roomHandlers) create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	limit := req.MaxParticipants
	if limit <= 0 || (h.maxParticipants > 0 && limit > h.maxParticipants) {
		limit = h.maxParticipants
	}
	info, err := h.relay.CreateRoom(req.CallID, limit)
	if err != nil {
		h.fail(c, err, info)
		return
	}
	c.JSON(http.StatusCreated, info)
}

func (h *roomHandlers) join(c *gin.Context) {
	info, err := h.relay.JoinRoom(domain.CallID(c.Param("id")), participant(c).ID)
	if err != nil {
		h.fail(c, err, info)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *roomHandlers) leave(c *gin.Context) {
	if err := h.relay.LeaveRoom(domain.CallID(c.Param("id")), participant(c).ID); err != nil {
		h.fail(c, err, domain.RoomInfo{})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *roomHandlers) disconnect(c *gin.Context) {
	ids := h.relay.DisconnectUser(participant(c).ID)
	c.JSON(http.StatusOK, gin.H{"rooms": ids})
}

// fail maps domain errors to status codes and the error codes the room
// client understands.
func (h *roomHandlers) fail(c *gin.Context, err error, info domain.RoomInfo) {
	switch {
	case errors.Is(err, domain.ErrCallFull):
		c.JSON(http.StatusConflict, gin.H{"error": "call_full", "room": info})
	case errors.Is(err, domain.ErrRoomExists):
		c.JSON(http.StatusConflict, gin.H{"error": "room_exists"})
	case errors.Is(err, domain.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
	case errors.Is(err, domain.ErrCallIDInvalid), errors.Is(err, domain.ErrCallIDEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_call_id"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
