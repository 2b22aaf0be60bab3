package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/collegeprep-backend/internal/platform/ctxutil"
	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
	"github.com/yungbote/collegeprep-backend/internal/realtime"
)

type RealtimeHandler struct {
	Log *logger.Logger
	Hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{Log: log.With("handler", "RealtimeHandler"), Hub: hub}
}

// GET /api/sse/stream subscribes the caller to their own channel, where
// recommendation runs are mirrored.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	userID, ok := ctxutil.CurrentUserID(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "not authenticated", "code": "unauthorized"}})
		return
	}
	client := h.Hub.NewSSEClient(userID)
	h.Hub.AddChannel(client, userID.String())
	h.Log.Info("SSEStream open", "user_id", userID.String(), "client_id", client.ID.String())

	h.Hub.ServeHTTP(c.Writer, c.Request, client)
	h.Hub.CloseClient(client)
}
