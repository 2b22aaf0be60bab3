package realtime

type SSEEvent string

const (
	SSEEventRecommendationStatus   SSEEvent = "RecommendationStatus"
	SSEEventRecommendationProgress SSEEvent = "RecommendationProgress"
	SSEEventRecommendationDone     SSEEvent = "RecommendationDone"
	SSEEventRecommendationFailed   SSEEvent = "RecommendationFailed"
)

// SSEMessage is what subscribers of a channel receive. Channels are user ids.
type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}
