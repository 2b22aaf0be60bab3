package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/collegeprep-backend/internal/http/response"
	"github.com/yungbote/collegeprep-backend/internal/modules/recommendation"
	"github.com/yungbote/collegeprep-backend/internal/platform/apierr"
	"github.com/yungbote/collegeprep-backend/internal/platform/ctxutil"
	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
	"github.com/yungbote/collegeprep-backend/internal/services"
)

type RecommendationHandler struct {
	log     *logger.Logger
	service services.RecommendationService
}

func NewRecommendationHandler(log *logger.Logger, service services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		log:     log.With("handler", "RecommendationHandler"),
		service: service,
	}
}

type generateRecommendationsRequest struct {
	Profile recommendation.Profile `json:"profile"`
}

// POST /api/recommendations/generate
func (h *RecommendationHandler) Generate(c *gin.Context) {
	studentID, ok := ctxutil.CurrentUserID(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("unauthorized"))
		return
	}

	var req generateRecommendationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidRequest, errors.New("invalid request body"))
		return
	}
	if req.Profile == nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeMissingProfile, errors.New("profile required"))
		return
	}

	run, err := h.service.Begin(c.Request.Context(), studentID)
	if err != nil {
		ae := apierr.From(err)
		if ae.Status >= http.StatusInternalServerError {
			h.log.Error("Failed to start recommendation generation", "student_id", studentID, "error", err)
			ae = apierr.New(http.StatusInternalServerError, apierr.CodeInternal, errors.New("failed to start generation"))
		}
		response.RespondAPIError(c, ae)
		return
	}

	stream, err := response.OpenEventStream(c.Writer)
	if err != nil {
		run.Abandon()
		response.RespondError(c, http.StatusInternalServerError, apierr.CodeInternal, err)
		return
	}
	// pipeline failures are reported in-stream
	_, _ = run.Execute(c.Request.Context(), req.Profile, streamSink{stream})
}

// GET /api/recommendations
func (h *RecommendationHandler) List(c *gin.Context) {
	studentID, ok := ctxutil.CurrentUserID(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("unauthorized"))
		return
	}
	recs, err := h.service.List(c.Request.Context(), studentID)
	if err != nil {
		h.log.Error("Failed to list recommendations", "student_id", studentID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, apierr.CodeInternal, errors.New("failed to load recommendations"))
		return
	}
	response.RespondOK(c, gin.H{"recommendations": recs})
}

type streamSink struct{ s *response.EventStream }

func (k streamSink) Send(ev recommendation.Event) error { return k.s.Write(ev) }
func (k streamSink) Close() error                       { return k.s.Close() }
