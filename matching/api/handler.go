package api

import (
	"net/http"
	"strconv"

	"counseling-platform/backend/matching/models"
	"counseling-platform/backend/matching/service"
	"counseling-platform/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type MatchingHandler struct {
	matching *service.MatchingService
}

func NewMatchingHandler(matching *service.MatchingService) *MatchingHandler {
	return &MatchingHandler{matching: matching}
}

// SubmitRequest accepts a new intake request and stores it in PENDING
// state
func (h *MatchingHandler) SubmitRequest(c *gin.Context) {
	var submit models.SubmitRequest
	if err := c.ShouldBindJSON(&submit); err != nil {
		c.Error(errors.NewValidationError("invalid request payload"))
		return
	}

	id, err := h.matching.SubmitRequest(c.Request.Context(), &submit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request_id": id, "status": models.StatusPending})
}

// AttemptMatch runs the matching transition for a request. An
// unmatched outcome is a 200 with matched=false, not an error.
func (h *MatchingHandler) AttemptMatch(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError("invalid request id"))
		return
	}

	matched, err := h.matching.AttemptMatch(c.Request.Context(), uint(id))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matched": matched})
}

// MatchedCounselors returns the distinct counselors matched to a
// requester across all of their requests
func (h *MatchingHandler) MatchedCounselors(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError("invalid user id"))
		return
	}

	counselors, err := h.matching.MatchedCounselors(uint(userID))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, counselors)
}

// RegisterRoutes registers matching routes on the given group
func (h *MatchingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	requests := rg.Group("/requests")
	{
		requests.POST("", h.SubmitRequest)
		requests.POST("/:id/match", h.AttemptMatch)
	}
	rg.GET("/users/:id/matched-counselors", h.MatchedCounselors)
}
