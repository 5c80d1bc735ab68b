package api

import (
	"net/http"
	"strconv"

	"counseling-platform/backend/counselor/service"
	"counseling-platform/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type CounselorHandler struct {
	directory *service.Directory
}

func NewCounselorHandler(directory *service.Directory) *CounselorHandler {
	return &CounselorHandler{directory: directory}
}

// ListApproved returns the counselors eligible for matching
func (h *CounselorHandler) ListApproved(c *gin.Context) {
	counselors, err := h.directory.ListApproved()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, counselors)
}

// GetCounselor returns a single counselor profile
func (h *CounselorHandler) GetCounselor(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError("invalid counselor id"))
		return
	}

	counselor, err := h.directory.GetByID(uint(id))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, counselor)
}

// RegisterRoutes registers counselor routes on the given group
func (h *CounselorHandler) RegisterRoutes(rg *gin.RouterGroup) {
	counselors := rg.Group("/counselors")
	{
		counselors.GET("", h.ListApproved)
		counselors.GET("/:id", h.GetCounselor)
	}
}
