package pit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListRuns GET /api/pit/runs?limit=N
func (h *Handler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []interface{}{}})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	runs, err := h.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun GET /api/pit/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "run history is disabled"})
		return
	}
	run, err := h.runs.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
