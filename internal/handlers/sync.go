package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// triggerSync runs a full reconcile+qualify pass and returns its outcome.
// Runs are short batch jobs; the request blocks until the run completes.
func (h *Handler) triggerSync(c *gin.Context) {
	ctx := c.Request.Context()

	run, err := h.services.Runner.Run(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "sync run failed", "sync_run_failed",
			err, "run_id", run.RunID)
		return
	}
	c.JSON(http.StatusOK, run)
}
