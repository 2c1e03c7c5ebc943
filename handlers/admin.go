package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"heritage-api/middleware"
)

// AdminGetUsers lists every contributor, newest first
func (h *Handler) AdminGetUsers(c *gin.Context) {
	users, err := h.identity.ListContributors(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// AdminGetStats returns dashboard counts
func (h *Handler) AdminGetStats(c *gin.Context) {
	stats, err := h.reports.Stats(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AdminExport downloads the filtered submissions as submissions.csv
func (h *Handler) AdminExport(c *gin.Context) {
	f, err := submissionFilter(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.reports.ExportCSV(c.Request.Context(), &buf, f); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="submissions.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// AdminDeleteUser removes a user and all of their submissions
func (h *Handler) AdminDeleteUser(c *gin.Context) {
	id, err := paramID(c, "id", "User")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	removed, err := h.identity.DeleteUser(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":             "User and their submissions removed",
		"deleted_submissions": removed,
	})
}
