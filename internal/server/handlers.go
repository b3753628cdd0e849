// internal/server/handlers.go
package server

import (
	"net/http"
	"strconv"

	apperrors "provider-workflow/internal/common/errors"
	"provider-workflow/internal/models"

	"github.com/gin-gonic/gin"
)

// submitApplication handles POST /api/applications.
func (s *Server) submitApplication(c *gin.Context) {
	userID := c.GetString("userId")

	var payload models.SubmissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	app, err := s.engine.Submit(c.Request.Context(), userID, &payload)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Application submitted successfully",
		"application": gin.H{
			"id":          app.ID,
			"status":      app.Status,
			"submittedAt": app.SubmittedAt,
		},
	})
}

// myStatus handles GET /api/applications/my-status. A user who never applied
// gets a null application, not a 404.
func (s *Server) myStatus(c *gin.Context) {
	userID := c.GetString("userId")

	view, err := s.engine.Status(c.Request.Context(), userID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "application": view})
}

// listApplications handles GET /api/admin/applications.
func (s *Server) listApplications(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := s.engine.List(c.Request.Context(),
		models.ListFilter{
			Status: c.DefaultQuery("status", "all"),
			Search: c.Query("search"),
		},
		models.Pagination{Page: page, Limit: limit},
	)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"applications": result.Applications,
		"pagination":   result.Pagination,
		"counts":       result.Counts,
	})
}

// approveApplication handles PUT /api/admin/applications/:id/approve.
func (s *Server) approveApplication(c *gin.Context) {
	app, err := s.engine.Approve(c.Request.Context(), c.Param("id"), c.GetString("userId"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Application approved",
		"application": app,
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// rejectApplication handles PUT /api/admin/applications/:id/reject.
func (s *Server) rejectApplication(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	app, err := s.engine.Reject(c.Request.Context(), c.Param("id"), c.GetString("userId"), req.Reason)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Application rejected",
		"application": app,
	})
}

// writeError maps a workflow error to its HTTP status. Anything untyped is
// an infrastructure fault and surfaces as a 500.
func (s *Server) writeError(c *gin.Context, err error) {
	wfErr, ok := apperrors.AsWorkflowError(err)
	if !ok {
		s.logger.Error("request failed", map[string]interface{}{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		return
	}

	status := http.StatusBadRequest
	switch wfErr.Code {
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeRoleIneligible:
		status = http.StatusForbidden
	case apperrors.ErrCodeDuplicatePending, apperrors.ErrCodeAlreadyProcessed:
		status = http.StatusConflict
	}

	resp := gin.H{
		"success": false,
		"code":    wfErr.Code,
		"message": wfErr.Message,
	}
	if len(wfErr.FieldErrors) > 0 {
		resp["errors"] = wfErr.FieldErrors
	}
	if wfErr.RetryAfter != nil {
		resp["retryAfter"] = wfErr.RetryAfter
	}

	c.JSON(status, resp)
}
