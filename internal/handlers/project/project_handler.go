// internal/handlers/project/project_handler.go
package project

import (
	"net/http"
	"strconv"

	"pocket-agency-service/internal/domain/project"
	"pocket-agency-service/internal/middleware"
	"pocket-agency-service/internal/pkg/response"
	service "pocket-agency-service/internal/service/project"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService *service.ProjectService
}

func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// CreateProject submits a new project (active subscription required).
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req project.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.projectService.CreateProject(c.Request.Context(), userID, &req)
	if err != nil {
		response.FromError(c, "failed to submit project", err)
		return
	}

	response.Success(c, http.StatusCreated, "project submitted", result)
}

// GetProject retrieves one project.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid project ID", err)
		return
	}

	result, err := h.projectService.GetProject(c.Request.Context(), userID, middleware.IsStaff(c), projectID)
	if err != nil {
		response.FromError(c, "project not found", err)
		return
	}

	response.Success(c, http.StatusOK, "project retrieved", result)
}

// ListProjects lists projects visible to the requester.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var filters project.ProjectListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.projectService.ListProjects(c.Request.Context(), userID, middleware.IsStaff(c), &filters)
	if err != nil {
		response.FromError(c, "failed to list projects", err)
		return
	}

	response.Success(c, http.StatusOK, "projects retrieved", result)
}

// UpdateStatus moves a project through its workflow (staff only).
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid project ID", err)
		return
	}

	var req project.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.projectService.UpdateStatus(c.Request.Context(), userID, projectID, &req)
	if err != nil {
		response.FromError(c, "failed to update project status", err)
		return
	}

	response.Success(c, http.StatusOK, "project status updated", result)
}
