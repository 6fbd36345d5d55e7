// internal/domain/project/dto.go
package project

type CreateProjectRequest struct {
	Title string   `json:"title" binding:"required,max=255"`
	Brief string   `json:"brief" binding:"required"`
	Tags  []string `json:"tags" binding:"omitempty,max=10,dive,max=50"`
}

type UpdateStatusRequest struct {
	Status ProjectStatus `json:"status" binding:"required"`
	Notes  string        `json:"notes"`
}

type ProjectListFilters struct {
	Status   *ProjectStatus `form:"status"`
	Page     int            `form:"page,default=1" binding:"min=1"`
	PageSize int            `form:"page_size,default=20" binding:"min=1,max=100"`
}

type ProjectListResponse struct {
	Projects []Project `json:"projects"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}
