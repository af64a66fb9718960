package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/utils"
)

// CatalogHandler serves the reference data the list filters need.
type CatalogHandler struct {
	DB *gorm.DB
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{DB: db}
}

// GetDoctors handles fetching all doctors, optionally scoped to a
// department.
func (h *CatalogHandler) GetDoctors(c *gin.Context) {
	query := h.DB.Order("name asc")
	if departmentID := c.Query("departmentId"); departmentID != "" {
		query = query.Where("department_id = ?", departmentID)
	}

	var doctors []models.Doctor
	if err := query.Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	utils.Success(c, "Doctors fetched successfully", doctors)
}

// GetDepartments handles fetching all departments.
func (h *CatalogHandler) GetDepartments(c *gin.Context) {
	var departments []models.Department
	if err := h.DB.Order("name asc").Find(&departments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch departments: "+err.Error())
		return
	}

	utils.Success(c, "Departments fetched successfully", departments)
}
