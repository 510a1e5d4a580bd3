package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/storage"
	"studiopulse_go/utils"
)

type StudentController struct{}

// GetStudents lists students with their derived payment status label.
// Supports ?search= on name/email/phone and ?branch_id= filtering.
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query := database.DB.Preload("Memberships").Preload("Memberships.Plan").
		Where("organization_id = ?", claims.OrganizationID)

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR phone LIKE ?",
			pattern, pattern, pattern, pattern)
	}
	if branchID := c.QueryInt("branch_id"); branchID > 0 {
		query = query.Where("branch_id = ?", branchID)
	}

	var students []models.Student
	if err := query.Order("first_name, last_name").Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch students"})
	}

	// One query resolves which students have any payment history, so the
	// moroso/sin_pagos distinction doesn't need a query per row.
	paid := make(map[uint]bool)
	if len(students) > 0 {
		ids := make([]uint, 0, len(students))
		for _, s := range students {
			ids = append(ids, s.ID)
		}
		var paidIDs []uint
		database.DB.Model(&models.Transaction{}).
			Where("student_id IN ?", ids).
			Distinct().Pluck("student_id", &paidIDs)
		for _, id := range paidIDs {
			paid[id] = true
		}
	}

	dtos := make([]utils.StudentDTO, 0, len(students))
	for _, s := range students {
		dtos = append(dtos, utils.ToStudentDTO(s, paid[s.ID]))
	}

	return c.JSON(fiber.Map{"students": dtos, "total": len(dtos)})
}

// GetStudent returns one student with memberships and recent activity
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}

	var student models.Student
	if err := database.DB.Preload("Memberships", func(db *gorm.DB) *gorm.DB {
		return db.Order("start_date DESC")
	}).Preload("Memberships.Plan").Preload("Branch").
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&student).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	var transactions []models.Transaction
	database.DB.Where("student_id = ?", student.ID).
		Order("created_at DESC").Limit(20).Find(&transactions)

	var hasPayments bool
	if len(transactions) > 0 {
		hasPayments = true
	}

	return c.JSON(fiber.Map{
		"student":      utils.ToStudentDTO(student, hasPayments),
		"transactions": transactions,
	})
}

// StudentRequest represents student create/update body
type StudentRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"max=20"`
	BranchID  uint   `json:"branch_id"`
	Notes     string `json:"notes"`
}

// CreateStudent creates a new student
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	branchID := req.BranchID
	if branchID == 0 {
		branchID = claims.BranchID
	}

	student := models.Student{
		OrganizationID: claims.OrganizationID,
		BranchID:       branchID,
		FirstName:      utils.SanitizeString(req.FirstName),
		LastName:       utils.SanitizeString(req.LastName),
		Email:          req.Email,
		Phone:          req.Phone,
		Notes:          req.Notes,
	}
	if err := database.DB.Create(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create student"})
	}

	middleware.LogActivity(c, "CREATE", "students", student.ID, fiber.Map{
		"name": student.FirstName + " " + student.LastName,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Student created successfully",
		"student": student,
	})
}

// UpdateStudent updates an existing student
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}

	var student models.Student
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&student).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{
		"first_name": utils.SanitizeString(req.FirstName),
		"last_name":  utils.SanitizeString(req.LastName),
		"email":      req.Email,
		"phone":      req.Phone,
		"notes":      req.Notes,
	}
	if req.BranchID != 0 {
		updates["branch_id"] = req.BranchID
	}
	if err := database.DB.Model(&student).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update student"})
	}

	middleware.LogActivity(c, "UPDATE", "students", student.ID, nil)

	return c.JSON(fiber.Map{"message": "Student updated successfully", "student": student})
}

// DeleteStudent soft-deletes a student. Memberships and history are kept.
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}

	var student models.Student
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&student).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	if err := database.DB.Delete(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete student"})
	}

	middleware.LogActivity(c, "DELETE", "students", student.ID, nil)

	return c.JSON(fiber.Map{"message": "Student deleted successfully"})
}

// GetStudentStatus returns just the derived payment label, used by quick lookups.
func (sc *StudentController) GetStudentStatus(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}

	var student models.Student
	if err := database.DB.Preload("Memberships").
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&student).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	var paymentCount int64
	database.DB.Model(&models.Transaction{}).Where("student_id = ?", student.ID).Count(&paymentCount)

	return c.JSON(fiber.Map{
		"student_id":   student.ID,
		"status_label": utils.StudentStatusLabel(student.Memberships, paymentCount > 0, time.Now()),
	})
}

// UploadPhoto stores a student photo in S3 and saves its URL
func (sc *StudentController) UploadPhoto(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}

	var student models.Student
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&student).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photo is required"})
	}

	store, err := storage.NewStorageService()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Storage not configured"})
	}

	url, err := store.UploadFile(fileHeader, "students", claims.OrganizationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload photo"})
	}

	if student.PhotoURL != "" {
		// best-effort cleanup of the previous photo
		_ = store.DeleteFile(student.PhotoURL)
	}
	if err := database.DB.Model(&student).Update("photo_url", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save photo URL"})
	}

	middleware.LogActivity(c, "UPLOAD", "students", student.ID, fiber.Map{"photo_url": url})

	return c.JSON(fiber.Map{"message": "Photo uploaded successfully", "photo_url": url})
}
