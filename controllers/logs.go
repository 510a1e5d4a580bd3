package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/services"
)

// LogController exposes the activity audit trail and its S3 archives.
// All routes are owner-only.
type LogController struct{}

// GetActivityLogs lists the organization's audit trail.
// Query params: user_id, resource, action, from, to (YYYY-MM-DD), page, per_page.
func (lc *LogController) GetActivityLogs(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query := database.DB.Model(&models.ActivityLog{}).
		Preload("User").
		Where("organization_id = ?", claims.OrganizationID)

	if userID := c.QueryInt("user_id"); userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if from := c.Query("from"); from != "" {
		parsed, err := time.ParseInLocation("2006-01-02", from, time.Local)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid from date, expected YYYY-MM-DD"})
		}
		query = query.Where("created_at >= ?", parsed)
	}
	if to := c.Query("to"); to != "" {
		parsed, err := time.ParseInLocation("2006-01-02", to, time.Local)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid to date, expected YYYY-MM-DD"})
		}
		query = query.Where("created_at < ?", parsed.AddDate(0, 0, 1))
	}

	var total int64
	query.Count(&total)

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 50)
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	var logs []models.ActivityLog
	if err := query.Order("created_at DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch activity logs"})
	}

	return c.JSON(fiber.Map{
		"logs":     logs,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// GetLogStats aggregates the audit trail by action and by user for a period.
// Query params: days (lookback window, default 7).
func (lc *LogController) GetLogStats(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	days := c.QueryInt("days", 7)
	if days < 1 || days > 365 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	type bucket struct {
		Key   string `json:"key"`
		Count int64  `json:"count"`
	}

	var byAction []bucket
	database.DB.Model(&models.ActivityLog{}).
		Select("action AS `key`, COUNT(*) AS count").
		Where("organization_id = ? AND created_at >= ?", claims.OrganizationID, since).
		Group("action").Order("count DESC").Scan(&byAction)

	var byResource []bucket
	database.DB.Model(&models.ActivityLog{}).
		Select("resource AS `key`, COUNT(*) AS count").
		Where("organization_id = ? AND created_at >= ?", claims.OrganizationID, since).
		Group("resource").Order("count DESC").Scan(&byResource)

	var total int64
	database.DB.Model(&models.ActivityLog{}).
		Where("organization_id = ? AND created_at >= ?", claims.OrganizationID, since).
		Count(&total)

	return c.JSON(fiber.Map{
		"days":        days,
		"total":       total,
		"by_action":   byAction,
		"by_resource": byResource,
	})
}

// GetArchivedLogs lists completed log archives stored in S3
func (lc *LogController) GetArchivedLogs(c *fiber.Ctx) error {
	archives, err := services.NewLogArchiveService().GetArchivedLogs()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch archives"})
	}

	return c.JSON(fiber.Map{"archives": archives})
}

// DownloadArchivedLogs streams one archive's zip from S3
func (lc *LogController) DownloadArchivedLogs(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid archive ID"})
	}

	body, fileName, err := services.NewLogArchiveService().DownloadArchivedLogs(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Archive not found"})
	}
	// fasthttp closes the stream after the response is written
	c.Set("Content-Type", "application/zip")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	return c.SendStream(body)
}
