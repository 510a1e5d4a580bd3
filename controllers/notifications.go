package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/utils"
)

// NotificationController serves the in-app notification feed.
type NotificationController struct{}

// GetNotifications lists the current user's notifications.
// Query params: unread=true, page, per_page.
func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query := database.DB.Model(&models.Notification{}).
		Preload("User").Preload("User.Branch").
		Where("user_id = ?", claims.UserID)
	if c.Query("unread") == "true" {
		query = query.Where("`read` = ?", false)
	}

	var total int64
	query.Count(&total)

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}

	var unread int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", claims.UserID, false).Count(&unread)

	dtos := make([]utils.NotificationDTO, 0, len(notifications))
	for _, n := range notifications {
		dtos = append(dtos, utils.ToNotificationDTO(n))
	}

	return c.JSON(fiber.Map{
		"notifications": dtos,
		"total":         total,
		"unread":        unread,
		"page":          page,
		"per_page":      perPage,
	})
}

// MarkRead marks one notification as read
func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification ID"})
	}

	var notification models.Notification
	if err := database.DB.Where("id = ? AND user_id = ?", id, claims.UserID).
		First(&notification).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	}

	now := time.Now()
	if err := database.DB.Model(&notification).
		Updates(map[string]interface{}{"read": true, "read_at": &now}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notification"})
	}

	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// MarkAllRead marks all of the user's unread notifications as read
func (nc *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	now := time.Now()
	result := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", claims.UserID, false).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notifications"})
	}

	return c.JSON(fiber.Map{"message": "All notifications marked as read", "updated": result.RowsAffected})
}
