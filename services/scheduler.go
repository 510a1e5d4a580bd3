package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"studiopulse_go/database"
	"studiopulse_go/models"
	notifsvc "studiopulse_go/services/notifications"
)

// Scheduler runs the periodic jobs: upcoming-class reminders, nightly
// membership expiry and log maintenance.
type Scheduler struct {
	db   *gorm.DB
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		db:   database.DB,
		cron: cron.New(),
	}
}

// Start registers the jobs and starts the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.AddFunc("*/15 * * * *", s.CheckUpcomingClasses)
	s.cron.AddFunc("30 2 * * *", s.ExpireMemberships)

	archive := NewLogArchiveService()
	s.cron.AddFunc("@hourly", func() {
		if err := archive.FlushCachedLogsToDatabase(); err != nil {
			logrus.WithError(err).Error("Failed to flush cached activity logs")
		}
	})
	s.cron.AddFunc("0 3 * * *", func() {
		if err := archive.ArchiveOldLogs(); err != nil {
			logrus.WithError(err).Error("Failed to archive old activity logs")
		}
	})

	s.cron.Start()
	logrus.Info("Scheduler started")
}

// Stop stops the cron loop, waiting for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// CheckUpcomingClasses notifies staff teachers of their classes starting in
// roughly 30 and 60 minutes. Professionals have no user account, so their
// classes produce no reminder.
func (s *Scheduler) CheckUpcomingClasses() {
	now := time.Now()

	reminderWindows := []struct {
		minutes int
		label   string
	}{
		{30, "30 minutos"},
		{60, "1 hora"},
	}

	for _, window := range reminderWindows {
		targetTime := now.Add(time.Duration(window.minutes) * time.Minute)
		startRange := targetTime.Add(-5 * time.Minute)
		endRange := targetTime.Add(5 * time.Minute)

		var appointments []models.Appointment
		err := s.db.Preload("Service").
			Where("start_time BETWEEN ? AND ? AND status <> ? AND profile_id IS NOT NULL",
				startRange, endRange, "cancelled").
			Find(&appointments).Error
		if err != nil {
			logrus.WithError(err).Error("Failed to check upcoming classes")
			continue
		}

		for _, appointment := range appointments {
			if s.reminderAlreadySent(appointment, window.minutes) {
				continue
			}
			s.sendClassReminder(appointment, window.label)
		}
	}
}

func (s *Scheduler) reminderAlreadySent(a models.Appointment, minutes int) bool {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND message LIKE ? AND created_at > ?",
			*a.ProfileID, "class_reminder",
			fmt.Sprintf("%%cita #%d%%", a.ID),
			time.Now().Add(-2*time.Hour)).
		Count(&count).Error
	if err != nil {
		return false
	}
	return count > 0
}

func (s *Scheduler) sendClassReminder(a models.Appointment, timeLabel string) {
	serviceName := "clase"
	if a.Service.ID != 0 {
		serviceName = a.Service.Name
	}

	n := notifsvc.QueuedWithData(
		"Clase próxima",
		fmt.Sprintf("Tu %s (cita #%d) empieza en %s, a las %s",
			serviceName, a.ID, timeLabel, a.StartTime.Format("15:04")),
		"class_reminder",
		map[string]interface{}{
			"appointment_id": a.ID,
			"start_time":     a.StartTime,
			"service_id":     a.ServiceID,
		},
	)
	if err := notifsvc.NewService().EnqueueOrCreate([]uint{*a.ProfileID}, n); err != nil {
		logrus.WithError(err).WithField("appointment_id", a.ID).Error("Failed to send class reminder")
	}
}

// ExpireMemberships flips overdue active memberships to expired and tells each
// organization's owners how many of their students lapsed.
func (s *Scheduler) ExpireMemberships() {
	today := time.Now().Format("2006-01-02")

	// Snapshot the per-organization counts before the update flips statuses.
	type orgCount struct {
		OrganizationID uint
		Total          int64
	}
	var counts []orgCount
	err := s.db.Model(&models.Membership{}).
		Select("students.organization_id AS organization_id, COUNT(*) AS total").
		Joins("JOIN students ON students.id = memberships.student_id").
		Where("memberships.status = ? AND memberships.end_date < ?", "active", today).
		Group("students.organization_id").
		Scan(&counts).Error
	if err != nil {
		logrus.WithError(err).Error("Failed to count expiring memberships")
		return
	}

	expired, err := NewMembershipService().ExpireOverdue()
	if err != nil {
		logrus.WithError(err).Error("Failed to expire memberships")
		return
	}
	if expired == 0 {
		return
	}
	logrus.WithField("expired", expired).Info("Expired overdue memberships")

	notifier := notifsvc.NewService()
	for _, c := range counts {
		var ownerIDs []uint
		err := s.db.Model(&models.User{}).
			Where("organization_id = ? AND role IN ? AND status = ?",
				c.OrganizationID, []string{"owner", "super_admin"}, "active").
			Pluck("id", &ownerIDs).Error
		if err != nil || len(ownerIDs) == 0 {
			continue
		}
		n := notifsvc.QueuedWithData(
			"Membresías vencidas",
			fmt.Sprintf("%d membresía(s) vencieron hoy", c.Total),
			"membership_expired",
			map[string]interface{}{"count": c.Total, "date": today},
		)
		if err := notifier.EnqueueOrCreate(ownerIDs, n); err != nil {
			logrus.WithError(err).Error("Failed to notify owners of expired memberships")
		}
	}
}
