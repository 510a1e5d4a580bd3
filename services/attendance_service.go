package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studiopulse_go/config"
	"studiopulse_go/database"
	"studiopulse_go/models"
)

// AttendanceService builds the per-day class groups and the editable roster for
// one class, and persists final attendance by upserting on the unique
// (appointment_id, student_id) pair.
type AttendanceService struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewAttendanceService() *AttendanceService {
	return &AttendanceService{db: database.DB, redis: database.GetRedisClient()}
}

// ClassGroup is one displayed row in the attendance drawer: all appointments of
// a day sharing the same start time and service.
type ClassGroup struct {
	Key            string    `json:"key"` // "HH:MM|service_id"
	Time           string    `json:"time"`
	ServiceID      uint      `json:"service_id"`
	ServiceName    string    `json:"service_name"`
	AppointmentIDs []uint    `json:"appointment_ids"`
	StudentCount   int       `json:"student_count"`
	Teacher        string    `json:"teacher,omitempty"`
	StartTime      time.Time `json:"start_time"`
}

// RosterEntry is one editable row in the attendance checklist.
type RosterEntry struct {
	StudentID    uint   `json:"student_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Status       string `json:"status"`        // present, absent, late
	AttendeeType string `json:"attendee_type"` // enrolled, suggested, manual
	Saved        bool   `json:"saved"`         // already has an attendance record
}

// Roster is the candidate list for one class group.
type Roster struct {
	AppointmentID uint          `json:"appointment_id"` // canonical id records are keyed on
	OpenClass     bool          `json:"open_class"`     // no enrollment basis, suggestions shown
	Entries       []RosterEntry `json:"entries"`
}

// GroupKey builds the grouping key for an appointment: wall-clock time plus service.
func GroupKey(startTime time.Time, serviceID uint) string {
	return fmt.Sprintf("%s|%d", startTime.Format("15:04"), serviceID)
}

// GroupAppointments collapses a day's appointments into class groups keyed by
// (HH:MM, service). student_count counts attendee junction rows across the
// group's appointments. Groups are ordered by start time then service name.
func GroupAppointments(appointments []models.Appointment) []ClassGroup {
	byKey := make(map[string]*ClassGroup)
	for _, a := range appointments {
		key := GroupKey(a.StartTime, a.ServiceID)
		g, ok := byKey[key]
		if !ok {
			g = &ClassGroup{
				Key:         key,
				Time:        a.StartTime.Format("15:04"),
				ServiceID:   a.ServiceID,
				ServiceName: a.Service.Name,
				StartTime:   a.StartTime,
			}
			if a.Profile != nil {
				g.Teacher = a.Profile.FullName
			} else if a.Professional != nil {
				g.Teacher = a.Professional.FullName
			}
			byKey[key] = g
		}
		g.AppointmentIDs = append(g.AppointmentIDs, a.ID)
		g.StudentCount += len(a.Attendees)
	}

	groups := make([]ClassGroup, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if !groups[i].StartTime.Equal(groups[j].StartTime) {
			return groups[i].StartTime.Before(groups[j].StartTime)
		}
		return groups[i].ServiceName < groups[j].ServiceName
	})
	return groups
}

// DayGroups loads a date's appointments for a branch and groups them. A day
// with no appointments returns an empty slice and issues no further queries.
func (s *AttendanceService) DayGroups(organizationID, branchID uint, date time.Time) ([]ClassGroup, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := s.db.Preload("Service").Preload("Profile").Preload("Professional").Preload("Attendees").
		Where("organization_id = ? AND start_time >= ? AND start_time < ?", organizationID, dayStart, dayEnd)
	if branchID != 0 {
		query = query.Where("branch_id = ?", branchID)
	}

	var appointments []models.Appointment
	if err := query.Order("start_time").Find(&appointments).Error; err != nil {
		return nil, err
	}
	return GroupAppointments(appointments), nil
}

// rosterStatusRank orders present rows first.
func rosterStatusRank(status string) int {
	if status == "present" {
		return 0
	}
	return 1
}

// rosterTypeRank orders enrolled ahead of suggested and manual additions.
func rosterTypeRank(attendeeType string) int {
	if attendeeType == "enrolled" {
		return 0
	}
	return 1
}

// SortRoster applies the drawer's display order: present first, then enrolled
// before suggested/manual, then alphabetically by first name.
func SortRoster(entries []RosterEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if a, b := rosterStatusRank(entries[i].Status), rosterStatusRank(entries[j].Status); a != b {
			return a < b
		}
		if a, b := rosterTypeRank(entries[i].AttendeeType), rosterTypeRank(entries[j].AttendeeType); a != b {
			return a < b
		}
		return strings.ToLower(entries[i].FirstName) < strings.ToLower(entries[j].FirstName)
	})
}

// MergeSavedRecords overlays previously saved attendance records on the
// candidate roster. Records for students not in the roster join it as manual
// rows; matching rows take the saved status.
func MergeSavedRecords(entries []RosterEntry, records []models.AttendanceRecord) []RosterEntry {
	byStudent := make(map[uint]int, len(entries))
	for i, e := range entries {
		byStudent[e.StudentID] = i
	}
	for _, rec := range records {
		if i, ok := byStudent[rec.StudentID]; ok {
			entries[i].Status = rec.Status
			entries[i].Saved = true
			continue
		}
		entries = append(entries, RosterEntry{
			StudentID:    rec.StudentID,
			FirstName:    rec.Student.FirstName,
			LastName:     rec.Student.LastName,
			Status:       rec.Status,
			AttendeeType: "manual",
			Saved:        true,
		})
		byStudent[rec.StudentID] = len(entries) - 1
	}
	return entries
}

// BuildRoster assembles the candidate roster for a class group. Students
// enrolled through an active membership covering the service come first; when
// there are none, the 10 most recently created students org-wide are suggested
// and the class is marked open.
func (s *AttendanceService) BuildRoster(organizationID, serviceID uint, appointmentIDs []uint) (*Roster, error) {
	if len(appointmentIDs) == 0 {
		return &Roster{}, nil
	}
	// First appointment id is canonical for attendance records
	roster := &Roster{AppointmentID: appointmentIDs[0]}

	if cached := s.cachedRoster(roster.AppointmentID); cached != nil {
		return cached, nil
	}

	enrolled, err := s.enrolledStudents(organizationID, serviceID)
	if err != nil {
		return nil, err
	}
	for _, st := range enrolled {
		roster.Entries = append(roster.Entries, RosterEntry{
			StudentID:    st.ID,
			FirstName:    st.FirstName,
			LastName:     st.LastName,
			Status:       "present",
			AttendeeType: "enrolled",
		})
	}

	if len(roster.Entries) == 0 {
		roster.OpenClass = true
		var recent []models.Student
		if err := s.db.Where("organization_id = ?", organizationID).
			Order("created_at DESC").Limit(10).Find(&recent).Error; err != nil {
			return nil, err
		}
		for _, st := range recent {
			roster.Entries = append(roster.Entries, RosterEntry{
				StudentID:    st.ID,
				FirstName:    st.FirstName,
				LastName:     st.LastName,
				Status:       "absent",
				AttendeeType: "suggested",
			})
		}
	}

	var records []models.AttendanceRecord
	if err := s.db.Preload("Student").
		Where("appointment_id = ?", roster.AppointmentID).
		Find(&records).Error; err != nil {
		return nil, err
	}
	roster.Entries = MergeSavedRecords(roster.Entries, records)
	SortRoster(roster.Entries)

	s.cacheRoster(roster)
	return roster, nil
}

// enrolledStudents returns deduplicated students holding an active unexpired
// membership whose plan covers the service.
func (s *AttendanceService) enrolledStudents(organizationID, serviceID uint) ([]models.Student, error) {
	var memberships []models.Membership
	today := time.Now().Format("2006-01-02")
	err := s.db.Preload("Plan").Preload("Plan.Services").Preload("Student").
		Joins("JOIN students ON students.id = memberships.student_id").
		Where("students.organization_id = ? AND memberships.status = ? AND memberships.end_date >= ?",
			organizationID, "active", today).
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool)
	var students []models.Student
	for _, m := range memberships {
		if !PlanCoversService(m.Plan, serviceID) {
			continue
		}
		if seen[m.StudentID] {
			continue
		}
		seen[m.StudentID] = true
		students = append(students, m.Student)
	}
	return students, nil
}

// SaveAttendance upserts the roster's final statuses keyed on the unique
// (appointment_id, student_id) pair, so saving the same roster twice is a
// no-op for row counts.
func (s *AttendanceService) SaveAttendance(appointmentID uint, entries []RosterEntry, markedBy uint) error {
	if len(entries) == 0 {
		return nil
	}
	records := make([]models.AttendanceRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, models.AttendanceRecord{
			AppointmentID:  appointmentID,
			StudentID:      e.StudentID,
			Status:         e.Status,
			AttendeeType:   e.AttendeeType,
			MarkedByUserID: markedBy,
		})
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "appointment_id"}, {Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "attendee_type", "marked_by_user_id", "updated_at"}),
	}).Create(&records).Error
	if err != nil {
		return err
	}
	s.invalidateRoster(appointmentID)
	return nil
}

// SearchWalkIns finds students matching a live-search query, excluding ids
// already on the visible roster. Queries under 2 characters return nothing.
func (s *AttendanceService) SearchWalkIns(organizationID uint, query string, excludeIDs []uint) ([]models.Student, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return []models.Student{}, nil
	}
	pattern := "%" + query + "%"
	q := s.db.Where("organization_id = ?", organizationID).
		Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ?", pattern, pattern, pattern)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	var students []models.Student
	if err := q.Order("first_name").Limit(20).Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func rosterCacheKey(appointmentID uint) string {
	return fmt.Sprintf("roster:%d", appointmentID)
}

func (s *AttendanceService) cachedRoster(appointmentID uint) *Roster {
	if s.redis == nil || config.AppConfig == nil || config.AppConfig.RosterCacheTTL <= 0 {
		return nil
	}
	raw, err := s.redis.Get(context.Background(), rosterCacheKey(appointmentID)).Result()
	if err != nil {
		return nil
	}
	var roster Roster
	if err := json.Unmarshal([]byte(raw), &roster); err != nil {
		return nil
	}
	return &roster
}

func (s *AttendanceService) cacheRoster(roster *Roster) {
	if s.redis == nil || config.AppConfig == nil || config.AppConfig.RosterCacheTTL <= 0 {
		return
	}
	b, err := json.Marshal(roster)
	if err != nil {
		return
	}
	ttl := time.Duration(config.AppConfig.RosterCacheTTL) * time.Second
	if err := s.redis.Set(context.Background(), rosterCacheKey(roster.AppointmentID), b, ttl).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to cache roster")
	}
}

func (s *AttendanceService) invalidateRoster(appointmentID uint) {
	if s.redis == nil {
		return
	}
	s.redis.Del(context.Background(), rosterCacheKey(appointmentID))
}
