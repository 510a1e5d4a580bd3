package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Organization is the tenant root. Every domain row hangs off one organization.
type Organization struct {
	BaseModel
	Name        string `json:"name" gorm:"size:255;not null"`
	Industry    string `json:"industry" gorm:"size:100"`
	SecurityPin string `json:"-" gorm:"size:255"` // bcrypt hash, verified before destructive actions
	Active      bool   `json:"active" gorm:"default:true"`

	// Relationships
	Branches []Branch `json:"branches,omitempty" gorm:"foreignKey:OrganizationID"`
}

// Branch model
type Branch struct {
	BaseModel
	OrganizationID uint   `json:"organization_id" gorm:"not null;index"`
	Name           string `json:"name" gorm:"size:255;not null"`
	Address        string `json:"address" gorm:"size:500"`
	Timezone       string `json:"timezone" gorm:"size:64;default:'America/Caracas'"`
	Active         bool   `json:"active" gorm:"default:true"`

	// Relationships
	Organization Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
}

// User is an internal staff member with a login (the profile row of the original app).
type User struct {
	BaseModel
	Username             string     `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password             string     `json:"-" gorm:"size:255"`
	Email                string     `json:"email" gorm:"size:255;uniqueIndex"`
	Phone                string     `json:"phone" gorm:"size:20"`
	FullName             string     `json:"full_name" gorm:"size:200"`
	Role                 string     `json:"role" gorm:"size:50;not null;default:'staff';type:enum('super_admin','owner','staff')"` // super_admin, owner, staff
	OrganizationID       uint       `json:"organization_id" gorm:"index"`
	BranchID             uint       `json:"branch_id"` // assigned branch
	Status               string     `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','pending')"`
	BaseSalary           float64    `json:"base_salary"`
	CommissionPercentage float64    `json:"commission_percentage"`
	InvitationToken      string     `json:"-" gorm:"size:255;index"`
	InvitationExpires    *time.Time `json:"-"`

	// Relationships
	Organization Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Branch       Branch       `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
}

// Professional is an external teacher without a login. Payroll fields mirror User.
type Professional struct {
	BaseModel
	OrganizationID       uint    `json:"organization_id" gorm:"not null;index"`
	BranchID             uint    `json:"branch_id"`
	FullName             string  `json:"full_name" gorm:"size:200;not null"`
	Phone                string  `json:"phone" gorm:"size:20"`
	BaseSalary           float64 `json:"base_salary"`
	CommissionPercentage float64 `json:"commission_percentage"`
	Active               bool    `json:"active" gorm:"default:true"`

	// Relationships
	Organization Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Branch       Branch       `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
}

// Student model
type Student struct {
	BaseModel
	OrganizationID uint   `json:"organization_id" gorm:"not null;index"`
	BranchID       uint   `json:"branch_id" gorm:"index"`
	FirstName      string `json:"first_name" gorm:"size:100;not null"`
	LastName       string `json:"last_name" gorm:"size:100"`
	Email          string `json:"email" gorm:"size:255"`
	Phone          string `json:"phone" gorm:"size:20"`
	Notes          string `json:"notes" gorm:"type:text"`
	PhotoURL       string `json:"photo_url" gorm:"size:500"`

	// Relationships
	Organization Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Branch       Branch       `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	Memberships  []Membership `json:"memberships,omitempty" gorm:"foreignKey:StudentID"`
}

// Service is a bookable class type with a price
type Service struct {
	BaseModel
	OrganizationID uint    `json:"organization_id" gorm:"not null;index"`
	Name           string  `json:"name" gorm:"size:255;not null"`
	Price          float64 `json:"price" gorm:"not null"`
	Active         bool    `json:"active" gorm:"default:true"`

	// Relationships
	Organization Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
}

// Plan is a membership product. Services are linked through the
// plan_services_access junction; ServiceID is the legacy single-service
// fallback column still honoured on reads.
type Plan struct {
	BaseModel
	OrganizationID uint    `json:"organization_id" gorm:"not null;index"`
	Name           string  `json:"name" gorm:"size:255;not null"`
	DurationDays   int     `json:"duration_days" gorm:"not null"`
	Price          float64 `json:"price" gorm:"not null"`
	ServiceID      *uint   `json:"service_id"` // legacy fallback
	Active         bool    `json:"active" gorm:"default:true"`

	// Relationships
	Organization Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Services     []Service    `json:"services,omitempty" gorm:"many2many:plan_services_access;"`
}

// Membership is a student's subscription to a plan
type Membership struct {
	BaseModel
	StudentID uint      `json:"student_id" gorm:"not null;index"`
	PlanID    uint      `json:"plan_id" gorm:"not null"`
	StartDate time.Time `json:"start_date" gorm:"not null"`
	EndDate   time.Time `json:"end_date" gorm:"not null;index"`
	Status    string    `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','expired','cancelled')"` // active, expired, cancelled

	// Relationships
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Plan    Plan    `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
}

// Appointment is one scheduled class occurrence. Exactly one of ProfileID /
// ProfessionalID is set. PriceAtBooking is a snapshot of the service price at
// creation time and is never recomputed.
type Appointment struct {
	BaseModel
	OrganizationID  uint      `json:"organization_id" gorm:"not null;index"`
	BranchID        uint      `json:"branch_id" gorm:"index"`
	ServiceID       uint      `json:"service_id" gorm:"not null;index"`
	StartTime       time.Time `json:"start_time" gorm:"not null;index"`
	DurationMinutes int       `json:"duration_minutes" gorm:"default:60"`
	ProfileID       *uint     `json:"profile_id"`      // internal staff teacher
	ProfessionalID  *uint     `json:"professional_id"` // external teacher
	IsPrivateClass  bool      `json:"is_private_class" gorm:"default:false"`
	PriceAtBooking  float64   `json:"price_at_booking"`
	Status          string    `json:"status" gorm:"size:50;not null;default:'scheduled';type:enum('scheduled','completed','cancelled')"`
	Notes           string    `json:"notes" gorm:"type:text"`

	// Relationships
	Service      Service               `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	Profile      *User                 `json:"profile,omitempty" gorm:"foreignKey:ProfileID"`
	Professional *Professional         `json:"professional,omitempty" gorm:"foreignKey:ProfessionalID"`
	Attendees    []AppointmentAttendee `json:"attendees,omitempty" gorm:"foreignKey:AppointmentID"`
}

// AppointmentAttendee is the many-to-many join between appointments and
// students. This is the only attendee model; the original app's legacy single
// student_id column on appointments is not carried over.
type AppointmentAttendee struct {
	BaseModel
	AppointmentID         uint  `json:"appointment_id" gorm:"not null;uniqueIndex:idx_appointment_student"`
	StudentID             uint  `json:"student_id" gorm:"not null;uniqueIndex:idx_appointment_student"`
	CoveredByMembershipID *uint `json:"covered_by_membership_id"`

	// Relationships
	Appointment Appointment `json:"appointment,omitempty" gorm:"foreignKey:AppointmentID"`
	Student     Student     `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// AttendanceRecord stores final attendance per (appointment, student). Rows are
// upserted on the unique pair and never hard-deleted.
type AttendanceRecord struct {
	BaseModel
	AppointmentID  uint   `json:"appointment_id" gorm:"not null;uniqueIndex:idx_attendance_pair"`
	StudentID      uint   `json:"student_id" gorm:"not null;uniqueIndex:idx_attendance_pair"`
	Status         string `json:"status" gorm:"size:50;not null;default:'present';type:enum('present','absent','late')"` // present, absent, late
	AttendeeType   string `json:"attendee_type" gorm:"size:50;default:'enrolled';type:enum('enrolled','suggested','manual')"`
	MarkedByUserID uint   `json:"marked_by_user_id"`

	// Relationships
	Appointment Appointment `json:"appointment,omitempty" gorm:"foreignKey:AppointmentID"`
	Student     Student     `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// StaffSchedule is one weekly availability row for a teacher at a branch.
/// Times are stored as "HH:MM" strings to keep them timezone-neutral.
type StaffSchedule struct {
	BaseModel
	ProfileID      *uint  `json:"profile_id"`
	ProfessionalID *uint  `json:"professional_id"`
	BranchID       uint   `json:"branch_id" gorm:"not null;index"`
	Weekday        int    `json:"weekday" gorm:"not null"` // 0 = Sunday ... 6 = Saturday
	StartTime      string `json:"start_time" gorm:"size:5;not null"`
	EndTime        string `json:"end_time" gorm:"size:5;not null"`
}

// Transaction is an append-only financial ledger entry
type Transaction struct {
	BaseModel
	OrganizationID  uint    `json:"organization_id" gorm:"not null;index"`
	BranchID        uint    `json:"branch_id" gorm:"index"`
	StudentID       *uint   `json:"student_id" gorm:"index"`
	Amount          float64 `json:"amount" gorm:"not null"`
	PaymentMethod   string  `json:"payment_method" gorm:"size:50;not null;default:'cash';type:enum('cash','card','transfer','other')"`
	Concept         string  `json:"concept" gorm:"size:255"`
	AppointmentID   *uint   `json:"appointment_id"`
	MembershipID    *uint   `json:"membership_id"`
	ReceiptNo       string  `json:"receipt_no" gorm:"size:64;uniqueIndex"`
	RowUID          string  `json:"row_uid" gorm:"size:500;index"` // dedup key for imported rows
	CreatedByUserID uint    `json:"created_by_user_id"`

	// Relationships
	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// PayrollRun is a persisted, finalized payroll computation for one month. The
// live payroll endpoint recomputes from raw rows; a run freezes the figures so
// later edits to past appointments cannot silently change a paid amount.
type PayrollRun struct {
	BaseModel
	OrganizationID  uint    `json:"organization_id" gorm:"not null;index"`
	BranchID        uint    `json:"branch_id"`
	Period          string  `json:"period" gorm:"size:7;not null;index"` // YYYY-MM
	TotalBase       float64 `json:"total_base"`
	TotalCommission float64 `json:"total_commission"`
	TotalPayable    float64 `json:"total_payable"`
	Lines           JSON    `json:"lines" gorm:"type:json"` // per-person breakdown
	CreatedByUserID uint    `json:"created_by_user_id"`
}

// ActivityLog for audit tracking
type ActivityLog struct {
	BaseModel
	UserID         uint   `json:"user_id"`
	OrganizationID uint   `json:"organization_id" gorm:"index"`

	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null;index"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null"` // info, class_reminder, membership_expired, ...
	Data    JSON       `json:"data" gorm:"type:json"`
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LogArchive tracks activity logs exported to S3
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
