package services

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"studiopulse_go/database"
	"studiopulse_go/models"
)

// PayrollService computes monthly pay from private-class sales and persists
// finalized runs so a paid figure cannot silently change when a past
// appointment is edited.
type PayrollService struct {
	db *gorm.DB
}

func NewPayrollService() *PayrollService {
	return &PayrollService{db: database.DB}
}

// PayrollLine is the per-person breakdown of one payroll period.
type PayrollLine struct {
	PersonType           string  `json:"person_type"` // profile, professional
	PersonID             uint    `json:"person_id"`
	Name                 string  `json:"name"`
	BaseSalary           float64 `json:"base_salary"`
	CommissionPercentage float64 `json:"commission_percentage"`
	PrivateClassCount    int     `json:"private_class_count"`
	Sales                float64 `json:"sales"`
	Commission           float64 `json:"commission"`
	TotalPayable         float64 `json:"total_payable"`
}

// PayrollSummary is one computed period.
type PayrollSummary struct {
	Period          string        `json:"period"`
	Lines           []PayrollLine `json:"lines"`
	TotalBase       float64       `json:"total_base"`
	TotalCommission float64       `json:"total_commission"`
	TotalPayable    float64       `json:"total_payable"`
}

// Commission applies a person's commission percentage to their sales.
func Commission(sales, percentage float64) float64 {
	return sales * percentage / 100
}

// BuildPayrollLines reduces a month's private-class appointments against the
// staff roster. Sales per person is the sum of price_at_booking of the private
// classes assigned to them; total payable is base salary plus commission.
func BuildPayrollLines(staff []models.User, professionals []models.Professional, appointments []models.Appointment) []PayrollLine {
	type sales struct {
		amount float64
		count  int
	}
	profileSales := make(map[uint]*sales)
	proSales := make(map[uint]*sales)
	for _, a := range appointments {
		if !a.IsPrivateClass {
			continue
		}
		if a.ProfileID != nil {
			s := profileSales[*a.ProfileID]
			if s == nil {
				s = &sales{}
				profileSales[*a.ProfileID] = s
			}
			s.amount += a.PriceAtBooking
			s.count++
		} else if a.ProfessionalID != nil {
			s := proSales[*a.ProfessionalID]
			if s == nil {
				s = &sales{}
				proSales[*a.ProfessionalID] = s
			}
			s.amount += a.PriceAtBooking
			s.count++
		}
	}

	lines := make([]PayrollLine, 0, len(staff)+len(professionals))
	for _, u := range staff {
		line := PayrollLine{
			PersonType:           "profile",
			PersonID:             u.ID,
			Name:                 u.FullName,
			BaseSalary:           u.BaseSalary,
			CommissionPercentage: u.CommissionPercentage,
		}
		if s := profileSales[u.ID]; s != nil {
			line.Sales = s.amount
			line.PrivateClassCount = s.count
		}
		line.Commission = Commission(line.Sales, line.CommissionPercentage)
		line.TotalPayable = line.BaseSalary + line.Commission
		lines = append(lines, line)
	}
	for _, p := range professionals {
		line := PayrollLine{
			PersonType:           "professional",
			PersonID:             p.ID,
			Name:                 p.FullName,
			BaseSalary:           p.BaseSalary,
			CommissionPercentage: p.CommissionPercentage,
		}
		if s := proSales[p.ID]; s != nil {
			line.Sales = s.amount
			line.PrivateClassCount = s.count
		}
		line.Commission = Commission(line.Sales, line.CommissionPercentage)
		line.TotalPayable = line.BaseSalary + line.Commission
		lines = append(lines, line)
	}
	return lines
}

// Summarize totals a set of payroll lines.
func Summarize(period string, lines []PayrollLine) PayrollSummary {
	summary := PayrollSummary{Period: period, Lines: lines}
	for _, l := range lines {
		summary.TotalBase += l.BaseSalary
		summary.TotalCommission += l.Commission
		summary.TotalPayable += l.TotalPayable
	}
	return summary
}

// ComputeMonth recomputes payroll for one YYYY-MM period from current rows.
func (s *PayrollService) ComputeMonth(organizationID, branchID uint, period string) (*PayrollSummary, error) {
	monthStart, err := time.ParseInLocation("2006-01", period, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid period %q, expected YYYY-MM", period)
	}
	monthEnd := monthStart.AddDate(0, 1, 0)

	var staff []models.User
	if err := s.db.Where("organization_id = ? AND status = ?", organizationID, "active").
		Find(&staff).Error; err != nil {
		return nil, err
	}
	var professionals []models.Professional
	if err := s.db.Where("organization_id = ? AND active = ?", organizationID, true).
		Find(&professionals).Error; err != nil {
		return nil, err
	}

	query := s.db.Where("organization_id = ? AND is_private_class = ? AND start_time >= ? AND start_time < ?",
		organizationID, true, monthStart, monthEnd).
		Where("status <> ?", "cancelled")
	if branchID != 0 {
		query = query.Where("branch_id = ?", branchID)
	}
	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return nil, err
	}

	summary := Summarize(period, BuildPayrollLines(staff, professionals, appointments))
	return &summary, nil
}

// CreateRun freezes the current computation for a period into a PayrollRun row.
func (s *PayrollService) CreateRun(organizationID, branchID uint, period string, actorID uint) (*models.PayrollRun, error) {
	summary, err := s.ComputeMonth(organizationID, branchID, period)
	if err != nil {
		return nil, err
	}
	linesJSON, err := json.Marshal(summary.Lines)
	if err != nil {
		return nil, err
	}
	run := models.PayrollRun{
		OrganizationID:  organizationID,
		BranchID:        branchID,
		Period:          period,
		TotalBase:       summary.TotalBase,
		TotalCommission: summary.TotalCommission,
		TotalPayable:    summary.TotalPayable,
		Lines:           linesJSON,
		CreatedByUserID: actorID,
	}
	if err := s.db.Create(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}
