package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/services"
)

// PayrollController exposes monthly payroll computation and finalized runs.
// All routes are owner-only.
type PayrollController struct{}

func payrollPeriod(c *fiber.Ctx) string {
	period := c.Query("period")
	if period == "" {
		period = time.Now().Format("2006-01")
	}
	return period
}

// GetPayroll computes the live payroll for a period (?period=YYYY-MM, default
// current month; ?branch_id optional).
func (pc *PayrollController) GetPayroll(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	branchID := uint(c.QueryInt("branch_id"))
	summary, err := services.NewPayrollService().ComputeMonth(claims.OrganizationID, branchID, payrollPeriod(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(summary)
}

// CreatePayrollRun freezes the current computation into a persisted run
func (pc *PayrollController) CreatePayrollRun(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req struct {
		Period   string `json:"period" validate:"required,len=7"`
		BranchID uint   `json:"branch_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	run, err := services.NewPayrollService().CreateRun(claims.OrganizationID, req.BranchID, req.Period, claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	middleware.LogActivity(c, "CREATE", "payroll_runs", run.ID, fiber.Map{
		"period":        run.Period,
		"total_payable": run.TotalPayable,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payroll run created successfully",
		"run":     run,
	})
}

// GetPayrollRuns lists persisted runs, newest first
func (pc *PayrollController) GetPayrollRuns(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query := database.DB.Where("organization_id = ?", claims.OrganizationID)
	if period := c.Query("period"); period != "" {
		query = query.Where("period = ?", period)
	}

	var runs []models.PayrollRun
	if err := query.Order("period DESC, created_at DESC").Find(&runs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch payroll runs"})
	}

	return c.JSON(fiber.Map{"runs": runs})
}

// ExportPayroll streams a period's live computation as an XLSX file
func (pc *PayrollController) ExportPayroll(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	branchID := uint(c.QueryInt("branch_id"))
	period := payrollPeriod(c)
	summary, err := services.NewPayrollService().ComputeMonth(claims.OrganizationID, branchID, period)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Payroll"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Type", "Name", "Base Salary", "Commission %", "Private Classes", "Sales", "Commission", "Total Payable"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for i, l := range summary.Lines {
		row := i + 2
		values := []interface{}{
			l.PersonType, l.Name, l.BaseSalary, l.CommissionPercentage,
			l.PrivateClassCount, l.Sales, l.Commission, l.TotalPayable,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}
	totalsRow := len(summary.Lines) + 3
	f.SetCellValue(sheet, fmt.Sprintf("B%d", totalsRow), "Totals")
	f.SetCellValue(sheet, fmt.Sprintf("C%d", totalsRow), summary.TotalBase)
	f.SetCellValue(sheet, fmt.Sprintf("G%d", totalsRow), summary.TotalCommission)
	f.SetCellValue(sheet, fmt.Sprintf("H%d", totalsRow), summary.TotalPayable)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build export"})
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("payroll_%s.xlsx", period)))
	return c.Send(buf.Bytes())
}
