package controllers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/storage"
	"studiopulse_go/utils"
)

// TransactionController manages the append-only payment ledger.
type TransactionController struct{}

// TransactionRequest represents a manual ledger entry
type TransactionRequest struct {
	StudentID     *uint   `json:"student_id"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
	Concept       string  `json:"concept" validate:"required,min=2,max=255"`
	BranchID      uint    `json:"branch_id"`
}

// CreateTransaction records a manual payment (walk-in class, product sale, etc.)
func (tc *TransactionController) CreateTransaction(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if !utils.IsValidPaymentMethod(req.PaymentMethod) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment method"})
	}

	if req.StudentID != nil {
		var student models.Student
		if err := database.DB.Where("id = ? AND organization_id = ?", *req.StudentID, claims.OrganizationID).
			First(&student).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
		}
	}

	branchID := req.BranchID
	if branchID == 0 {
		branchID = claims.BranchID
	}

	txn := models.Transaction{
		OrganizationID:  claims.OrganizationID,
		BranchID:        branchID,
		StudentID:       req.StudentID,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		Concept:         utils.SanitizeString(req.Concept),
		ReceiptNo:       uuid.NewString(),
		CreatedByUserID: claims.UserID,
	}
	if err := database.DB.Create(&txn).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create transaction"})
	}

	middleware.LogActivity(c, "CREATE", "transactions", txn.ID, fiber.Map{
		"amount":  txn.Amount,
		"concept": txn.Concept,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Transaction recorded successfully",
		"transaction": txn,
	})
}

// transactionsQuery builds the filtered ledger query from request params
func transactionsQuery(c *fiber.Ctx, organizationID uint) (*gorm.DB, error) {
	query := database.DB.Model(&models.Transaction{}).
		Where("organization_id = ?", organizationID)

	if from := c.Query("from"); from != "" {
		parsed, err := time.ParseInLocation("2006-01-02", from, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid from date, expected YYYY-MM-DD")
		}
		query = query.Where("created_at >= ?", parsed)
	}
	if to := c.Query("to"); to != "" {
		parsed, err := time.ParseInLocation("2006-01-02", to, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid to date, expected YYYY-MM-DD")
		}
		query = query.Where("created_at < ?", parsed.AddDate(0, 0, 1))
	}
	if branchID := c.QueryInt("branch_id"); branchID > 0 {
		query = query.Where("branch_id = ?", branchID)
	}
	if studentID := c.QueryInt("student_id"); studentID > 0 {
		query = query.Where("student_id = ?", studentID)
	}
	if method := c.Query("payment_method"); method != "" {
		query = query.Where("payment_method = ?", method)
	}
	return query, nil
}

// GetTransactions lists ledger entries with filters and pagination
func (tc *TransactionController) GetTransactions(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query, err := transactionsQuery(c, claims.OrganizationID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var total int64
	query.Count(&total)

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 50)
	if perPage < 1 || perPage > 500 {
		perPage = 50
	}

	var transactions []models.Transaction
	if err := query.Preload("Student").
		Order("created_at DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&transactions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch transactions"})
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
		"total":        total,
		"page":         page,
		"per_page":     perPage,
	})
}

// GetSummary totals the filtered range by payment method and by concept prefix
func (tc *TransactionController) GetSummary(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query, err := transactionsQuery(c, claims.OrganizationID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch transactions"})
	}

	byMethod := map[string]float64{}
	var classes, plans, other float64
	var total float64
	for _, t := range transactions {
		byMethod[t.PaymentMethod] += t.Amount
		total += t.Amount
		switch {
		case strings.HasPrefix(t.Concept, "Clase: "):
			classes += t.Amount
		case strings.HasPrefix(t.Concept, "Plan: "):
			plans += t.Amount
		default:
			other += t.Amount
		}
	}

	return c.JSON(fiber.Map{
		"total":             total,
		"count":             len(transactions),
		"by_payment_method": byMethod,
		"by_concept": fiber.Map{
			"classes": classes,
			"plans":   plans,
			"other":   other,
		},
	})
}

// ExportTransactions streams the filtered ledger as an XLSX file
func (tc *TransactionController) ExportTransactions(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query, err := transactionsQuery(c, claims.OrganizationID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var transactions []models.Transaction
	if err := query.Preload("Student").Order("created_at").Find(&transactions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch transactions"})
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Transactions"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Receipt No", "Date", "Student", "Concept", "Payment Method", "Amount"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for i, t := range transactions {
		row := i + 2
		student := ""
		if t.Student != nil {
			student = strings.TrimSpace(t.Student.FirstName + " " + t.Student.LastName)
		}
		values := []interface{}{
			t.ReceiptNo,
			t.CreatedAt.Format("2006-01-02 15:04"),
			student,
			t.Concept,
			t.PaymentMethod,
			t.Amount,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build export"})
	}

	// ?upload=true stores the file in S3 and returns its URL instead of streaming
	if c.Query("upload") == "true" {
		store, err := storage.NewStorageService()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Storage not configured"})
		}
		url, err := store.UploadBytes(buf.Bytes(), "exports", claims.OrganizationID, "xlsx")
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload export"})
		}
		return c.JSON(fiber.Map{"message": "Export uploaded successfully", "url": url})
	}

	filename := fmt.Sprintf("transactions_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}

// ImportTransactions ingests a CSV/XLSX ledger export. A deterministic row UID
// built from the key columns makes re-imports idempotent: rows already present
// are counted as duplicates and skipped.
// Expected columns: Date, Amount, Payment Method, Concept, Student Email (optional).
func (tc *TransactionController) ImportTransactions(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	filename := strings.ToLower(fileHeader.Filename)
	var rows [][]string
	if strings.HasSuffix(filename, ".csv") {
		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot open file"})
		}
		defer file.Close()
		rows, err = readCSVRows(file)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	} else if strings.HasSuffix(filename, ".xlsx") || strings.HasSuffix(filename, ".xls") {
		// Buffer to temp path for excelize
		tmpDir, _ := os.MkdirTemp("", "sp-ledger-")
		tmp := filepath.Join(tmpDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(fileHeader.Filename)))
		if err := c.SaveFile(fileHeader, tmp); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to buffer upload"})
		}
		var rerr error
		rows, rerr = readXLSXRows(tmp)
		_ = os.Remove(tmp)
		if rerr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": rerr.Error()})
		}
	} else {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported file type (csv, xlsx)"})
	}

	if len(rows) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is empty"})
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"Date", "Amount", "Payment Method", "Concept"} {
		if _, ok := col[required]; !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing column: " + required})
		}
	}

	inserted := 0
	duplicates := 0
	skipped := 0
	var errorsList []string

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		for i := 1; i < len(rows); i++ {
			r := rows[i]
			get := func(key string) string {
				if idx, ok := col[key]; ok && idx < len(r) {
					return strings.TrimSpace(r[idx])
				}
				return ""
			}

			dateStr := get("Date")
			amountStr := strings.ReplaceAll(get("Amount"), ",", "")
			concept := get("Concept")
			method := get("Payment Method")

			amount, err := strconv.ParseFloat(amountStr, 64)
			if err != nil || amount <= 0 {
				skipped++
				errorsList = append(errorsList, fmt.Sprintf("row %d: invalid amount %q", i+1, amountStr))
				continue
			}
			createdAt, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
			if err != nil {
				skipped++
				errorsList = append(errorsList, fmt.Sprintf("row %d: invalid date %q", i+1, dateStr))
				continue
			}
			if !utils.IsValidPaymentMethod(method) {
				method = "other"
			}

			// Deterministic UID from the key columns keeps re-imports idempotent
			rowUID := strings.Join([]string{
				strconv.FormatUint(uint64(claims.OrganizationID), 10),
				dateStr, amountStr, method, concept, get("Student Email"),
			}, "|")

			var existing models.Transaction
			if err := tx.Where("row_uid = ? AND organization_id = ?", rowUID, claims.OrganizationID).
				First(&existing).Error; err == nil {
				duplicates++
				continue
			}

			var studentID *uint
			if email := get("Student Email"); email != "" {
				var student models.Student
				if err := tx.Where("email = ? AND organization_id = ?", email, claims.OrganizationID).
					First(&student).Error; err == nil {
					id := student.ID
					studentID = &id
				}
			}

			txn := models.Transaction{
				OrganizationID:  claims.OrganizationID,
				BranchID:        claims.BranchID,
				StudentID:       studentID,
				Amount:          amount,
				PaymentMethod:   method,
				Concept:         concept,
				ReceiptNo:       uuid.NewString(),
				RowUID:          rowUID,
				CreatedByUserID: claims.UserID,
			}
			txn.CreatedAt = createdAt
			if err := tx.Create(&txn).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Import failed, no rows were written"})
	}

	middleware.LogActivity(c, "IMPORT", "transactions", 0, fiber.Map{
		"inserted":   inserted,
		"duplicates": duplicates,
		"skipped":    skipped,
	})

	return c.JSON(fiber.Map{
		"message":    "Import completed",
		"inserted":   inserted,
		"duplicates": duplicates,
		"skipped":    skipped,
		"errors":     errorsList,
	})
}

func readCSVRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	if sheet == "" {
		sheet = "Sheet1"
	}
	return f.GetRows(sheet)
}
