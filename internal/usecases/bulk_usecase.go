package usecases

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"leadhub.backend/internal/domain/entities"
	domainerrors "leadhub.backend/internal/domain/errors"
	"leadhub.backend/internal/domain/repositories"
	"leadhub.backend/pkg/logger"
)

// MaxImportSize is the CSV upload ceiling, checked before parsing
const MaxImportSize = 10 * 1024 * 1024

// csvColumns is the canonical column order shared by the template and the
// export; the import accepts the same names in any order.
var csvColumns = []string{"name", "email", "phone", "address", "loanAmount", "notes"}

var requiredCSVColumns = []string{"name", "email", "phone", "loanAmount"}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
var phonePattern = regexp.MustCompile(`^[0-9+\-().\s]{10,15}$`)

func validEmail(s string) bool { return emailPattern.MatchString(s) }
func validPhone(s string) bool { return phonePattern.MatchString(s) }

// RowError reports one failed import row. Row is the 1-based data row,
// not counting the header.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes a bulk import. Valid rows commit even when others
// fail.
type ImportResult struct {
	Count        int        `json:"count"`
	SuccessCount int        `json:"successCount"`
	FailureCount int        `json:"failureCount"`
	Errors       []RowError `json:"errors"`
}

// BulkUsecase handles CSV import and export of leads
type BulkUsecase struct {
	leadRepo      repositories.LeadRepository
	affiliateRepo repositories.AffiliateRepository
	metrics       *MetricsUsecase
}

// NewBulkUsecase creates a new bulk usecase
func NewBulkUsecase(leadRepo repositories.LeadRepository, affiliateRepo repositories.AffiliateRepository, metrics *MetricsUsecase) *BulkUsecase {
	return &BulkUsecase{
		leadRepo:      leadRepo,
		affiliateRepo: affiliateRepo,
		metrics:       metrics,
	}
}

// Import parses a CSV upload and creates a lead per valid row. Each row
// commits independently; failures come back with their 1-based data row
// number and never abort the rest of the file.
func (u *BulkUsecase) Import(ctx context.Context, ident *entities.Identity, fileName string, fileSize int64, file io.Reader, requestedAffiliate string) (*ImportResult, error) {
	if fileSize > MaxImportSize {
		return nil, domainerrors.Validation("File exceeds the 10MB limit")
	}
	if strings.ToLower(filepath.Ext(fileName)) != ".csv" {
		return nil, domainerrors.Validation("Only .csv files are accepted")
	}

	affiliateID, err := resolveAffiliate(ctx, u.affiliateRepo, ident, requestedAffiliate)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(io.LimitReader(file, MaxImportSize+1))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, domainerrors.Validation("Empty or unreadable CSV file")
	}
	columns, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []RowError{}}
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Count++
			result.FailureCount++
			result.Errors = append(result.Errors, RowError{Row: row, Message: "Malformed CSV row"})
			continue
		}
		result.Count++

		input, rowErr := parseRow(columns, record)
		if rowErr != "" {
			result.FailureCount++
			result.Errors = append(result.Errors, RowError{Row: row, Message: rowErr})
			continue
		}

		lead := &entities.Lead{
			ID:          uuid.New(),
			Name:        input.Name,
			Email:       input.Email,
			Phone:       input.Phone,
			Address:     null.NewString(input.Address, input.Address != ""),
			LoanAmount:  input.LoanAmount,
			Notes:       null.NewString(input.Notes, input.Notes != ""),
			Status:      entities.LeadStatusNew,
			AffiliateID: affiliateID,
			StatusHistory: []*entities.StatusHistoryItem{{
				ID:            uuid.New(),
				Status:        entities.LeadStatusNew,
				ChangedBy:     ident.UserID,
				ChangedByName: ident.Name,
				ChangedAt:     time.Now(),
				Notes:         null.StringFrom("Imported from CSV"),
			}},
		}
		if err := u.leadRepo.Create(ctx, lead); err != nil {
			logger.Warn(ctx, "bulk import row failed to persist", zap.Int("row", row), zap.Error(err))
			result.FailureCount++
			result.Errors = append(result.Errors, RowError{Row: row, Message: "Failed to save lead"})
			continue
		}
		result.SuccessCount++
	}

	if result.SuccessCount > 0 && u.metrics != nil {
		u.metrics.Invalidate(ctx)
	}
	return result, nil
}

// mapHeader resolves each canonical column to its index in the header.
// Unknown columns are rejected; the optional columns may be absent.
func mapHeader(header []string) (map[string]int, error) {
	known := make(map[string]bool, len(csvColumns))
	for _, c := range csvColumns {
		known[c] = true
	}

	columns := make(map[string]int, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
		if !known[name] {
			return nil, domainerrors.Validation(fmt.Sprintf("Unknown column: %s", name))
		}
		if _, dup := columns[name]; dup {
			return nil, domainerrors.Validation(fmt.Sprintf("Duplicate column: %s", name))
		}
		columns[name] = i
	}
	for _, required := range requiredCSVColumns {
		if _, ok := columns[required]; !ok {
			return nil, domainerrors.Validation(fmt.Sprintf("Missing required column: %s", required))
		}
	}
	return columns, nil
}

type csvRow struct {
	Name       string
	Email      string
	Phone      string
	Address    string
	LoanAmount float64
	Notes      string
}

func parseRow(columns map[string]int, record []string) (*csvRow, string) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := &csvRow{
		Name:    field("name"),
		Email:   field("email"),
		Phone:   field("phone"),
		Address: field("address"),
		Notes:   field("notes"),
	}

	for _, required := range []struct{ name, value string }{
		{"name", row.Name},
		{"email", row.Email},
		{"phone", row.Phone},
		{"loanAmount", field("loanAmount")},
	} {
		if required.value == "" {
			return nil, fmt.Sprintf("Missing required field: %s", required.name)
		}
	}

	if !validEmail(row.Email) {
		return nil, "Invalid email format"
	}
	if !validPhone(row.Phone) {
		return nil, "Invalid phone number"
	}

	amount, err := strconv.ParseFloat(field("loanAmount"), 64)
	if err != nil || math.IsNaN(amount) || amount <= 0 {
		return nil, "Invalid loan amount"
	}
	if amount < entities.MinLoanAmount || amount > entities.MaxLoanAmount {
		return nil, fmt.Sprintf("Loan amount must be between %d and %d", entities.MinLoanAmount, entities.MaxLoanAmount)
	}
	row.LoanAmount = amount

	return row, ""
}

// Export writes the filtered lead set as CSV with the canonical columns.
// Listing filters apply; pagination does not.
func (u *BulkUsecase) Export(ctx context.Context, ident *entities.Identity, filter entities.LeadFilter) ([]byte, error) {
	if ident.Role.IsAffiliate() {
		filter.AffiliateID = ident.AffiliateID
	}

	leads, err := u.leadRepo.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvColumns); err != nil {
		return nil, err
	}
	for _, lead := range leads {
		record := []string{
			lead.Name,
			lead.Email,
			lead.Phone,
			lead.Address.String,
			strconv.FormatFloat(lead.LoanAmount, 'f', -1, 64),
			lead.Notes.String,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Template returns the import template: the canonical header plus one
// illustrative row.
func (u *BulkUsecase) Template() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(csvColumns)
	w.Write([]string{"Jane Doe", "jane@example.com", "555-123-4567", "1 Main St", "25000", "Referred by partner"})
	w.Flush()
	return buf.Bytes()
}

// resolveAffiliate determines which affiliate new leads belong to.
// Affiliate-scoped callers always write under their own affiliate; a company
// admin must name one explicitly.
func resolveAffiliate(ctx context.Context, affiliateRepo repositories.AffiliateRepository, ident *entities.Identity, requested string) (uuid.UUID, error) {
	if ident.Role.IsAffiliate() {
		if ident.AffiliateID == nil {
			return uuid.Nil, domainerrors.Forbidden("No affiliate assigned to this account")
		}
		return *ident.AffiliateID, nil
	}

	if requested == "" {
		return uuid.Nil, domainerrors.Validation("affiliateId is required")
	}
	affiliateID, err := uuid.Parse(requested)
	if err != nil {
		return uuid.Nil, domainerrors.Validation("Invalid affiliateId")
	}
	if _, err := affiliateRepo.GetByID(ctx, affiliateID); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return uuid.Nil, domainerrors.Validation("Unknown affiliate")
		}
		return uuid.Nil, err
	}
	return affiliateID, nil
}
