// Package export generates downloadable publish-history reports.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fiddyhq/autopublisher/pkg/models"
	"github.com/fiddyhq/autopublisher/pkg/store"
)

// Formats accepted by PublishHistory.
const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

// maxExportItems caps one report so a busy account cannot produce an
// unbounded file.
const maxExportItems = 10000

// Service handles export business logic
type Service struct {
	store *store.Store
}

// NewService creates a new export service
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// PublishHistory generates a report of the user's content items across all
// their campaigns. Returns the suggested filename and the file bytes.
func (s *Service) PublishHistory(ctx context.Context, userID int64, format string) (string, []byte, error) {
	if format != FormatCSV && format != FormatExcel {
		return "", nil, fmt.Errorf("invalid format: must be csv or excel")
	}

	items, err := s.store.ListUserContentItems(ctx, userID, maxExportItems)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load content items: %w", err)
	}

	campaigns, err := s.store.ListCampaigns(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load campaigns: %w", err)
	}
	campaignNames := make(map[int64]string, len(campaigns))
	for _, c := range campaigns {
		campaignNames[c.ID] = c.Name
	}

	timestamp := time.Now().UTC().Format("20060102-150405")

	var content []byte
	var filename string
	if format == FormatCSV {
		filename = fmt.Sprintf("publish-history-%s.csv", timestamp)
		content, err = generateCSV(items, campaignNames)
	} else {
		filename = fmt.Sprintf("publish-history-%s.xlsx", timestamp)
		content, err = generateExcel(items, campaignNames)
	}
	if err != nil {
		return "", nil, err
	}

	return filename, content, nil
}

var reportHeaders = []string{
	"ID", "Campaign", "Title", "Status", "Post URL", "Keywords",
	"Scheduled For", "Completed At", "Error",
}

func reportRow(item *models.ContentItem, campaignNames map[int64]string) []string {
	completedAt := ""
	if item.CompletedAt != nil {
		completedAt = item.CompletedAt.Format(time.RFC3339)
	}
	return []string{
		strconv.FormatInt(item.ID, 10),
		campaignNames[item.CampaignID],
		item.Title,
		item.Status,
		item.PostURL,
		strings.Join(item.Keywords, ", "),
		item.ScheduledFor.Format(time.RFC3339),
		completedAt,
		item.ErrorMessage,
	}
}

// generateCSV generates a CSV report from content items
func generateCSV(items []*models.ContentItem, campaignNames map[int64]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(reportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for _, item := range items {
		if err := writer.Write(reportRow(item, campaignNames)); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.Bytes(), nil
}

// generateExcel generates an Excel report from content items
func generateExcel(items []*models.ContentItem, campaignNames map[int64]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Publish History"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// Set header style
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	// Write header
	for i, header := range reportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// Write data
	for rowIdx, item := range items {
		row := rowIdx + 2 // Start from row 2 (after header)
		for colIdx, value := range reportRow(item, campaignNames) {
			f.SetCellValue(sheetName, fmt.Sprintf("%c%d", 'A'+colIdx, row), value)
		}
	}

	// Auto-fit columns
	for i := 0; i < len(reportHeaders); i++ {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 15)
	}

	// Set active sheet
	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return buf.Bytes(), nil
}
