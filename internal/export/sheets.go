// Package export writes month reports to external destinations.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"wemoney/internal/core"
	"wemoney/internal/log"
)

// MonthReport is one workspace month rendered for export.
type MonthReport struct {
	WorkspaceID   string
	WorkspaceName string
	Month         core.Month
	Summary       core.MonthSummary
}

// Reporter writes a month report somewhere durable.
type Reporter interface {
	WriteMonthReport(ctx context.Context, report MonthReport) error
}

// SheetsReporter appends month reports to a Google spreadsheet, one row
// per category plus a leading total row.
type SheetsReporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ Reporter = (*SheetsReporter)(nil)

// NewSheetsReporterFromEnv builds a reporter from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials in
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: GOOGLE_REPORT_SHEET_NAME
// (default "Reports").
func NewSheetsReporterFromEnv(ctx context.Context) (*SheetsReporter, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_REPORT_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Reports"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsReporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteMonthReport appends the report rows to the report sheet.
func (r *SheetsReporter) WriteMonthReport(ctx context.Context, report MonthReport) error {
	if r.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:G", r.sheetName)
	vr := &gsheet.ValueRange{Values: reportRows(report)}

	_, err := r.svc.Spreadsheets.Values.Append(r.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append report for %s %s: %w", report.WorkspaceID, report.Month, err)
	}

	log.FromContext(ctx).WithComponent(log.ComponentExport).InfoContext(ctx, "Appended month report",
		log.FieldOperation, log.OpExport,
		log.FieldWorkspaceID, report.WorkspaceID,
		log.FieldMonth, report.Month.String(),
		"rows", len(vr.Values))
	return nil
}

// reportRows renders a report as spreadsheet rows: one total row followed
// by one row per category with an amount above zero.
func reportRows(report MonthReport) [][]any {
	exportedAt := time.Now().Format(time.RFC3339)
	name := report.WorkspaceName
	if name == "" {
		name = report.WorkspaceID
	}

	rows := [][]any{{
		exportedAt,
		name,
		report.Month.String(),
		"TOTAL",
		core.FormatAmount(report.Summary.Total),
		report.Summary.Count,
		"",
	}}
	for _, ct := range report.Summary.ByCategory {
		label := ct.Name
		if ct.Emoji != "" {
			label = ct.Emoji + " " + ct.Name
		}
		rows = append(rows, []any{
			exportedAt,
			name,
			report.Month.String(),
			label,
			core.FormatAmount(ct.Total),
			"",
			fmt.Sprintf("%.1f%%", ct.Share),
		})
	}
	return rows
}
