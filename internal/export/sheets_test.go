package export

import (
	"testing"
	"time"

	"wemoney/internal/core"
)

func TestReportRows(t *testing.T) {
	report := MonthReport{
		WorkspaceID:   "ws-1",
		WorkspaceName: "우리 가계부",
		Month:         core.Month{Year: 2024, Month: time.March},
		Summary: core.MonthSummary{
			Month: core.Month{Year: 2024, Month: time.March},
			Total: 18000,
			Count: 2,
			ByCategory: []core.CategoryTotal{
				{CategoryID: "c1", Name: "식비", Emoji: "🍚", Total: 15000, Share: 83.3},
				{CategoryID: "c2", Name: "교통", Emoji: "", Total: 3000, Share: 16.7},
			},
		},
	}

	rows := reportRows(report)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want total row plus 2 categories", len(rows))
	}

	total := rows[0]
	if total[1] != "우리 가계부" || total[2] != "2024-03" || total[3] != "TOTAL" {
		t.Errorf("total row = %v", total)
	}
	if total[4] != "18,000" || total[5] != 2 {
		t.Errorf("total row amounts = %v", total)
	}

	if rows[1][4] != "15,000" || rows[2][4] != "3,000" {
		t.Errorf("category amounts = %v / %v", rows[1][4], rows[2][4])
	}

	if rows[1][3] != "🍚 식비" {
		t.Errorf("category label = %v", rows[1][3])
	}
	if rows[2][3] != "교통" {
		t.Errorf("emoji-less label = %v", rows[2][3])
	}
	if rows[1][6] != "83.3%" {
		t.Errorf("share cell = %v", rows[1][6])
	}
}

func TestReportRowsFallsBackToWorkspaceID(t *testing.T) {
	rows := reportRows(MonthReport{
		WorkspaceID: "ws-9",
		Month:       core.Month{Year: 2024, Month: time.January},
	})
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0][1] != "ws-9" {
		t.Errorf("workspace cell = %v", rows[0][1])
	}
}
