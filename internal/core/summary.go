package core

import (
	"math"
	"sort"
)

type (
	// DayGroup is one day's expenses with their exact integer total.
	DayGroup struct {
		Date     Date
		Expenses []Expense
		Total    int64
	}

	// CategoryTotal is an amount aggregated per category.
	CategoryTotal struct {
		CategoryID string
		Name       string
		Emoji      string
		Total      int64
		Share      float64 // percent of the month total, one decimal
	}

	// PayerTotal is an amount aggregated per spending member.
	PayerTotal struct {
		UserID      string
		DisplayName string
		Total       int64
		Share       float64
	}

	// MonthSummary is the derived view for one workspace month.
	MonthSummary struct {
		Month      Month
		Total      int64
		Count      int
		ByDay      []DayGroup
		ByCategory []CategoryTotal
		ByPayer    []PayerTotal
	}
)

// Localized fallbacks when a member never set a display name.
const (
	displayNameSelf  = "나"
	displayNameOther = "상대방"
)

// ResolveDisplayName returns the member's display name, falling back to a
// self/other placeholder chosen against the viewing user. Every call site
// that renders a member name goes through here.
func ResolveDisplayName(m Membership, currentUserID string) string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	if m.UserID == currentUserID {
		return displayNameSelf
	}
	return displayNameOther
}

// TotalAmount sums expense amounts exactly. Amounts are whole-unit
// integers; accumulation stays in int64 so there is no float drift.
func TotalAmount(expenses []Expense) int64 {
	var total int64
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}

// GroupByDay partitions expenses into per-date buckets. Bucket order
// follows first appearance in the input, which is already sorted most
// recent first, so the result reads reverse-chronologically.
func GroupByDay(expenses []Expense) []DayGroup {
	index := make(map[string]int)
	var groups []DayGroup
	for _, e := range expenses {
		key := e.SpentAt.String()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{Date: e.SpentAt})
		}
		groups[i].Expenses = append(groups[i].Expenses, e)
		groups[i].Total += e.Amount
	}
	return groups
}

// GroupByCategory totals expenses per category, keeps only non-zero
// entries, and sorts descending by total. Ties keep registry order
// (categories arrive sorted by name).
func GroupByCategory(expenses []Expense, categories []Category) []CategoryTotal {
	totals := make(map[string]int64, len(categories))
	for _, e := range expenses {
		totals[e.CategoryID] += e.Amount
	}

	var out []CategoryTotal
	for _, c := range categories {
		if t := totals[c.ID]; t > 0 {
			out = append(out, CategoryTotal{
				CategoryID: c.ID,
				Name:       c.Name,
				Emoji:      c.Emoji,
				Total:      t,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// GroupByPayer totals expenses per spending member, keeping only members
// who spent anything. Display names resolve against the viewing user.
func GroupByPayer(expenses []Expense, members []Membership, currentUserID string) []PayerTotal {
	totals := make(map[string]int64, len(members))
	for _, e := range expenses {
		totals[e.SpentBy] += e.Amount
	}

	var out []PayerTotal
	for _, m := range members {
		if t := totals[m.UserID]; t > 0 {
			out = append(out, PayerTotal{
				UserID:      m.UserID,
				DisplayName: ResolveDisplayName(m, currentUserID),
				Total:       t,
			})
		}
	}
	return out
}

// PercentShare returns part/total as a percentage rounded to one decimal.
// Callers must not invoke it with a zero total.
func PercentShare(part, total int64) float64 {
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// BuildMonthSummary derives the full month view from already-fetched rows.
// Expenses must be pre-filtered to the workspace and month window and
// sorted spent_at desc, created_at desc. Percent shares are filled only
// when the month total is non-zero.
func BuildMonthSummary(month Month, expenses []Expense, categories []Category, members []Membership, currentUserID string) MonthSummary {
	s := MonthSummary{
		Month:      month,
		Total:      TotalAmount(expenses),
		Count:      len(expenses),
		ByDay:      GroupByDay(expenses),
		ByCategory: GroupByCategory(expenses, categories),
		ByPayer:    GroupByPayer(expenses, members, currentUserID),
	}
	if s.Total > 0 {
		for i := range s.ByCategory {
			s.ByCategory[i].Share = PercentShare(s.ByCategory[i].Total, s.Total)
		}
		for i := range s.ByPayer {
			s.ByPayer[i].Share = PercentShare(s.ByPayer[i].Total, s.Total)
		}
	}
	return s
}
