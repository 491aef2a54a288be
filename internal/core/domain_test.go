package core

import (
	"strings"
	"testing"
	"time"
)

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		CategoryID: "c1",
		Amount:     5000,
		SpentAt:    NewDate(2024, time.March, 1),
		SpentBy:    "u1",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{CategoryID: "c1", Amount: 0, SpentAt: NewDate(2024, time.March, 1), SpentBy: "u1"},
		{CategoryID: "c1", Amount: -100, SpentAt: NewDate(2024, time.March, 1), SpentBy: "u1"},
		{CategoryID: "", Amount: 100, SpentAt: NewDate(2024, time.March, 1), SpentBy: "u1"},
		{CategoryID: "c1", Amount: 100, SpentBy: "u1"}, // zero date
		{CategoryID: "c1", Amount: 100, SpentAt: NewDate(2024, time.March, 1), SpentBy: ""},
		{CategoryID: "c1", Amount: 100, SpentAt: NewDate(2024, time.March, 1), SpentBy: "u1", Memo: strings.Repeat("a", 201)},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Errorf("case %d expected error", i)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "식비"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: "   "}).Validate(); err == nil {
		t.Error("whitespace-only name should fail")
	}
	if err := (Category{Name: strings.Repeat("가", 51)}).Validate(); err == nil {
		t.Error("over-long name should fail")
	}
}

func TestDefaultCategoriesSeed(t *testing.T) {
	seed := DefaultCategories()
	if len(seed) == 0 {
		t.Fatal("seed must not be empty")
	}
	seen := make(map[string]bool)
	for _, c := range seed {
		if c.Name == "" {
			t.Error("seed category with empty name")
		}
		if seen[c.Name] {
			t.Errorf("duplicate seed category %q", c.Name)
		}
		seen[c.Name] = true
	}
}

func TestInUseError(t *testing.T) {
	err := &InUseError{Count: 3}
	if !strings.Contains(err.Error(), "3") {
		t.Fatalf("error should carry the count: %q", err.Error())
	}
}
