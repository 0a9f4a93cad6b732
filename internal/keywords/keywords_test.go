package keywords

import "testing"

func TestDefaultTables(t *testing.T) {
	tables := Default()

	if tables.Fallback != "Outros" {
		t.Fatalf("expected fallback Outros, got %q", tables.Fallback)
	}
	if len(tables.IncomeKeywords) == 0 {
		t.Fatal("income keywords must not be empty")
	}
	if len(tables.CategoryRules) == 0 {
		t.Fatal("category rules must not be empty")
	}
}

func TestCategoryRuleOrder(t *testing.T) {
	// First-match-wins semantics make the declaration order part of the
	// contract; pin the first and last entries so a reordering is caught.
	rules := Default().CategoryRules
	if rules[0].Name != "Lazer" {
		t.Fatalf("expected first rule Lazer, got %q", rules[0].Name)
	}
	if rules[len(rules)-1].Name != "Educação" {
		t.Fatalf("expected last rule Educação, got %q", rules[len(rules)-1].Name)
	}
}

func TestDefaultCategoriesIncludeFallback(t *testing.T) {
	found := false
	for _, name := range DefaultCategories {
		if name == FallbackCategory {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("default categories must include %q", FallbackCategory)
	}
}

func TestEveryRuleHasTriggers(t *testing.T) {
	for _, rule := range Default().CategoryRules {
		if rule.Name == "" {
			t.Fatal("rule with empty name")
		}
		if len(rule.Triggers) == 0 {
			t.Fatalf("rule %q has no triggers", rule.Name)
		}
	}
}
