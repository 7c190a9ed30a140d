package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/msomdec/result-processing/internal/domain"
)

func TestResultPatch_CoversFixedFieldsOnly(t *testing.T) {
	patch := domain.ResultPatch(map[string]any{
		"name":     "Rahim",
		"semester": "3rd",
		"extra":    "ignored",
	})

	if len(patch) != len(domain.ResultFields) {
		t.Fatalf("expected %d keys, got %d", len(domain.ResultFields), len(patch))
	}
	if patch["name"] != "Rahim" {
		t.Fatalf("expected name Rahim, got %v", patch["name"])
	}
	if _, ok := patch["extra"]; ok {
		t.Fatal("expected key outside the field list to be dropped")
	}
	if v, ok := patch["fatherName"]; !ok || v != nil {
		t.Fatalf("expected omitted field to be present as nil, got %v (present=%v)", v, ok)
	}
}

func TestApplyPatch_OverwritesAndPreserves(t *testing.T) {
	doc := map[string]any{
		"name":       "Old",
		"fatherName": "Father",
		"grade":      "A",
	}
	patch := domain.ResultPatch(map[string]any{"name": "New"})

	merged, changed, err := domain.ApplyPatch(doc, patch)
	if err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	if !changed {
		t.Fatal("expected changed=true")
	}
	if merged["name"] != "New" {
		t.Fatalf("expected name New, got %v", merged["name"])
	}
	if merged["fatherName"] != nil {
		t.Fatalf("expected fatherName overwritten with nil, got %v", merged["fatherName"])
	}
	if merged["grade"] != "A" {
		t.Fatalf("expected key outside the field list preserved, got %v", merged["grade"])
	}
	if doc["name"] != "Old" {
		t.Fatal("ApplyPatch must not mutate its input")
	}
}

func TestApplyPatch_Unchanged(t *testing.T) {
	input := map[string]any{
		"name":     "Same",
		"rollNo":   json.Number("1024"),
		"subjects": []any{map[string]any{"code": "CSE-101", "gpa": json.Number("4")}},
	}
	doc := domain.ResultPatch(input)

	_, changed, err := domain.ApplyPatch(doc, domain.ResultPatch(input))
	if err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	if changed {
		t.Fatal("expected changed=false when every value is identical")
	}
}

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"user", "manager", "admin"} {
		role, err := domain.ParseRole(raw)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", raw, err)
		}
		if string(role) != raw {
			t.Fatalf("expected %q, got %q", raw, role)
		}
	}

	if _, err := domain.ParseRole("teacher"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestClaims_Email(t *testing.T) {
	if got := (domain.Claims{"email": "a@x.com"}).Email(); got != "a@x.com" {
		t.Fatalf("expected a@x.com, got %q", got)
	}
	if got := (domain.Claims{"email": 42}).Email(); got != "" {
		t.Fatalf("expected empty email for non-string claim, got %q", got)
	}
}
