package domain

import (
	"context"
	"encoding/json"
	"maps"
	"time"
)

// ResultFields is the fixed set of document keys replaced by a result update.
var ResultFields = []string{
	"name",
	"fatherName",
	"motherName",
	"birthDate",
	"rollNo",
	"registrationNo",
	"teacherEmail",
	"department",
	"semester",
	"session",
	"studentType",
	"institute",
	"subjects",
}

// Result is a single student's academic result document. Document holds
// every stored key except the identifier.
type Result struct {
	ID        string
	Document  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResultPatch builds the replacement for every key in ResultFields from
// input. Keys missing from input map to nil; keys outside ResultFields are
// dropped.
func ResultPatch(input map[string]any) map[string]any {
	patch := make(map[string]any, len(ResultFields))
	for _, key := range ResultFields {
		patch[key] = input[key]
	}
	return patch
}

// ApplyPatch returns a copy of doc with patch applied and whether any
// stored value changed. Values are compared by their JSON encoding.
func ApplyPatch(doc, patch map[string]any) (map[string]any, bool, error) {
	merged := make(map[string]any, len(doc)+len(patch))
	maps.Copy(merged, doc)

	changed := false
	for key, value := range patch {
		old, present := doc[key]
		if !present {
			changed = true
		} else {
			same, err := jsonEqual(old, value)
			if err != nil {
				return nil, false, err
			}
			if !same {
				changed = true
			}
		}
		merged[key] = value
	}
	return merged, changed, nil
}

func jsonEqual(a, b any) (bool, error) {
	ab, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false, err
	}
	return string(ab) == string(bb), nil
}

// ResultRepository defines persistence operations for result documents.
type ResultRepository interface {
	Create(ctx context.Context, result *Result) error
	GetByID(ctx context.Context, id string) (*Result, error)
	List(ctx context.Context) ([]Result, error)
	// Update applies patch to the stored document inside a single
	// transaction. Keys not in patch are preserved.
	Update(ctx context.Context, id string, patch map[string]any) (UpdateResult, error)
}
