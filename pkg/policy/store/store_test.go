package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"expensehq/vega/pkg/rules"
)

func sampleRuleSet(version string) *rules.RuleSet {
	return &rules.RuleSet{
		Version: version,
		Source:  rules.SourceHeuristic,
		Parser:  "heuristic",
		Rules: []rules.CompiledRule{
			{
				Name:           "Meal cap",
				Condition:      "category == 'Meals' and amount > 75",
				SQLCondition:   "category = 'Meals' AND amount > 75",
				ConditionValid: true,
				Enforceable:    true,
				Confidence:     rules.ConfidenceHigh,
			},
		},
	}
}

func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	id, err := s.Create(ctx, sampleRuleSet("1.0"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	id2, err := s.Create(ctx, sampleRuleSet("2.0"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id == id2 {
		t.Fatal("Create() returned duplicate ids")
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Version != "1.0" || len(got.Rules) != 1 {
		t.Errorf("Get() = %+v", got)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(entries))
	}
	if entries[0].ID != id || entries[0].EnforceableCount != 1 {
		t.Errorf("first entry = %+v, want oldest first", entries[0])
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemory())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "rulesets.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer s.Close()

	runStoreContract(t, s)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Create(ctx, sampleRuleSet("1.0"))
			if err != nil {
				t.Error(err)
				return
			}
			if _, err := s.Get(ctx, id); err != nil {
				t.Error(err)
			}
			if _, err := s.List(ctx); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	entries, _ := s.List(ctx)
	if len(entries) != 16 {
		t.Errorf("List() = %d entries, want 16", len(entries))
	}
}
