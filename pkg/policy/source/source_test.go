package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"expensehq/vega/pkg/extract"
	"expensehq/vega/pkg/policy/compiler"
	"expensehq/vega/pkg/resolver"
	"expensehq/vega/pkg/rules"
)

func newTestPipeline() *compiler.Pipeline {
	res := resolver.Static{"merchant": {"Hilton"}, "city": {"Austin"}}
	c := compiler.New(res, nil, nil)
	return compiler.NewPipeline(c, extract.NewHeuristic(nil), nil, compiler.PreferHeuristic, nil, nil)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFile_LoadText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "policy.txt", "Meals: up to $75 per day.")
	f := NewFile(path, newTestPipeline(), nil)

	rs, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rs.Source != rules.SourceHeuristic {
		t.Errorf("Source = %q, want heuristic", rs.Source)
	}
	if len(rs.Rules) != 1 || rs.Rules[0].Threshold != 75 {
		t.Errorf("rules = %+v", rs.Rules)
	}
}

func TestFile_LoadJSON(t *testing.T) {
	doc := `{"rules": [{"name": "Meal cap", "condition": "category == 'Meals' and amount > 75"}], "version": "2.0"}`
	path := writeFile(t, t.TempDir(), "ruleset.json", doc)
	f := NewFile(path, newTestPipeline(), nil)

	rs, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rs.Source != rules.SourceUpload {
		t.Errorf("Source = %q, want upload", rs.Source)
	}
	if rs.Version != "2.0" {
		t.Errorf("Version = %q", rs.Version)
	}
}

func TestFile_LoadJSONByContent(t *testing.T) {
	// JSON content without a .json extension is still a document.
	doc := `[{"name": "Meal cap", "condition": "amount > 75"}]`
	path := writeFile(t, t.TempDir(), "policy.txt", doc)
	f := NewFile(path, newTestPipeline(), nil)

	rs, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rs.Source != rules.SourceUpload {
		t.Errorf("Source = %q, want upload for JSON content", rs.Source)
	}
}

func TestFile_LoadMissing(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "absent.txt"), newTestPipeline(), nil)
	if _, err := f.Load(context.Background()); err == nil {
		t.Error("Load() succeeded for missing file")
	}
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "policy.txt", "Meals: up to $75 per day.")
	f := NewFile(path, newTestPipeline(), nil)

	w, err := NewWatcher(f, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	reloaded := make(chan *rules.RuleSet, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(rs *rules.RuleSet) {
			select {
			case reloaded <- rs:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("Lodging should not exceed $300/night."), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case rs := <-reloaded:
		if len(rs.Rules) != 1 || rs.Rules[0].Category != "Lodging" {
			t.Errorf("reloaded rules = %+v", rs.Rules)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	fired := make(chan struct{}, 10)
	for i := 0; i < 5; i++ {
		d.Trigger(func() { fired <- struct{}{} })
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced callback never fired")
	}

	select {
	case <-fired:
		t.Error("burst of 5 triggers fired more than once")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	fired := make(chan struct{}, 1)
	d.Trigger(func() { fired <- struct{}{} })
	d.Stop()
	d.Stop() // idempotent

	// Triggers after Stop must be dropped too.
	d.Trigger(func() { fired <- struct{}{} })

	select {
	case <-fired:
		t.Error("callback fired after Stop")
	case <-time.After(150 * time.Millisecond):
	}
}
