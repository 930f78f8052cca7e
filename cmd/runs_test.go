package main

import (
	"testing"
	"time"

	"github.com/cwbudde/bitsearch/internal/store"
)

func saveTestRun(t *testing.T, dir, id string, created time.Time) {
	t.Helper()

	runStore, err := store.NewFSStore(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	cfg := store.DefaultRunConfig()
	record := store.NewRunRecord(id, cfg, nil, []store.AlgorithmSummary{
		{Algorithm: "ga", Trials: cfg.Trials},
		{Algorithm: "beam", Trials: cfg.Trials},
	}, "report for "+id+"\n")
	record.CreatedAt = created

	if err := runStore.SaveRun(record); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}
}

func withRunsDataDir(t *testing.T, dir string) {
	t.Helper()
	originalDataDir, originalBackend := runsDataDir, runsBackend
	runsDataDir, runsBackend = dir, store.BackendFS
	t.Cleanup(func() { runsDataDir, runsBackend = originalDataDir, originalBackend })
}

func withCleanFlags(t *testing.T, keep, days int, force bool) {
	t.Helper()
	k, d, f := keepLast, olderThanDays, forceClean
	keepLast, olderThanDays, forceClean = keep, days, force
	t.Cleanup(func() { keepLast, olderThanDays, forceClean = k, d, f })
}

func ids(infos []store.RunInfo) []string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testInfos(now time.Time) []store.RunInfo {
	return []store.RunInfo{
		{ID: "run1", CreatedAt: now.AddDate(0, 0, -10)}, // 10 days old
		{ID: "run2", CreatedAt: now.AddDate(0, 0, -5)},  // 5 days old
		{ID: "run3", CreatedAt: now.AddDate(0, 0, -1)},  // 1 day old
		{ID: "run4", CreatedAt: now.AddDate(0, 0, -30)}, // 30 days old
	}
}

func TestSelectRunsForDeletion_ByAge(t *testing.T) {
	now := time.Now()

	toDelete := selectRunsForDeletion(testInfos(now), 0, 7, now)

	if got, want := ids(toDelete), []string{"run4", "run1"}; !equalIDs(got, want) {
		t.Errorf("Expected %v to be selected for deletion, got %v", want, got)
	}
}

func TestSelectRunsForDeletion_ByCount(t *testing.T) {
	now := time.Now()

	toDelete := selectRunsForDeletion(testInfos(now), 2, 0, now)

	// the two oldest go
	if got, want := ids(toDelete), []string{"run4", "run1"}; !equalIDs(got, want) {
		t.Errorf("Expected %v to be selected for deletion, got %v", want, got)
	}
}

func TestSelectRunsForDeletion_Combined(t *testing.T) {
	now := time.Now()
	infos := append(testInfos(now), store.RunInfo{ID: "run5", CreatedAt: now.AddDate(0, 0, -2)})

	// keep 3 covers run2; age covers run1 and run4, counted once each
	toDelete := selectRunsForDeletion(infos, 3, 7, now)
	if got, want := ids(toDelete), []string{"run4", "run1"}; !equalIDs(got, want) {
		t.Errorf("Expected %v to be selected for deletion, got %v", want, got)
	}

	toDelete = selectRunsForDeletion(infos, 2, 7, now)
	if got, want := ids(toDelete), []string{"run4", "run1", "run2"}; !equalIDs(got, want) {
		t.Errorf("Expected %v to be selected for deletion, got %v", want, got)
	}
}

func TestSelectRunsForDeletion_NothingSelected(t *testing.T) {
	now := time.Now()

	if toDelete := selectRunsForDeletion(testInfos(now), 10, 60, now); len(toDelete) != 0 {
		t.Errorf("Expected no runs to delete, got %v", ids(toDelete))
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		id       string
		expected string
	}{
		{"abc", "abc"},
		{"123456789012", "123456789012"},
		{"0f8fad5b-d9cb-469f-a165-70867728950e", "0f8fad5b-d9c..."},
	}

	for _, tt := range tests {
		if result := shortID(tt.id); result != tt.expected {
			t.Errorf("shortID(%q) = %s, expected %s", tt.id, result, tt.expected)
		}
	}
}

func TestRunsListCommand_NoRuns(t *testing.T) {
	withRunsDataDir(t, t.TempDir())

	if err := runListRuns(nil, nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestRunsListCommand_WithRuns(t *testing.T) {
	tmpDir := t.TempDir()
	saveTestRun(t, tmpDir, "test-run-id", time.Now())
	withRunsDataDir(t, tmpDir)

	if err := runListRuns(nil, nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestRunsListCommand_UnknownBackend(t *testing.T) {
	withRunsDataDir(t, t.TempDir())
	runsBackend = "sqlite"

	if err := runListRuns(nil, nil); err == nil {
		t.Error("Expected error for unknown store backend")
	}
}

func TestRunsShowCommand(t *testing.T) {
	tmpDir := t.TempDir()
	saveTestRun(t, tmpDir, "shown", time.Now())
	withRunsDataDir(t, tmpDir)

	if err := runShowRun(nil, []string{"shown"}); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := runShowRun(nil, []string{"missing"}); err == nil {
		t.Error("Expected error for missing run")
	}
}

func TestRunsShowCommand_Trace(t *testing.T) {
	tmpDir := t.TempDir()
	saveTestRun(t, tmpDir, "traced", time.Now())
	saveTestRun(t, tmpDir, "untraced", time.Now())
	withRunsDataDir(t, tmpDir)

	tw, err := store.NewTraceWriter(tmpDir, "traced")
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	tw.WriteHistory("ga", 0, []float64{3, 4, 5})
	tw.WriteHistory("beam", 0, []float64{5})
	if err := tw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	original := showTrace
	showTrace = true
	defer func() { showTrace = original }()

	if err := runShowRun(nil, []string{"traced"}); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := runShowRun(nil, []string{"untraced"}); err != nil {
		t.Errorf("A run without trace should still show, got %v", err)
	}
}

func TestRunsCleanCommand_NoFlags(t *testing.T) {
	withRunsDataDir(t, t.TempDir())
	withCleanFlags(t, 0, 0, false)

	if err := runCleanRuns(nil, nil); err == nil {
		t.Error("Expected error when no flags specified")
	}
}

func TestRunsCleanCommand_WithForce(t *testing.T) {
	tmpDir := t.TempDir()
	saveTestRun(t, tmpDir, "old-run", time.Now().AddDate(0, 0, -30))
	saveTestRun(t, tmpDir, "new-run", time.Now())
	withRunsDataDir(t, tmpDir)
	withCleanFlags(t, 0, 7, true)

	if err := runCleanRuns(nil, nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	runStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if _, err := runStore.LoadRun("old-run"); err == nil {
		t.Error("Expected old run to be deleted")
	}
	if _, err := runStore.LoadRun("new-run"); err != nil {
		t.Errorf("Expected new run to survive, got %v", err)
	}
}
