package storage

import (
	"testing"

	"github.com/Style3D/block/internal/config"
	"github.com/Style3D/block/internal/store"
)

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	steps := []store.StepRecord{
		{Step: 1, Primitives: 8, Pairs: 5, Contacts: 3, SolverConverged: true},
		{Step: 2, Primitives: 8, Pairs: 5, Contacts: 4, SolverConverged: true},
	}

	runID, err := st.Save("grid", config.DefaultConfig(), steps)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scene != "grid" || meta.Steps != 2 {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if meta.Config.BroadPhase != "bvh" {
		t.Errorf("config not persisted: %+v", meta.Config)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Errorf("list = %+v, want the saved run", runs)
	}
}

func TestListEmptyDir(t *testing.T) {
	st := New(t.TempDir() + "/never-created")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
