package experiment

import (
	"fmt"

	"github.com/cwbudde/bitsearch/internal/store"
)

// Save persists a finished report under id. The record goes to runStore
// when it is not nil; the trial histories go to <traceDir>/jobs/<id>/trace.jsonl
// when traceDir is set.
func Save(runStore store.Store, traceDir, id string, r *Report, text string) error {
	if runStore != nil {
		if err := runStore.SaveRun(r.Record(id, text)); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}
	if traceDir == "" {
		return nil
	}

	tw, err := store.NewTraceWriter(traceDir, id)
	if err != nil {
		return err
	}
	for _, res := range r.Results {
		for _, t := range res.Trials {
			if err := tw.WriteHistory(res.Algorithm, t.Trial, t.History); err != nil {
				tw.Abort()
				return fmt.Errorf("write trace: %w", err)
			}
		}
	}
	return tw.Close()
}
