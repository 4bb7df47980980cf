package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tkingovr/rulesel/api"
	"github.com/tkingovr/rulesel/internal/selection"
)

// Recorder writes the decisions of selection runs to a Store.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder creates a recorder backed by store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record writes one record per decision in result, all sharing a freshly
// generated run ID, which is returned.
func (r *Recorder) Record(ctx context.Context, result *selection.Result) (string, error) {
	runID := uuid.NewString()
	ts := r.now()

	for i := range result.Decisions {
		d := &result.Decisions[i]
		record := &api.DecisionRecord{
			Timestamp: ts,
			RunID:     runID,
			Engine:    result.Engine,
			Rule:      d.Rule.Name,
			Included:  d.Included,
			Reason:    d.Reason,
			Filter:    d.Filter,
		}
		if err := r.store.Write(ctx, record); err != nil {
			return runID, fmt.Errorf("recording decision for rule %q: %w", d.Rule.Name, err)
		}
	}
	return runID, nil
}
