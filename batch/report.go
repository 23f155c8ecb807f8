package batch

import "go.uber.org/zap"

// A Report covers every item submitted to a batch, ordered by item ID
// regardless of completion order. Succeeded+Failed+Skipped always equals
// Total.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Results   []ItemResult
}

func newReport(items []Item, byID map[int]ItemResult) *Report {
	r := &Report{
		Total:   len(items),
		Results: make([]ItemResult, 0, len(items)),
	}
	for _, item := range items {
		result := byID[item.ID]
		r.Results = append(r.Results, result)
		switch result.Status {
		case StatusSuccess:
			r.Succeeded++
		case StatusSkipped:
			r.Skipped++
		default:
			r.Failed++
		}
	}
	return r
}

// AllSucceeded reports whether every item finished successfully.
func (r *Report) AllSucceeded() bool {
	return r.Succeeded == r.Total
}

// Failures returns the results of items that settled as failed.
func (r *Report) Failures() []ItemResult {
	var failures []ItemResult
	for _, result := range r.Results {
		if result.Status == StatusFailed {
			failures = append(failures, result)
		}
	}
	return failures
}

// Log writes the summary block: totals, then one line per failed or skipped
// item with its error kind and attempt count.
func (r *Report) Log(log *zap.SugaredLogger) {
	log.Infof("Download summary: total=%d succeeded=%d failed=%d skipped=%d", r.Total, r.Succeeded, r.Failed, r.Skipped)
	for _, result := range r.Results {
		switch result.Status {
		case StatusFailed:
			log.Infof(" - item %d: %s failed after %d attempt(s): %v (%s)",
				result.Item.ID, result.Item.DisplayName, len(result.Attempts), result.LastError(), result.LastErrorKind())
		case StatusSkipped:
			log.Infof(" - item %d: %s skipped", result.Item.ID, result.Item.DisplayName)
		}
	}
	if r.AllSucceeded() {
		log.Info("No failed downloads.")
	}
}
