package pipeline

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Report describes one pipeline run.
type Report struct {
	Archives     int
	SourceUnits  int
	SourceErrors []error

	Windows      int
	SyncSkipped  int
	Records      int
	RecordErrors map[string]int // by kind

	Dropped     int
	Chunks      int
	EmptyChunks int

	// Rows is the row count per collection key.
	Rows map[string]int

	Started  time.Time
	Finished time.Time
}

func newReport() Report {
	return Report{
		RecordErrors: make(map[string]int),
		Rows:         make(map[string]int),
		Started:      clock.Now(),
	}
}

// Duration is the wall time of the run.
func (r Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// TotalRows is the number of rows across all collections.
func (r Report) TotalRows() int {
	n := 0
	for _, v := range r.Rows {
		n += v
	}
	return n
}

// LogValue implements slog.LogValuer.
func (r Report) LogValue() slog.Value {
	errs := 0
	for _, n := range r.RecordErrors {
		errs += n
	}
	rows := make([]slog.Attr, 0, len(r.Rows))
	for key, n := range r.Rows {
		rows = append(rows, slog.Int(key, n))
	}
	return slog.GroupValue(
		slog.Int("archives", r.Archives),
		slog.Int("source_units", r.SourceUnits),
		slog.Int("source_errors", len(r.SourceErrors)),
		slog.Int("windows", r.Windows),
		slog.Int("sync_skipped", r.SyncSkipped),
		slog.Int("records", r.Records),
		slog.Int("record_errors", errs),
		slog.Int("dropped", r.Dropped),
		slog.Int("chunks", r.Chunks),
		slog.Int("empty_chunks", r.EmptyChunks),
		slog.Attr{Key: "rows", Value: slog.GroupValue(rows...)},
		slog.Duration("duration", r.Duration()),
	)
}

// RunStatus is the outcome of one call to Pipeline.Run.
type RunStatus struct {
	Report Report
	Err    error
}

// MarshalJSON renders the status for the /status endpoint.
func (s RunStatus) MarshalJSON() ([]byte, error) {
	r := s.Report
	status, errText := "succeeded", ""
	if s.Err != nil {
		status, errText = "failed", s.Err.Error()
	}
	sourceErrs := make([]string, 0, len(r.SourceErrors))
	for _, err := range r.SourceErrors {
		sourceErrs = append(sourceErrs, err.Error())
	}
	return json.Marshal(struct {
		Status          string         `json:"status"`
		Error           string         `json:"error,omitempty"`
		Archives        int            `json:"archives"`
		SourceUnits     int            `json:"source_units"`
		SourceErrors    []string       `json:"source_errors"`
		Windows         int            `json:"windows"`
		SyncSkipped     int            `json:"sync_skipped"`
		Records         int            `json:"records"`
		RecordErrors    map[string]int `json:"record_errors"`
		Dropped         int            `json:"dropped"`
		Chunks          int            `json:"chunks"`
		EmptyChunks     int            `json:"empty_chunks"`
		Rows            map[string]int `json:"rows"`
		Started         time.Time      `json:"started"`
		Finished        time.Time      `json:"finished"`
		DurationSeconds float64        `json:"duration_seconds"`
	}{
		Status:          status,
		Error:           errText,
		Archives:        r.Archives,
		SourceUnits:     r.SourceUnits,
		SourceErrors:    sourceErrs,
		Windows:         r.Windows,
		SyncSkipped:     r.SyncSkipped,
		Records:         r.Records,
		RecordErrors:    r.RecordErrors,
		Dropped:         r.Dropped,
		Chunks:          r.Chunks,
		EmptyChunks:     r.EmptyChunks,
		Rows:            r.Rows,
		Started:         r.Started,
		Finished:        r.Finished,
		DurationSeconds: r.Duration().Seconds(),
	})
}
