package domain

import "time"

// SyncOutcome is the result of submitting one record to the remote store.
type SyncOutcome int

const (
	OutcomeSkipped SyncOutcome = iota
	OutcomeSynced
	OutcomeFailed
	OutcomeDuplicate
)

func (o SyncOutcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSynced:
		return "synced"
	case OutcomeFailed:
		return "failed"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

func (o SyncOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// SyncCounts tallies outcomes of a batch. Skipped counts records declined by
// gating or missing configuration.
type SyncCounts struct {
	Success   int `json:"success"`
	Failed    int `json:"failed"`
	Duplicate int `json:"duplicate,omitempty"`
	Skipped   int `json:"skipped,omitempty"`
}

func (c *SyncCounts) Add(o SyncOutcome) {
	switch o {
	case OutcomeSynced:
		c.Success++
	case OutcomeFailed:
		c.Failed++
	case OutcomeDuplicate:
		c.Duplicate++
	default:
		c.Skipped++
	}
}

func (c *SyncCounts) Merge(other SyncCounts) {
	c.Success += other.Success
	c.Failed += other.Failed
	c.Duplicate += other.Duplicate
	c.Skipped += other.Skipped
}

func (c SyncCounts) Total() int {
	return c.Success + c.Failed + c.Duplicate + c.Skipped
}

// TypeReport is the bulk sync result for one entity type.
type TypeReport struct {
	Type   EntityType `json:"type"`
	Counts SyncCounts `json:"counts"`
	Digest string     `json:"digest,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// SyncReport summarizes one bulk run across entity types.
type SyncReport struct {
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Trigger    string       `json:"trigger"`
	Types      []TypeReport `json:"types"`
	Totals     SyncCounts   `json:"totals"`
}

// Counts returns the counts recorded for t, or zero counts.
func (r SyncReport) Counts(t EntityType) SyncCounts {
	for _, tr := range r.Types {
		if tr.Type == t {
			return tr.Counts
		}
	}
	return SyncCounts{}
}

// SyncStatus is the diagnostic snapshot of the sync subsystem.
type SyncStatus struct {
	Enabled         bool   `json:"enabled"`
	RemoteReachable bool   `json:"remoteReachable"`
	Environment     string `json:"environment"`
	Backend         string `json:"backend"`
}

// TableProbe is the result of a count probe against one remote table.
type TableProbe struct {
	Type  EntityType `json:"type"`
	Table string     `json:"table"`
	Rows  int64      `json:"rows"`
	Error string     `json:"error,omitempty"`
}

// SyncDiagnostics backs the operator report.
type SyncDiagnostics struct {
	Status  SyncStatus           `json:"status"`
	LastRun *SyncReport          `json:"lastRun,omitempty"`
	Local   map[EntityType]int   `json:"local"`
	Remote  map[EntityType]int64 `json:"remote"`
}

// SyncEvent is published for every record outcome and for every bulk run.
type SyncEvent struct {
	Kind     string      `json:"kind"` // record, run
	Type     EntityType  `json:"type,omitempty"`
	RecordID string      `json:"recordId,omitempty"`
	Outcome  SyncOutcome `json:"outcome"`
	Table    string      `json:"table,omitempty"`
	Error    string      `json:"error,omitempty"`
	Totals   *SyncCounts `json:"totals,omitempty"`
	At       time.Time   `json:"at"`
}
