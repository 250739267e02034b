package entity

import (
	"time"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
)

// SyncErrorKind classifies why a sync run did not complete.
type SyncErrorKind string

const (
	// SyncErrorNotConnected means no usable credential exists for the owner.
	SyncErrorNotConnected SyncErrorKind = "NOT_CONNECTED"
	// SyncErrorFailure means the run started but a provider or storage call failed.
	SyncErrorFailure SyncErrorKind = "SYNC_FAILURE"
)

// SyncError is the failure half of a SyncResult.
type SyncError struct {
	Kind    SyncErrorKind `json:"kind"`
	Message string        `json:"message"`
}

func (e *SyncError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// EntityCount is the number of records upserted for one entity type.
type EntityCount struct {
	Entity string `json:"entity"`
	Count  int    `json:"count"`
}

// SyncResult reports what one sync run did. Counts keep the provider's processing
// order and are partial when Err is set.
type SyncResult struct {
	Provider     provider.ProviderType `json:"provider"`
	BackfillDays int                   `json:"backfill_days"`
	Counts       []EntityCount         `json:"counts"`
	StartedAt    time.Time             `json:"started_at"`
	FinishedAt   time.Time             `json:"finished_at"`
	Err          *SyncError            `json:"error,omitempty"`
}

// Count returns the count recorded for entity, or zero.
func (r *SyncResult) Count(entity string) int {
	for _, c := range r.Counts {
		if c.Entity == entity {
			return c.Count
		}
	}
	return 0
}

// Total returns the sum of all entity counts.
func (r *SyncResult) Total() int {
	total := 0
	for _, c := range r.Counts {
		total += c.Count
	}
	return total
}

// Succeeded reports whether the run completed without error.
func (r *SyncResult) Succeeded() bool {
	return r.Err == nil
}
