package catalog

import "time"

// Entry is one catalog record for a dataset instance. The harness keeps it
// purely as a diagnostic handle; no assertion reads it.
type Entry struct {
	ZStore        string    `json:"zstore"`
	AssetURL      string    `json:"asset_url"`
	MemberID      string    `json:"member_id"`
	TableID       string    `json:"table_id"`
	Version       string    `json:"version"`
	ActivityID    string    `json:"activity_id"`
	InstitutionID string    `json:"institution_id"`
	FetchedAt     time.Time `json:"fetched_at,omitempty"`
}
