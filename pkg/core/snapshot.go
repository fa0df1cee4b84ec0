// pkg/core/snapshot.go
package core

import "time"

// CameraSummary is the searchable digest of one camera kept next to a saved
// scenario block.
type CameraSummary struct {
	ID    int     `json:"id"`
	Label string  `json:"label"`
	FOV   float64 `json:"fov"`
}

// Snapshot is the saved camera set of one instrument slot on one owner.
// Scenario holds the block in scenario format.
type Snapshot struct {
	Owner    string          `json:"owner"`
	Slot     int             `json:"slot"`
	Scenario string          `json:"scenario"`
	Current  int             `json:"current"`
	Owned    bool            `json:"owned"`
	Cameras  []CameraSummary `json:"cameras"`
	SavedAt  time.Time       `json:"savedAt"`
}
