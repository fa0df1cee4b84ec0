package model

import (
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&ScenarioSnapshot{},
}

// ScenarioSnapshot is the saved camera set of one (owner, slot). Saving the
// same key again replaces the row.
type ScenarioSnapshot struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Owner     string         `json:"owner" gorm:"size:128;not null;uniqueIndex:idx_snapshot_owner_slot"`
	Slot      int            `json:"slot" gorm:"not null;uniqueIndex:idx_snapshot_owner_slot"`
	Scenario  string         `json:"scenario" gorm:"type:text"`
	Current   int            `json:"current" gorm:"column:current_camera"`
	Owned     bool           `json:"owned"`
	Cameras   datatypes.JSON `json:"cameras"`
	SavedAt   time.Time      `json:"savedAt" gorm:"index:idx_snapshot_saved_at"`
}

func (*ScenarioSnapshot) TableName() string {
	return "scenario_snapshots"
}
