// Package convert provides functions to convert between GORM models, core models
// and live camera sets
package convert

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/cameramfd/extension/internal/model"
	"github.com/cameramfd/extension/pkg/core"
)

// summariesToJSON converts camera summaries to datatypes.JSON for DB storage.
func summariesToJSON(cams []core.CameraSummary) datatypes.JSON {
	if len(cams) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(cams)
	return datatypes.JSON(data)
}

// CoreToSnapshot converts a core.Snapshot to a GORM model.ScenarioSnapshot.
func CoreToSnapshot(s core.Snapshot) model.ScenarioSnapshot {
	return model.ScenarioSnapshot{
		Owner:    s.Owner,
		Slot:     s.Slot,
		Scenario: s.Scenario,
		Current:  s.Current,
		Owned:    s.Owned,
		Cameras:  summariesToJSON(s.Cameras),
		SavedAt:  s.SavedAt,
	}
}

// SnapshotToCore converts a GORM model.ScenarioSnapshot back to a core.Snapshot.
func SnapshotToCore(m model.ScenarioSnapshot) (core.Snapshot, error) {
	s := core.Snapshot{
		Owner:    m.Owner,
		Slot:     m.Slot,
		Scenario: m.Scenario,
		Current:  m.Current,
		Owned:    m.Owned,
		SavedAt:  m.SavedAt,
	}
	if len(m.Cameras) > 0 {
		if err := json.Unmarshal(m.Cameras, &s.Cameras); err != nil {
			return core.Snapshot{}, fmt.Errorf("decoding cameras of %s/%d: %w", m.Owner, m.Slot, err)
		}
	}
	return s, nil
}

// Summarize digests the cameras of set in id order. The caller holds the set lock.
func Summarize(set *model.CameraSet) []core.CameraSummary {
	ids := set.IDs()
	out := make([]core.CameraSummary, 0, len(ids))
	for _, id := range ids {
		cam, _ := set.Camera(id)
		out = append(out, core.CameraSummary{
			ID:    id,
			Label: cam.Label,
			FOV:   cam.EffectiveFOV(),
		})
	}
	return out
}

// NewSnapshot builds the snapshot of set for (owner, slot) around an encoded
// scenario block. The caller holds the set lock.
func NewSnapshot(owner string, slot int, scenario string, set *model.CameraSet, at time.Time) core.Snapshot {
	return core.Snapshot{
		Owner:    owner,
		Slot:     slot,
		Scenario: scenario,
		Current:  set.Current(),
		Owned:    set.OwnedByVehicle,
		Cameras:  Summarize(set),
		SavedAt:  at,
	}
}
