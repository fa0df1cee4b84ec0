package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/cameramfd/extension/internal/database"
	"github.com/cameramfd/extension/internal/model"
)

func TestScenarioSnapshotTable(t *testing.T) {
	assert.Equal(t, "scenario_snapshots", (&model.ScenarioSnapshot{}).TableName())
	for _, m := range model.DatabaseModels {
		_, ok := m.(interface{ TableName() string })
		assert.True(t, ok, "%T has no TableName", m)
	}
}

func TestScenarioSnapshot_OwnerSlotUnique(t *testing.T) {
	db, err := database.OpenSQLite("")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.DatabaseModels...))

	row := func(slot int) *model.ScenarioSnapshot {
		return &model.ScenarioSnapshot{
			Owner:    "GL-01",
			Slot:     slot,
			Scenario: "  CCAM 0\n  CURCAM 0\n",
			Cameras:  datatypes.JSON(`[{"id":0,"label":"","fov":40}]`),
			SavedAt:  time.Now(),
		}
	}

	require.NoError(t, db.Create(row(0)).Error)
	require.NoError(t, db.Create(row(1)).Error)
	assert.Error(t, db.Create(row(0)).Error, "second row for the same owner and slot")

	assert.True(t, db.Migrator().HasIndex(&model.ScenarioSnapshot{}, "idx_snapshot_owner_slot"))
	assert.True(t, db.Migrator().HasColumn(&model.ScenarioSnapshot{}, "current_camera"))
}
