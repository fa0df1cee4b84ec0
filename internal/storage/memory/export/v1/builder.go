package v1

import (
	"sort"
	"strings"
	"time"

	"github.com/cameramfd/extension/pkg/core"
)

// Build creates an Export from the saved snapshots. Owners are sorted by name
// and slots by number so exports of the same data are identical.
func Build(extensionVersion string, snapshots []core.Snapshot, at time.Time) Export {
	byOwner := make(map[string][]core.Snapshot)
	for _, s := range snapshots {
		byOwner[s.Owner] = append(byOwner[s.Owner], s)
	}

	names := make([]string, 0, len(byOwner))
	for name := range byOwner {
		names = append(names, name)
	}
	sort.Strings(names)

	export := Export{
		FormatVersion:    FormatVersion,
		ExtensionVersion: extensionVersion,
		ExportedAt:       at.UTC().Format(time.RFC3339),
		Owners:           make([]Owner, 0, len(names)),
	}

	for _, name := range names {
		snaps := byOwner[name]
		sort.Slice(snaps, func(i, j int) bool { return snaps[i].Slot < snaps[j].Slot })

		owner := Owner{Name: name, Slots: make([]Slot, 0, len(snaps))}
		for _, s := range snaps {
			owner.Slots = append(owner.Slots, buildSlot(s))
		}
		export.Owners = append(export.Owners, owner)
	}

	return export
}

// buildSlot flattens cameras to [id, label, fov] rows and splits the scenario
// block into lines.
func buildSlot(s core.Snapshot) Slot {
	slot := Slot{
		Slot:     s.Slot,
		Current:  s.Current,
		Owned:    s.Owned,
		SavedAt:  s.SavedAt.UTC().Format(time.RFC3339),
		Cameras:  make([][]any, 0, len(s.Cameras)),
		Scenario: scenarioLines(s.Scenario),
	}
	for _, c := range s.Cameras {
		slot.Cameras = append(slot.Cameras, []any{c.ID, c.Label, c.FOV})
	}
	return slot
}

func scenarioLines(text string) []string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}
