// Package v1 contains the v1 export format for saved camera snapshots.
package v1

// FormatVersion is written to every v1 export.
const FormatVersion = 1

// Export is the root JSON structure for v1 format
type Export struct {
	FormatVersion    int     `json:"formatVersion"`
	ExtensionVersion string  `json:"extensionVersion"`
	ExportedAt       string  `json:"exportedAt"`
	Owners           []Owner `json:"owners"`
}

// Owner groups the saved slots of one owner
type Owner struct {
	Name  string `json:"name"`
	Slots []Slot `json:"slots"`
}

// Slot is one saved camera set
type Slot struct {
	Slot     int      `json:"slot"`
	Current  int      `json:"current"`
	Owned    bool     `json:"owned"`
	SavedAt  string   `json:"savedAt"`
	Cameras  [][]any  `json:"cameras"`
	Scenario []string `json:"scenario"`
}
