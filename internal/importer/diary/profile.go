package diary

// Profile describes the column layout of a site-diary export. Different
// field apps label the same columns differently; supporting a new app is
// just adding a Profile to the profiles slice.
type Profile struct {
	Name         string
	DateCol      string
	StageCol     string
	IncrementCol string
	HoursCol     string // optional
	LatCol       string // optional
	LonCol       string // optional
	EvidenceCol  string // optional, comma-separated refs
	NotesCol     string // optional
	DateLayouts  []string
}

// requiredCols returns the columns that must be present for this profile
// to match. Optional columns only contribute when the header has them.
func (p Profile) requiredCols() []string {
	return []string{p.DateCol, p.StageCol, p.IncrementCol}
}

// profiles is the ordered list of diary formats to try during
// auto-detection. More specific profiles come first.
var profiles = []Profile{
	{
		Name:         "fieldbook",
		DateCol:      "Datum",
		StageCol:     "Gewerk",
		IncrementCol: "Fortschritt %",
		HoursCol:     "Stunden",
		LatCol:       "Breite",
		LonCol:       "Länge",
		EvidenceCol:  "Fotos",
		NotesCol:     "Bemerkung",
		DateLayouts:  []string{"02.01.2006"},
	},
	{
		Name:         "standard",
		DateCol:      "date",
		StageCol:     "stage",
		IncrementCol: "increment",
		HoursCol:     "hours",
		LatCol:       "lat",
		LonCol:       "lon",
		EvidenceCol:  "evidence",
		NotesCol:     "notes",
		DateLayouts:  []string{"2006-01-02", "02-01-2006"},
	},
}
