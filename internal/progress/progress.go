package progress

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmcalde/sitework/internal/project"
)

var (
	// ErrInvalidInput covers malformed or out-of-range submission fields.
	ErrInvalidInput = errors.New("invalid progress input")

	// ErrDateRecorded means an entry already exists for (project, date).
	ErrDateRecorded = errors.New("progress already recorded for this date")

	// ErrEvidenceRequired means the claimed increment needs supporting evidence.
	ErrEvidenceRequired = errors.New("evidence required for large progress increments")

	// ErrRegression guards the cumulative fold. With non-negative increments
	// it should be unreachable.
	ErrRegression = errors.New("cumulative progress would regress")

	// ErrNoEntries means the project has no progress recorded yet.
	ErrNoEntries = errors.New("no progress entries recorded")
)

// EvidenceThresholdPct is the incremental percentage at or above which an
// entry must carry at least one evidence reference.
const EvidenceThresholdPct = 10.0

// Entry is one day of reported work on a project. Entries are append-only
// and never mutated after creation. CumulativePct is folded forward from the
// previous entry at commit time and is never recomputed from history.
type Entry struct {
	ID               uuid.UUID
	ProjectID        uuid.UUID
	ContractorID     uuid.UUID
	Date             time.Time
	Stage            project.Stage
	IncrementalPct   float64
	CumulativePct    float64
	WorkingHours     float64
	Lat              *float64
	Lon              *float64
	LocationVerified bool
	EvidenceRefs     []string
	Notes            string
	CreatedAt        time.Time
}

// HasLocation reports whether the contractor attached a geolocation.
func (e *Entry) HasLocation() bool {
	return e.Lat != nil && e.Lon != nil
}
