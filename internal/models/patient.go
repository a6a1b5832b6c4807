package models

import "time"

// TriageLevel is the acuity colour assigned at registration.
type TriageLevel string

const (
	LevelRed    TriageLevel = "red"    // critical, seen immediately
	LevelYellow TriageLevel = "yellow" // urgent
	LevelGreen  TriageLevel = "green"  // standard
	LevelBlue   TriageLevel = "blue"   // non-urgent
)

// Rank maps the colour to its sort position. Lower = more critical.
// Unknown levels sink to the bottom of the board.
func (l TriageLevel) Rank() int {
	switch l {
	case LevelRed:
		return 1
	case LevelYellow:
		return 2
	case LevelGreen:
		return 3
	case LevelBlue:
		return 4
	}
	return 5
}

// Valid reports whether l is one of the four known colours.
func (l TriageLevel) Valid() bool {
	return l == LevelRed || l == LevelYellow || l == LevelGreen || l == LevelBlue
}

// Critical reports whether the level warrants an escalated alert.
func (l TriageLevel) Critical() bool {
	return l == LevelRed || l == LevelYellow
}

// PatientStatus is the board status of an active patient.
type PatientStatus string

const (
	StatusWaiting        PatientStatus = "waiting"
	StatusInConsultation PatientStatus = "in_consultation"
	StatusAbsent         PatientStatus = "absent"
	StatusPreAdmission   PatientStatus = "pre_admission"
)

// Note is a single timestamped entry in a patient's record.
type Note struct {
	Author string    `json:"author"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

// Patient is one entry on the triage board. The same struct lives in the
// active queue and, with the Attended* fields stamped, in the history
// archive. A patient is always in exactly one of the two, never both.
type Patient struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	NationalID string      `json:"national_id,omitempty"`
	Level      TriageLevel `json:"level"`
	ArrivalAt  time.Time   `json:"arrival_at"`
	Notes      string      `json:"notes,omitempty"`

	Status     PatientStatus `json:"status"`
	PrevStatus PatientStatus `json:"prev_status,omitempty"` // captured when called to a room
	Room       string        `json:"room,omitempty"`
	Physician  string        `json:"physician,omitempty"` // username of the attending physician

	Evolutions []Note `json:"evolutions"` // nursing entries
	Comments   []Note `json:"comments"`   // physician entries

	RegisteredBy string `json:"registered_by"`
	Shift        string `json:"shift"`

	// Set when the patient is moved to history.
	AttendedAt *time.Time `json:"attended_at,omitempty"`
	AttendedBy string     `json:"attended_by,omitempty"` // display name, falls back to username
	GuardDay   string     `json:"guard_day,omitempty"`
}

// RegisterPatientInput is the payload of a register_patient op.
type RegisterPatientInput struct {
	Name       string      `json:"name"`
	NationalID string      `json:"national_id"`
	Level      TriageLevel `json:"level"`
	Notes      string      `json:"notes"`
}
