package triage

import (
	"triage-backend/internal/models"
)

// opKind is the closed set of operations the core understands. Inbound
// wire names map onto it so dispatch is a single switch instead of a bag
// of handler callbacks.
type opKind int

const (
	opUnknown opKind = iota

	opAuthPassword
	opAuthToken
	opAuthAdmin

	opRegisterPatient
	opUpdateLevel
	opAddEvolution
	opAddComment
	opAddObservation
	opCallPatient
	opUpdateStatus
	opMarkAttended
	opReadmit
	opStartEmergency
	opEndEmergency

	opSearchHistory
	opGetHistory
	opGetStats

	opCreateUser
	opUpdateUser
	opDeleteUser
	opCreatePreset
	opUpdatePreset
	opDeletePreset

	// internal, never parsed from the wire
	opAttach
	opDetach
	opClearCall
	opQuery
)

var opNames = map[string]opKind{
	"authenticate_password": opAuthPassword,
	"authenticate_token":    opAuthToken,
	"authenticate_admin":    opAuthAdmin,
	"register_patient":      opRegisterPatient,
	"update_patient_level":  opUpdateLevel,
	"add_evolution":         opAddEvolution,
	"add_comment":           opAddComment,
	"add_observation":       opAddObservation,
	"call_patient":          opCallPatient,
	"update_patient_status": opUpdateStatus,
	"mark_attended":         opMarkAttended,
	"readmit_patient":       opReadmit,
	"start_emergency":       opStartEmergency,
	"end_emergency":         opEndEmergency,
	"search_history":        opSearchHistory,
	"get_history":           opGetHistory,
	"get_stats":             opGetStats,
	"create_user":           opCreateUser,
	"update_user":           opUpdateUser,
	"delete_user":           opDeleteUser,
	"create_preset":         opCreatePreset,
	"update_preset":         opUpdatePreset,
	"delete_preset":         opDeletePreset,
}

func parseOp(name string) opKind {
	if kind, ok := opNames[name]; ok {
		return kind
	}
	return opUnknown
}

// Wire payloads for the smaller ops. The bigger ones bind the input
// structs from the models package directly.

type credentialsInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenInput struct {
	Token string `json:"token"`
}

type adminInput struct {
	Password string `json:"password"`
}

type idInput struct {
	ID string `json:"id"`
}

type levelInput struct {
	ID    string             `json:"id"`
	Level models.TriageLevel `json:"level"`
}

type noteInput struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type callInput struct {
	ID   string `json:"id"`
	Room string `json:"room"`
}

type statusInput struct {
	ID     string               `json:"id"`
	Status models.PatientStatus `json:"status"`
}

type searchInput struct {
	Query string `json:"query"`
}
