package triage

import "triage-backend/internal/models"

// Sender is the outbound half of a connection. The websocket client
// implements it; tests plug in a recorder.
type Sender interface {
	Send(event string, data interface{})
}

// Session is the per-connection authorization state. The transport has no
// per-message credential, so identity lives here and every op re-checks
// it. All fields are owned by the core loop; nothing outside it may touch
// them after Attach.
type Session struct {
	sender Sender

	authenticated bool
	role          models.Role
	username      string
	fullName      string
	admin         bool // member of the admin broadcast group
}

func (s *Session) emit(event string, data interface{}) {
	s.sender.Send(event, data)
}

// hasRole reports whether the session is authenticated as one of the
// given roles. Callers no-op silently on false.
func (s *Session) hasRole(roles ...models.Role) bool {
	if !s.authenticated {
		return false
	}
	for _, r := range roles {
		if s.role == r {
			return true
		}
	}
	return false
}
