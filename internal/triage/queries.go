package triage

import (
	"triage-backend/internal/models"
	"triage-backend/pkg/utils"
)

// Read API for the REST surface. Every call runs inside the event loop so
// it sees a consistent snapshot; no locks, same serialization as the ops.

// Board returns a copy of the active queue in board order.
func (c *Core) Board() []models.Patient {
	var snap []models.Patient
	c.inspect(func(core *Core) {
		snap = core.queueSnapshot()
	})
	return snap
}

// EmergencyActive reports the department-wide emergency flag.
func (c *Core) EmergencyActive() bool {
	var active bool
	c.inspect(func(core *Core) {
		active = core.emergency
	})
	return active
}

// Search runs the archive search with the same role-based confidentiality
// filter as the realtime op.
func (c *Core) Search(query string, role models.Role) []models.Patient {
	var results []models.Patient
	c.inspect(func(core *Core) {
		results = core.searchArchive(query, role)
	})
	return results
}

// Statistics returns today's aggregates.
func (c *Core) Statistics() Stats {
	var stats Stats
	c.inspect(func(core *Core) {
		stats = core.statistics()
	})
	return stats
}

// VerifyCredentials checks a username/password pair against the
// directory for the REST login. The admin master secret is not usable
// here; the admin console is websocket-only.
func (c *Core) VerifyCredentials(username, password string) (role models.Role, fullName string, ok bool) {
	c.inspect(func(core *Core) {
		user, found := core.users[username]
		if !found || !utils.CheckPassword(password, user.PasswordHash) {
			return
		}
		role, fullName, ok = user.Role, user.FullName, true
	})
	return role, fullName, ok
}
