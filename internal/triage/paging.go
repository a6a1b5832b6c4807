package triage

import "time"

// Call is the single "now being called" announcement shown on the TV.
type Call struct {
	PatientName string `json:"patient_name"`
	Room        string `json:"room"`
}

// setCall replaces the paging slot, announces it, and schedules the
// auto-clear. The previous timer is stopped so a stale expiry can't wipe
// a newer call; the generation check covers the race where it already
// fired.
func (c *Core) setCall(patientName, room string) {
	if c.callTimer != nil {
		c.callTimer.Stop()
	}

	c.call = &Call{PatientName: patientName, Room: room}
	c.callGen++
	gen := c.callGen
	c.broadcast("update_call", c.call)

	c.callTimer = time.AfterFunc(c.dwell, func() {
		c.reqs <- request{kind: opClearCall, gen: gen}
	})
}

// handleClearCall runs inside the loop when a dwell timer expires.
func (c *Core) handleClearCall(gen int) {
	if gen != c.callGen || c.call == nil {
		return // a newer call superseded this timer
	}
	c.call = nil
	c.broadcast("update_call", nil)
}
