package triage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"triage-backend/internal/models"
)

// handleRegisterPatient puts a new arrival on the board.
func (c *Core) handleRegisterPatient(sess *Session, data json.RawMessage) {
	if !sess.hasRole(models.RoleRegistrar) {
		return
	}

	var in models.RegisterPatientInput
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}
	if in.Name == "" || !in.Level.Valid() {
		return
	}

	now := c.now()
	p := models.Patient{
		ID:           uuid.NewString(),
		Name:         in.Name,
		NationalID:   in.NationalID,
		Level:        in.Level,
		ArrivalAt:    now,
		Notes:        in.Notes,
		Status:       models.StatusWaiting,
		Evolutions:   []models.Note{},
		Comments:     []models.Note{},
		RegisteredBy: sess.username,
		Shift:        shiftFor(now),
	}

	c.queue = append(c.queue, p)
	c.sortQueue()
	c.persistBoard()
	c.broadcastQueue()

	c.broadcast("new_patient_notification", map[string]interface{}{
		"patient":       p,
		"patient_count": len(c.queue),
	})
	if c.notifier != nil {
		c.notifier.NewPatient(p, len(c.queue))
	}
}

// handleUpdateLevel re-triages an active patient.
func (c *Core) handleUpdateLevel(sess *Session, data json.RawMessage) {
	if !sess.hasRole(models.RoleRegistrar) {
		return
	}

	var in levelInput
	if err := json.Unmarshal(data, &in); err != nil || !in.Level.Valid() {
		return
	}

	i := c.findPatient(in.ID)
	if i < 0 {
		return
	}

	c.queue[i].Level = in.Level
	c.sortQueue()
	c.persistBoard()
	c.broadcastQueue()
}

// handleAddNote appends a nursing evolution (registrar) or a physician
// comment to an active patient. The required role decides the list.
func (c *Core) handleAddNote(sess *Session, data json.RawMessage, role models.Role) {
	if !sess.hasRole(role) {
		return
	}

	var in noteInput
	if err := json.Unmarshal(data, &in); err != nil || in.Text == "" {
		return
	}

	i := c.findPatient(in.ID)
	if i < 0 {
		return
	}

	note := models.Note{Author: sess.username, Text: in.Text, At: c.now()}
	if role == models.RolePhysician {
		c.queue[i].Comments = append(c.queue[i].Comments, note)
	} else {
		c.queue[i].Evolutions = append(c.queue[i].Evolutions, note)
	}

	c.persistBoard()
	c.broadcastQueue()
}

// handleAddObservation appends a late entry to an archived patient.
// Either clinical role may write; the caller's role picks the list.
func (c *Core) handleAddObservation(sess *Session, data json.RawMessage) {
	if !sess.hasRole(models.RoleRegistrar, models.RolePhysician) {
		return
	}

	var in noteInput
	if err := json.Unmarshal(data, &in); err != nil || in.Text == "" {
		return
	}

	i := c.findArchived(in.ID)
	if i < 0 {
		return
	}

	note := models.Note{Author: sess.username, Text: in.Text, At: c.now()}
	if sess.role == models.RolePhysician {
		c.history[i].Comments = append(c.history[i].Comments, note)
	} else {
		c.history[i].Evolutions = append(c.history[i].Evolutions, note)
	}

	c.persistBoard()
	c.broadcastQueue()
}

// handleCallPatient sends a patient to a consultation room and announces
// it on the paging slot. A physician attends one room at a time, so any
// patient they were already seeing reverts to its prior status first.
func (c *Core) handleCallPatient(sess *Session, data json.RawMessage) {
	if !sess.hasRole(models.RolePhysician) {
		return
	}

	var in callInput
	if err := json.Unmarshal(data, &in); err != nil || in.Room == "" {
		return
	}

	i := c.findPatient(in.ID)
	if i < 0 {
		return
	}

	c.releaseCurrentPatient(sess.username, in.ID)

	p := &c.queue[i]
	p.PrevStatus = p.Status
	p.Status = models.StatusInConsultation
	p.Room = in.Room
	p.Physician = sess.username

	c.setCall(p.Name, in.Room)
	c.sortQueue()
	c.persistBoard()
	c.broadcastQueue()
}

// releaseCurrentPatient reverts whichever patient the physician is
// already attending, except the one being called now.
func (c *Core) releaseCurrentPatient(physician, exceptID string) {
	for i := range c.queue {
		p := &c.queue[i]
		if p.ID == exceptID || p.Physician != physician || p.Status != models.StatusInConsultation {
			continue
		}
		p.Status = p.PrevStatus
		if p.Status == "" {
			p.Status = models.StatusWaiting
		}
		p.PrevStatus = ""
		p.Room = ""
		p.Physician = ""
	}
}

// handleUpdateStatus overwrites an active patient's status.
func (c *Core) handleUpdateStatus(sess *Session, data json.RawMessage) {
	if !sess.hasRole(models.RolePhysician) {
		return
	}

	var in statusInput
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}
	switch in.Status {
	case models.StatusWaiting, models.StatusInConsultation, models.StatusAbsent, models.StatusPreAdmission:
	default:
		return
	}

	i := c.findPatient(in.ID)
	if i < 0 {
		return
	}

	p := &c.queue[i]
	p.Status = in.Status
	if in.Status == models.StatusAbsent || in.Status == models.StatusPreAdmission {
		p.Room = ""
	}

	c.sortQueue()
	c.persistBoard()
	c.broadcastQueue()
}

// handleMarkAttended moves a patient from the board to the archive,
// stamping attended time, attending physician and guard day.
func (c *Core) handleMarkAttended(sess *Session, data json.RawMessage) {
	if !sess.hasRole(models.RolePhysician) {
		return
	}

	var in idInput
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}

	i := c.findPatient(in.ID)
	if i < 0 {
		return
	}

	p := c.queue[i]
	c.queue = append(c.queue[:i], c.queue[i+1:]...)

	now := c.now()
	p.AttendedAt = &now
	p.Physician = sess.username
	p.AttendedBy = c.displayName(sess.username)
	p.GuardDay = guardDayFor(now)
	c.history = append(c.history, p)

	c.persistBoard()
	c.broadcastQueue()
}

// displayName resolves a username to its full name, falling back to the
// raw username when the account is gone or has no display name.
func (c *Core) displayName(username string) string {
	if username == models.AdminUsername {
		return "Administrator"
	}
	if u, ok := c.users[username]; ok && u.FullName != "" {
		return u.FullName
	}
	return username
}

// handleReadmit pulls an archived patient back onto the board as a
// pre-admission, clearing everything that only made sense in the archive.
func (c *Core) handleReadmit(sess *Session, data json.RawMessage) {
	if !sess.hasRole(models.RolePhysician) {
		return
	}

	var in idInput
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}

	i := c.findArchived(in.ID)
	if i < 0 {
		return
	}

	p := c.history[i]
	c.history = append(c.history[:i], c.history[i+1:]...)

	p.Status = models.StatusPreAdmission
	p.PrevStatus = ""
	p.Room = ""
	p.Physician = ""
	p.AttendedAt = nil
	p.AttendedBy = ""
	p.GuardDay = ""

	c.queue = append(c.queue, p)
	c.sortQueue()
	c.persistBoard()
	c.broadcastQueue()
}

// handleEmergency toggles the department-wide emergency flag.
func (c *Core) handleEmergency(sess *Session, active bool) {
	if !sess.authenticated {
		return
	}

	c.emergency = active
	c.broadcast("emergency_status_update", c.emergency)
	if c.notifier != nil {
		c.notifier.Emergency(active)
	}
}

// shiftFor labels an arrival with its registration shift band.
func shiftFor(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 6 && h < 14:
		return "morning"
	case h >= 14 && h < 22:
		return "afternoon"
	default:
		return "night"
	}
}
