package triage

import (
	"encoding/json"
	"log"
	"sort"

	"triage-backend/internal/models"
	"triage-backend/pkg/utils"
)

// handleCreateUser adds a staff account. Duplicate usernames and the
// reserved admin name are silent no-ops.
func (c *Core) handleCreateUser(sess *Session, data json.RawMessage) {
	if !sess.hasRole(models.RoleAdmin) {
		return
	}

	var in models.CreateUserInput
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}
	if in.Username == "" || in.Password == "" || in.Username == models.AdminUsername {
		return
	}
	switch in.Role {
	case models.RoleRegistrar, models.RolePhysician, models.RoleStats:
	default:
		return
	}
	if _, exists := c.users[in.Username]; exists {
		return
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		log.Printf("triage: password hash failed: %v", err)
		return
	}
	token, err := utils.GenerateToken(c.jwtSecret, in.Username, string(in.Role), reconnectTokenTTL)
	if err != nil {
		log.Printf("triage: token mint failed: %v", err)
		return
	}

	c.users[in.Username] = &models.User{
		Username:     in.Username,
		PasswordHash: hash,
		Role:         in.Role,
		FullName:     in.FullName,
		Token:        token,
	}

	c.persistUsers()
	c.broadcastDirectory(sess)
}

// handleUpdateUser edits display name and/or password. Username and role
// are fixed once created.
func (c *Core) handleUpdateUser(sess *Session, data json.RawMessage) {
	if !sess.hasRole(models.RoleAdmin) {
		return
	}

	var in models.UpdateUserInput
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}

	user, ok := c.users[in.Username]
	if !ok {
		return
	}

	if in.FullName != "" {
		user.FullName = in.FullName
	}
	if in.Password != "" {
		hash, err := utils.HashPassword(in.Password)
		if err != nil {
			log.Printf("triage: password hash failed: %v", err)
			return
		}
		user.PasswordHash = hash
	}

	c.persistUsers()
	c.broadcastDirectory(sess)
}

// handleDeleteUser removes a staff account. The admin identity itself is
// not deletable.
func (c *Core) handleDeleteUser(sess *Session, data json.RawMessage) {
	if !sess.hasRole(models.RoleAdmin) {
		return
	}

	var in struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.Username == models.AdminUsername {
		return
	}
	if _, ok := c.users[in.Username]; !ok {
		return
	}

	delete(c.users, in.Username)
	c.persistUsers()
	c.broadcastDirectory(sess)
}

// broadcastDirectory sends the full directory to the admin group plus the
// acting connection.
func (c *Core) broadcastDirectory(actor *Session) {
	dir := c.directory()
	c.broadcastAdmins("update_user_list", dir)
	if !actor.admin {
		actor.emit("update_user_list", dir)
	}
}

// --- presets ---------------------------------------------------------------

// handleCreatePreset adds an observation preset. Text must be unique.
func (c *Core) handleCreatePreset(sess *Session, data json.RawMessage) {
	if !sess.hasRole(models.RoleAdmin, models.RoleRegistrar) {
		return
	}

	var in models.PresetInput
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}
	if in.Text == "" || !in.Level.Valid() || c.findPreset(in.Text) >= 0 {
		return
	}

	c.presets = append(c.presets, models.Preset{Text: in.Text, Level: in.Level})
	c.sortPresets()
	c.persistPresets()
	c.broadcast("update_preset_list", c.presets)
}

// handleUpdatePreset edits a preset's level and optionally renames it.
func (c *Core) handleUpdatePreset(sess *Session, data json.RawMessage) {
	if !sess.hasRole(models.RoleAdmin, models.RoleRegistrar) {
		return
	}

	var in models.PresetInput
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}

	i := c.findPreset(in.Text)
	if i < 0 {
		return
	}

	if in.NewText != "" && in.NewText != in.Text {
		if c.findPreset(in.NewText) >= 0 {
			return
		}
		c.presets[i].Text = in.NewText
	}
	if in.Level.Valid() {
		c.presets[i].Level = in.Level
	}

	c.sortPresets()
	c.persistPresets()
	c.broadcast("update_preset_list", c.presets)
}

// handleDeletePreset removes a preset by text.
func (c *Core) handleDeletePreset(sess *Session, data json.RawMessage) {
	if !sess.hasRole(models.RoleAdmin, models.RoleRegistrar) {
		return
	}

	var in models.PresetInput
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}

	i := c.findPreset(in.Text)
	if i < 0 {
		return
	}

	c.presets = append(c.presets[:i], c.presets[i+1:]...)
	c.persistPresets()
	c.broadcast("update_preset_list", c.presets)
}

func (c *Core) findPreset(text string) int {
	for i := range c.presets {
		if c.presets[i].Text == text {
			return i
		}
	}
	return -1
}

func (c *Core) sortPresets() {
	sort.Slice(c.presets, func(i, j int) bool { return c.presets[i].Text < c.presets[j].Text })
}
