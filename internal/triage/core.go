// Package triage owns the shared emergency-department state: the active
// queue, the history archive, the user directory, the preset catalog, the
// emergency flag and the paging slot. A single goroutine consumes requests
// from a channel and handles each one to completion, so mutations never
// interleave and no locks are needed around the state itself.
package triage

import (
	"encoding/json"
	"log"
	"sort"
	"time"

	"triage-backend/internal/models"
	"triage-backend/internal/store"
	"triage-backend/pkg/utils"
)

// Notifier consumes the two device-alert events. The severity policy
// (siren vs chime) belongs to the consumer, not to the core.
type Notifier interface {
	NewPatient(p models.Patient, queueSize int)
	Emergency(active bool)
}

// Options configures a Core.
type Options struct {
	JWTSecret     string
	AdminPassword string
	PagingDwell   time.Duration // 0 = default 20s
}

// reconnect tokens outlive any shift rotation; a year is effectively
// "until the admin rotates the account".
const reconnectTokenTTL = 365 * 24 * time.Hour

const defaultPagingDwell = 20 * time.Second

type request struct {
	kind  opKind
	sess  *Session
	data  json.RawMessage
	gen   int          // opClearCall
	query func(*Core)  // opQuery, runs inside the loop
}

// Core is the triage engine. Construct with New, start with Run.
type Core struct {
	store    *store.Store // nil = in-memory only (tests)
	notifier Notifier     // nil = no device alerts

	jwtSecret     string
	adminPassword string
	dwell         time.Duration

	reqs     chan request
	sessions map[*Session]struct{}

	queue   []models.Patient
	history []models.Patient
	users   map[string]*models.User // persisted directory, admin excluded
	presets []models.Preset

	emergency bool
	call      *Call
	callTimer *time.Timer
	callGen   int

	adminToken string

	now func() time.Time // test hook
}

// New loads persisted state and builds the engine. Call Run to start the
// event loop.
func New(st *store.Store, notifier Notifier, opts Options) (*Core, error) {
	c := &Core{
		store:         st,
		notifier:      notifier,
		jwtSecret:     opts.JWTSecret,
		adminPassword: opts.AdminPassword,
		dwell:         opts.PagingDwell,
		reqs:          make(chan request, 64),
		sessions:      make(map[*Session]struct{}),
		users:         make(map[string]*models.User),
		now:           time.Now,
	}
	if c.dwell <= 0 {
		c.dwell = defaultPagingDwell
	}

	if st != nil {
		queue, history, err := st.LoadBoard()
		if err != nil {
			return nil, err
		}
		c.queue, c.history = queue, history
		c.sortQueue()

		users, err := st.LoadUsers()
		if err != nil {
			return nil, err
		}
		minted := false
		for i := range users {
			u := users[i]
			if u.Token == "" {
				// First boot after seeding: mint the reconnect tokens.
				tok, err := utils.GenerateToken(c.jwtSecret, u.Username, string(u.Role), reconnectTokenTTL)
				if err != nil {
					return nil, err
				}
				u.Token = tok
				minted = true
			}
			c.users[u.Username] = &u
		}
		if minted {
			if err := st.SaveUsers(c.directory()); err != nil {
				return nil, err
			}
		}

		presets, err := st.LoadPresets()
		if err != nil {
			return nil, err
		}
		c.presets = presets
	}

	// The admin identity is synthesized here, never persisted.
	tok, err := utils.GenerateToken(c.jwtSecret, models.AdminUsername, string(models.RoleAdmin), reconnectTokenTTL)
	if err != nil {
		return nil, err
	}
	c.adminToken = tok

	return c, nil
}

// Run starts the event loop. It returns when the request channel is
// drained after Close; in practice it runs for the process lifetime.
func (c *Core) Run() {
	go func() {
		for req := range c.reqs {
			c.handle(req)
		}
	}()
}

// Attach registers a new connection and pushes the public snapshot (the
// TV display never authenticates).
func (c *Core) Attach(sender Sender) *Session {
	sess := &Session{sender: sender}
	c.reqs <- request{kind: opAttach, sess: sess}
	return sess
}

// Detach drops a connection.
func (c *Core) Detach(sess *Session) {
	c.reqs <- request{kind: opDetach, sess: sess}
}

// Submit queues one named operation from a connection. Unknown names are
// dropped on the floor.
func (c *Core) Submit(sess *Session, op string, data json.RawMessage) {
	kind := parseOp(op)
	if kind == opUnknown {
		return
	}
	c.reqs <- request{kind: kind, sess: sess, data: data}
}

// inspect runs fn inside the loop and waits for it. Used by the REST read
// surface so reads see a consistent snapshot without extra locking.
func (c *Core) inspect(fn func(*Core)) {
	done := make(chan struct{})
	c.reqs <- request{kind: opQuery, query: func(core *Core) {
		fn(core)
		close(done)
	}}
	<-done
}

// handle is the single dispatch point. Every mutating case re-checks the
// session's authorization; failures are silent by design.
func (c *Core) handle(req request) {
	switch req.kind {
	case opAttach:
		c.handleAttach(req.sess)
	case opDetach:
		c.handleDetach(req.sess)
	case opClearCall:
		c.handleClearCall(req.gen)
	case opQuery:
		req.query(c)

	case opAuthPassword:
		c.handleAuthPassword(req.sess, req.data)
	case opAuthToken:
		c.handleAuthToken(req.sess, req.data)
	case opAuthAdmin:
		c.handleAuthAdmin(req.sess, req.data)

	case opRegisterPatient:
		c.handleRegisterPatient(req.sess, req.data)
	case opUpdateLevel:
		c.handleUpdateLevel(req.sess, req.data)
	case opAddEvolution:
		c.handleAddNote(req.sess, req.data, models.RoleRegistrar)
	case opAddComment:
		c.handleAddNote(req.sess, req.data, models.RolePhysician)
	case opAddObservation:
		c.handleAddObservation(req.sess, req.data)
	case opCallPatient:
		c.handleCallPatient(req.sess, req.data)
	case opUpdateStatus:
		c.handleUpdateStatus(req.sess, req.data)
	case opMarkAttended:
		c.handleMarkAttended(req.sess, req.data)
	case opReadmit:
		c.handleReadmit(req.sess, req.data)
	case opStartEmergency:
		c.handleEmergency(req.sess, true)
	case opEndEmergency:
		c.handleEmergency(req.sess, false)

	case opSearchHistory:
		c.handleSearchHistory(req.sess, req.data)
	case opGetHistory:
		c.handleGetHistory(req.sess)
	case opGetStats:
		c.handleGetStats(req.sess)

	case opCreateUser:
		c.handleCreateUser(req.sess, req.data)
	case opUpdateUser:
		c.handleUpdateUser(req.sess, req.data)
	case opDeleteUser:
		c.handleDeleteUser(req.sess, req.data)
	case opCreatePreset:
		c.handleCreatePreset(req.sess, req.data)
	case opUpdatePreset:
		c.handleUpdatePreset(req.sess, req.data)
	case opDeletePreset:
		c.handleDeletePreset(req.sess, req.data)
	}
}

func (c *Core) handleAttach(sess *Session) {
	c.sessions[sess] = struct{}{}
	c.pushPublicState(sess)
}

func (c *Core) handleDetach(sess *Session) {
	delete(c.sessions, sess)
}

// --- authentication -------------------------------------------------------

func (c *Core) handleAuthPassword(sess *Session, data json.RawMessage) {
	var in credentialsInput
	if err := json.Unmarshal(data, &in); err != nil {
		sess.emit("auth_fail", nil)
		return
	}

	user, ok := c.users[in.Username]
	if !ok || !utils.CheckPassword(in.Password, user.PasswordHash) {
		sess.emit("auth_fail", nil)
		return
	}

	c.authenticate(sess, user.Username, user.FullName, user.Role, user.Token)
}

func (c *Core) handleAuthToken(sess *Session, data json.RawMessage) {
	var in tokenInput
	if err := json.Unmarshal(data, &in); err != nil || in.Token == "" {
		sess.emit("auth_fail", nil)
		return
	}

	if in.Token == c.adminToken {
		c.authenticateAdmin(sess)
		return
	}

	for _, user := range c.users {
		if user.Token == in.Token {
			c.authenticate(sess, user.Username, user.FullName, user.Role, user.Token)
			return
		}
	}
	sess.emit("auth_fail", nil)
}

func (c *Core) handleAuthAdmin(sess *Session, data json.RawMessage) {
	var in adminInput
	if err := json.Unmarshal(data, &in); err != nil || in.Password != c.adminPassword {
		sess.emit("auth_fail", nil)
		return
	}
	c.authenticateAdmin(sess)
}

func (c *Core) authenticate(sess *Session, username, fullName string, role models.Role, token string) {
	sess.authenticated = true
	sess.username = username
	sess.fullName = fullName
	sess.role = role

	sess.emit("auth_success", map[string]interface{}{
		"token":     token,
		"role":      role,
		"full_name": fullName,
	})
	c.pushPublicState(sess)
	if role == models.RoleRegistrar || role == models.RoleAdmin {
		sess.emit("update_preset_list", c.presets)
	}
}

func (c *Core) authenticateAdmin(sess *Session) {
	c.authenticate(sess, models.AdminUsername, "Administrator", models.RoleAdmin, c.adminToken)
	sess.admin = true
	sess.emit("update_user_list", c.directory())
}

func (c *Core) pushPublicState(sess *Session) {
	sess.emit("update_patient_list", c.queueSnapshot())
	sess.emit("emergency_status_update", c.emergency)
	sess.emit("update_call", c.call)
}

// --- broadcast / persistence ----------------------------------------------

func (c *Core) broadcast(event string, data interface{}) {
	for sess := range c.sessions {
		sess.emit(event, data)
	}
}

func (c *Core) broadcastAdmins(event string, data interface{}) {
	for sess := range c.sessions {
		if sess.admin {
			sess.emit(event, data)
		}
	}
}

func (c *Core) broadcastQueue() {
	c.broadcast("update_patient_list", c.queueSnapshot())
}

func (c *Core) queueSnapshot() []models.Patient {
	snap := make([]models.Patient, len(c.queue))
	copy(snap, c.queue)
	return snap
}

// directory returns the persisted users sorted by username. The admin
// account is not part of it.
func (c *Core) directory() []models.User {
	users := make([]models.User, 0, len(c.users))
	for _, u := range c.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

// persistBoard snapshots queue+history inside the loop, then writes in
// the background. Failures are logged, never rolled back: the in-memory
// state stays authoritative.
func (c *Core) persistBoard() {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(struct {
		Queue   []models.Patient `json:"queue"`
		History []models.Patient `json:"history"`
	}{c.queue, c.history})
	if err != nil {
		log.Printf("triage: board snapshot marshal failed: %v", err)
		return
	}
	go func() {
		if err := c.store.SaveBoardRaw(data); err != nil {
			log.Printf("triage: board save failed: %v", err)
		}
	}()
}

func (c *Core) persistUsers() {
	if c.store == nil {
		return
	}
	users := c.directory()
	go func() {
		if err := c.store.SaveUsers(users); err != nil {
			log.Printf("triage: user directory save failed: %v", err)
		}
	}()
}

func (c *Core) persistPresets() {
	if c.store == nil {
		return
	}
	presets := make([]models.Preset, len(c.presets))
	copy(presets, c.presets)
	go func() {
		if err := c.store.SavePresets(presets); err != nil {
			log.Printf("triage: preset save failed: %v", err)
		}
	}()
}

// --- ordering -------------------------------------------------------------

// sortQueue re-derives the board order: acuity rank first, arrival time
// second. Called after every mutation that touches the active set.
func (c *Core) sortQueue() {
	sort.Slice(c.queue, func(i, j int) bool {
		a, b := &c.queue[i], &c.queue[j]
		if a.Level.Rank() != b.Level.Rank() {
			return a.Level.Rank() < b.Level.Rank()
		}
		return a.ArrivalAt.Before(b.ArrivalAt)
	})
}

// findPatient returns the index of an active patient, -1 if absent.
func (c *Core) findPatient(id string) int {
	for i := range c.queue {
		if c.queue[i].ID == id {
			return i
		}
	}
	return -1
}

// findArchived returns the index of an archived patient, -1 if absent.
func (c *Core) findArchived(id string) int {
	for i := range c.history {
		if c.history[i].ID == id {
			return i
		}
	}
	return -1
}
