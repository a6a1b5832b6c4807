package triage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"triage-backend/internal/models"
)

func TestAuthenticatePassword(t *testing.T) {
	c := newTestCore(t)
	addUser(t, c, "desk", "secret", models.RoleRegistrar, "Front Desk")

	rec := &recorder{}
	sess := &Session{sender: rec}
	c.sessions[sess] = struct{}{}

	do(t, c, sess, opAuthPassword, credentialsInput{Username: "desk", Password: "secret"})

	require.True(t, sess.authenticated)
	require.Equal(t, models.RoleRegistrar, sess.role)
	require.Equal(t, "desk", sess.username)

	data, ok := rec.last("auth_success")
	require.True(t, ok)
	payload := data.(map[string]interface{})
	require.Equal(t, "token-desk", payload["token"])

	// Registrar gets the preset catalog with the initial state.
	require.Equal(t, 1, rec.count("update_preset_list"))
	require.Equal(t, 1, rec.count("update_patient_list"))
	require.Equal(t, 1, rec.count("update_call"))
}

func TestAuthenticatePasswordFailure(t *testing.T) {
	c := newTestCore(t)
	addUser(t, c, "desk", "secret", models.RoleRegistrar, "Front Desk")

	for _, in := range []credentialsInput{
		{Username: "desk", Password: "wrong"},
		{Username: "nobody", Password: "secret"},
	} {
		rec := &recorder{}
		sess := &Session{sender: rec}
		c.sessions[sess] = struct{}{}

		do(t, c, sess, opAuthPassword, in)

		require.False(t, sess.authenticated)
		require.Equal(t, 1, rec.count("auth_fail"))
		require.Equal(t, 0, rec.count("auth_success"))
	}
}

func TestAuthenticateToken(t *testing.T) {
	c := newTestCore(t)
	addUser(t, c, "doc", "secret", models.RolePhysician, "Dr. House")

	rec := &recorder{}
	sess := &Session{sender: rec}
	c.sessions[sess] = struct{}{}

	do(t, c, sess, opAuthToken, tokenInput{Token: "token-doc"})

	require.True(t, sess.authenticated)
	require.Equal(t, models.RolePhysician, sess.role)
	// Physicians don't get presets.
	require.Equal(t, 0, rec.count("update_preset_list"))
}

func TestAuthenticateTokenRejectsEmptyAndUnknown(t *testing.T) {
	c := newTestCore(t)
	addUser(t, c, "doc", "secret", models.RolePhysician, "Dr. House")

	for _, token := range []string{"", "bogus"} {
		rec := &recorder{}
		sess := &Session{sender: rec}
		c.sessions[sess] = struct{}{}

		do(t, c, sess, opAuthToken, tokenInput{Token: token})
		require.False(t, sess.authenticated)
		require.Equal(t, 1, rec.count("auth_fail"))
	}
}

func TestAuthenticateAdmin(t *testing.T) {
	c := newTestCore(t)
	addUser(t, c, "desk", "secret", models.RoleRegistrar, "Front Desk")

	rec := &recorder{}
	sess := &Session{sender: rec}
	c.sessions[sess] = struct{}{}

	do(t, c, sess, opAuthAdmin, adminInput{Password: "master"})

	require.True(t, sess.authenticated)
	require.True(t, sess.admin)
	require.Equal(t, models.RoleAdmin, sess.role)
	require.Equal(t, 1, rec.count("update_user_list"))
	require.Equal(t, 1, rec.count("update_preset_list"))

	// The directory never contains the admin itself.
	data, _ := rec.last("update_user_list")
	users := data.([]models.User)
	require.Len(t, users, 1)
	require.Equal(t, "desk", users[0].Username)
}

func TestAuthenticateAdminWrongSecret(t *testing.T) {
	c := newTestCore(t)

	rec := &recorder{}
	sess := &Session{sender: rec}
	c.sessions[sess] = struct{}{}

	do(t, c, sess, opAuthAdmin, adminInput{Password: "guess"})
	require.False(t, sess.authenticated)
	require.Equal(t, 1, rec.count("auth_fail"))
}

func TestAdminTokenReconnect(t *testing.T) {
	c := newTestCore(t)

	rec := &recorder{}
	sess := &Session{sender: rec}
	c.sessions[sess] = struct{}{}

	do(t, c, sess, opAuthToken, tokenInput{Token: c.adminToken})

	require.True(t, sess.authenticated)
	require.True(t, sess.admin)
	require.Equal(t, 1, rec.count("update_user_list"))
}

func TestAuthFailureDoesNotTouchSharedState(t *testing.T) {
	c := newTestCore(t)
	addUser(t, c, "desk", "secret", models.RoleRegistrar, "Front Desk")
	_, otherRec := addViewer(c)

	rec := &recorder{}
	sess := &Session{sender: rec}
	c.sessions[sess] = struct{}{}

	do(t, c, sess, opAuthPassword, credentialsInput{Username: "desk", Password: "nope"})

	// Failure signal goes to the caller only.
	require.Equal(t, 0, otherRec.count("auth_fail"))
	require.Empty(t, c.queue)
	require.False(t, c.emergency)
}

func TestUnauthenticatedOpsAreSilentNoops(t *testing.T) {
	c := newTestCore(t)
	desk, _ := addSession(c, models.RoleRegistrar, "desk")
	p := register(t, c, desk, "A", models.LevelGreen, baseTime)

	viewer, rec := addViewer(c)
	eventsBefore := len(rec.events)

	do(t, c, viewer, opUpdateLevel, levelInput{ID: p.ID, Level: models.LevelRed})
	do(t, c, viewer, opMarkAttended, idInput{ID: p.ID})
	do(t, c, viewer, opGetStats, nil)
	do(t, c, viewer, opGetHistory, nil)
	do(t, c, viewer, opSearchHistory, searchInput{Query: "A"})

	i := c.findPatient(p.ID)
	require.Equal(t, models.LevelGreen, c.queue[i].Level)
	require.Len(t, rec.events, eventsBefore, "no event of any kind goes back")
}
