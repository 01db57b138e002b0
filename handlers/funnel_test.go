package handlers_test

import (
	"net/http"
	"testing"

	"viral-event-system/attribution"
	"viral-event-system/models"
	"viral-event-system/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventJSON struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	ImageURL *string `json:"image_url"`
	UserID   string  `json:"user_id"`
}

type inviteJSON struct {
	ID        string `json:"id"`
	EventID   string `json:"event_id"`
	Code      string `json:"code"`
	EmailSent bool   `json:"email_sent"`
	ShareLink string `json:"share_link"`
}

func createEvent(t *testing.T, owner *browser, name string) eventJSON {
	t.Helper()
	resp := owner.postJSON("/events", map[string]string{
		"name":     name,
		"date":     "2026-12-31T20:00",
		"location": "Rooftop",
	})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	var ev eventJSON
	resp.decode(t, &ev)
	return ev
}

func createInvite(t *testing.T, owner *browser, eventID string) inviteJSON {
	t.Helper()
	resp := owner.postJSON("/events/"+eventID+"/invites", nil)
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	var inv inviteJSON
	resp.decode(t, &inv)
	return inv
}

func TestViralFunnel_EndToEnd(t *testing.T) {
	env := newEnv(t)
	owner := env.browser("owner-1")

	ev := createEvent(t, owner, "Summer Rooftop Party")
	assert.Equal(t, "summer-rooftop-party", ev.Slug)

	inv := createInvite(t, owner, ev.ID)
	assert.Len(t, inv.Code, 8)
	assert.Equal(t, "https://app.example.com/events/"+ev.ID+"?ref="+inv.Code, inv.ShareLink)

	resp := owner.postJSON("/invites/"+inv.ID+"/send", map[string]string{"email": "friend@example.com"})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, sentMail{To: "friend@example.com", EventName: ev.Name, Link: inv.ShareLink}, env.mailer.sent[0])

	// friend opens the link twice, a second visitor once
	friend := env.browser("")
	require.Equal(t, http.StatusOK, friend.get("/events/"+ev.ID+"?ref="+inv.Code).Status)
	require.Equal(t, http.StatusOK, friend.get("/events/"+ev.ID+"?ref="+inv.Code).Status)
	assert.Equal(t, inv.Code, friend.cookie(attribution.KeyReferralCode))
	session := friend.cookie(attribution.KeySessionID)
	require.NotEmpty(t, session)

	other := env.browser("")
	require.Equal(t, http.StatusOK, other.get("/events/"+ev.ID+"?ref="+inv.Code).Status)

	// friend signs up, then RSVPs (twice) with the token from sign-up
	resp = friend.postJSON("/auth/signup", map[string]string{"email": "friend@example.com", "password": "password"})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	friend.token = env.token("user-friend@example.com")

	require.Equal(t, http.StatusOK, friend.postJSON("/events/"+ev.ID+"/rsvp", nil).Status)
	require.Equal(t, http.StatusOK, friend.postJSON("/events/"+ev.ID+"/rsvp", nil).Status)

	var status struct {
		RSVPed bool `json:"rsvped"`
	}
	friend.get("/events/" + ev.ID + "/rsvp").decode(t, &status)
	assert.True(t, status.RSVPed)

	// every row of the friend's journey carries the same session id
	var rows []models.Referral
	require.NoError(t, env.db.Where("session_id = ?", session).Find(&rows).Error)
	var actions []models.ActionType
	for _, r := range rows {
		actions = append(actions, r.ActionType)
	}
	assert.ElementsMatch(t, []models.ActionType{models.ActionClick, models.ActionClick, models.ActionSignup, models.ActionRSVP}, actions)

	var report attribution.Report
	resp = owner.get("/analytics")
	require.Equal(t, http.StatusOK, resp.Status)
	resp.decode(t, &report)

	require.Len(t, report.Invites, 1)
	assert.Equal(t, int64(2), report.Invites[0].Clicks)
	assert.Equal(t, attribution.SummaryStats{
		TotalInvitesSent:         1,
		TotalClicks:              2,
		TotalSignups:             1,
		TotalRsvps:               1,
		OverallClickToSignupRate: 50,
		OverallSignupToRsvpRate:  100,
	}, report.Summary)

	assert.Subset(t, env.capture.names(), []string{
		services.CaptureCreateEvent,
		services.CaptureGenerateInvite,
		services.CaptureSendEmail,
		services.CaptureViewEvent,
		services.CaptureSignedIn,
		services.CaptureRSVPEvent,
		services.CaptureViewAnalytics,
	})
}

func TestGetEvent_OrganicVisitWritesNothing(t *testing.T) {
	env := newEnv(t)
	ev := createEvent(t, env.browser("owner-1"), "Picnic")
	createInvite(t, env.browser("owner-1"), ev.ID)

	visitor := env.browser("")
	resp := visitor.get("/events/" + ev.ID)
	require.Equal(t, http.StatusOK, resp.Status)

	var n int64
	require.NoError(t, env.db.Model(&models.Referral{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, visitor.cookie(attribution.KeySessionID))
}

func TestGetEvent_UnknownRefIsStoredButNotCredited(t *testing.T) {
	env := newEnv(t)
	ev := createEvent(t, env.browser("owner-1"), "Picnic")

	visitor := env.browser("")
	require.Equal(t, http.StatusOK, visitor.get("/events/"+ev.ID+"?ref=doesnotx").Status)
	assert.Equal(t, "doesnotx", visitor.cookie(attribution.KeyReferralCode))

	var n int64
	require.NoError(t, env.db.Model(&models.Referral{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestGetEvent_NotFound(t *testing.T) {
	env := newEnv(t)
	assert.Equal(t, http.StatusNotFound, env.browser("").get("/events/not-a-uuid").Status)
	assert.Equal(t, http.StatusNotFound, env.browser("").get("/events/6f1c2d1e-0000-4000-8000-000000000000").Status)
}

func TestGetEvent_SignedInReferralRecordsDiscovery(t *testing.T) {
	env := newEnv(t)
	owner := env.browser("owner-1")
	ev := createEvent(t, owner, "Gallery Opening")
	inv := createInvite(t, owner, ev.ID)

	member := env.browser("member-1")
	require.Equal(t, http.StatusOK, member.get("/events/"+ev.ID+"?ref="+inv.Code).Status)

	var discovered []eventJSON
	resp := member.get("/events/discovered")
	require.Equal(t, http.StatusOK, resp.Status)
	resp.decode(t, &discovered)
	require.Len(t, discovered, 1)
	assert.Equal(t, ev.ID, discovered[0].ID)

	var row models.Referral
	require.NoError(t, env.db.Where("invite_id = ?", inv.ID).Take(&row).Error)
	require.NotNil(t, row.UserID)
	assert.Equal(t, "member-1", *row.UserID)
	require.NotNil(t, row.EventID)
	assert.Equal(t, ev.ID, *row.EventID)
}

func TestRSVP_StoreFailureIsSurfacedAndNotAttributed(t *testing.T) {
	env := newEnv(t)
	owner := env.browser("owner-1")
	ev := createEvent(t, owner, "Book Club")
	inv := createInvite(t, owner, ev.ID)

	guest := env.browser("guest-1")
	guest.get("/events/" + ev.ID + "?ref=" + inv.Code)
	require.NoError(t, env.db.Migrator().DropTable(&models.RSVP{}))

	resp := guest.postJSON("/events/"+ev.ID+"/rsvp", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Contains(t, string(resp.Body), "Failed to RSVP")

	var n int64
	require.NoError(t, env.db.Model(&models.Referral{}).Where("action_type = ?", models.ActionRSVP).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSignIn_CreditsSignupToStoredCode(t *testing.T) {
	env := newEnv(t)
	owner := env.browser("owner-1")
	ev := createEvent(t, owner, "Board Games")
	inv := createInvite(t, owner, ev.ID)
	env.identity.users["back@example.com"] = services.IdentityUser{ID: "user-back", Email: "back@example.com"}

	visitor := env.browser("")
	visitor.get("/events/" + ev.ID + "?ref=" + inv.Code)

	resp := visitor.postJSON("/auth/signin", map[string]string{"email": "back@example.com", "password": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = visitor.postJSON("/auth/signin", map[string]string{"email": "back@example.com", "password": "password"})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))

	var row models.Referral
	require.NoError(t, env.db.Where("action_type = ?", models.ActionSignup).Take(&row).Error)
	assert.Equal(t, inv.ID, row.InviteID)
	require.NotNil(t, row.UserID)
	assert.Equal(t, "user-back", *row.UserID)
	require.NotNil(t, row.SessionID)
	assert.Equal(t, visitor.cookie(attribution.KeySessionID), *row.SessionID)
}

func TestSignUp_PendingConfirmationIsNotASignIn(t *testing.T) {
	env := newEnv(t)
	owner := env.browser("owner-1")
	ev := createEvent(t, owner, "Board Games")
	inv := createInvite(t, owner, ev.ID)
	env.identity.pending["wait@example.com"] = true

	visitor := env.browser("")
	visitor.get("/events/" + ev.ID + "?ref=" + inv.Code)
	resp := visitor.postJSON("/auth/signup", map[string]string{"email": "wait@example.com", "password": "password"})
	require.Equal(t, http.StatusCreated, resp.Status)

	var body struct {
		ConfirmationRequired bool `json:"confirmation_required"`
	}
	resp.decode(t, &body)
	assert.True(t, body.ConfirmationRequired)

	var n int64
	require.NoError(t, env.db.Model(&models.Referral{}).Where("action_type = ?", models.ActionSignup).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSignUp_NoReferralMeansNoAttribution(t *testing.T) {
	env := newEnv(t)
	resp := env.browser("").postJSON("/auth/signup", map[string]string{"email": "solo@example.com", "password": "password"})
	require.Equal(t, http.StatusCreated, resp.Status)

	var n int64
	require.NoError(t, env.db.Model(&models.Referral{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Contains(t, env.capture.names(), services.CaptureSignedIn)
}

func TestAuth_MeAndSignOut(t *testing.T) {
	env := newEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.browser("").get("/auth/me").Status)

	user := env.browser("user-7")
	var me services.IdentityUser
	resp := user.get("/auth/me")
	require.Equal(t, http.StatusOK, resp.Status)
	resp.decode(t, &me)
	assert.Equal(t, services.IdentityUser{ID: "user-7", Email: "user-7@example.com"}, me)

	assert.Equal(t, http.StatusNoContent, user.postJSON("/auth/signout", nil).Status)
	assert.Equal(t, 1, env.identity.signOuts)
}
