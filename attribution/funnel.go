package attribution

import (
	"context"
	"log"
	"math"
	"time"

	"viral-event-system/models"
	"viral-event-system/store"
)

type InviteStats struct {
	InviteID          string  `json:"inviteId"`
	EventID           string  `json:"eventId"`
	Code              string  `json:"code"`
	EmailSent         bool    `json:"emailSent"`
	Clicks            int64   `json:"clicks"`
	Signups           int64   `json:"signups"`
	Rsvps             int64   `json:"rsvps"`
	ClickToSignupRate float64 `json:"clickToSignupRate"`
	SignupToRsvpRate  float64 `json:"signupToRsvpRate"`
}

type SummaryStats struct {
	TotalInvitesSent         int64   `json:"totalInvitesSent"`
	TotalClicks              int64   `json:"totalClicks"`
	TotalSignups             int64   `json:"totalSignups"`
	TotalRsvps               int64   `json:"totalRsvps"`
	OverallClickToSignupRate float64 `json:"overallClickToSignupRate"`
	OverallSignupToRsvpRate  float64 `json:"overallSignupToRsvpRate"`
}

// Report is the funnel for one owner: one entry per invite in source order, plus totals.
type Report struct {
	Invites []InviteStats `json:"invites"`
	Summary SummaryStats  `json:"summary"`
}

// Snapshot copies the summary into a storable row.
func (r Report) Snapshot(ownerID string, at time.Time) *models.FunnelSnapshot {
	return &models.FunnelSnapshot{
		OwnerID:                  ownerID,
		TakenAt:                  at,
		TotalInvitesSent:         r.Summary.TotalInvitesSent,
		TotalClicks:              r.Summary.TotalClicks,
		TotalSignups:             r.Summary.TotalSignups,
		TotalRsvps:               r.Summary.TotalRsvps,
		OverallClickToSignupRate: r.Summary.OverallClickToSignupRate,
		OverallSignupToRsvpRate:  r.Summary.OverallSignupToRsvpRate,
	}
}

// Rate is num/den as a percentage rounded to two decimals; 0 when den is 0.
func Rate(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return math.Round(float64(num)/float64(den)*100*100) / 100
}

type Aggregator struct {
	invites   store.InviteRepository
	referrals store.ReferralRepository
}

func NewAggregator(invites store.InviteRepository, referrals store.ReferralRepository) *Aggregator {
	return &Aggregator{invites: invites, referrals: referrals}
}

// ComputeStats builds the owner's funnel. Clicks are distinct sessions; signups and
// rsvps are row counts. A failed count is logged and counted as zero.
// Overall rates come from summed counts, not from averaging per-code rates.
func (a *Aggregator) ComputeStats(ctx context.Context, ownerID string) Report {
	report := Report{Invites: []InviteStats{}}

	invites, err := a.invites.ListByReferrer(ctx, ownerID)
	if err != nil {
		log.Printf("[FUNNEL] ❌ listing invites for %s failed: %v", ownerID, err)
		return report
	}

	sum := &report.Summary
	for _, inv := range invites {
		if inv.EmailSent {
			sum.TotalInvitesSent++
		}

		clicks := a.count(inv.ID, "clicks", func() (int64, error) {
			return a.referrals.CountDistinctSessions(ctx, inv.ID, models.ActionClick)
		})
		signups := a.count(inv.ID, "signups", func() (int64, error) {
			return a.referrals.Count(ctx, inv.ID, models.ActionSignup)
		})
		rsvps := a.count(inv.ID, "rsvps", func() (int64, error) {
			return a.referrals.Count(ctx, inv.ID, models.ActionRSVP)
		})

		report.Invites = append(report.Invites, InviteStats{
			InviteID:          inv.ID,
			EventID:           inv.EventID,
			Code:              inv.Code,
			EmailSent:         inv.EmailSent,
			Clicks:            clicks,
			Signups:           signups,
			Rsvps:             rsvps,
			ClickToSignupRate: Rate(signups, clicks),
			SignupToRsvpRate:  Rate(rsvps, signups),
		})

		sum.TotalClicks += clicks
		sum.TotalSignups += signups
		sum.TotalRsvps += rsvps
	}

	sum.OverallClickToSignupRate = Rate(sum.TotalSignups, sum.TotalClicks)
	sum.OverallSignupToRsvpRate = Rate(sum.TotalRsvps, sum.TotalSignups)
	return report
}

func (a *Aggregator) count(inviteID, metric string, fn func() (int64, error)) int64 {
	n, err := fn()
	if err != nil {
		log.Printf("[FUNNEL] ⚠️ counting %s for invite %s failed, using 0: %v", metric, inviteID, err)
		return 0
	}
	return n
}
