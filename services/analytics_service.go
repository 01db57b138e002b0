package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"viral-event-system/attribution"
	"viral-event-system/middleware"
	"viral-event-system/models"
	"viral-event-system/store"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultSnapshotLimit = 30
	maxSnapshotLimit     = 365
)

type AnalyticsService struct {
	Aggregator *attribution.Aggregator
	Store      *store.Store
	Capture    Capturer

	now func() time.Time
}

func NewAnalyticsService(agg *attribution.Aggregator, st *store.Store, capture Capturer) *AnalyticsService {
	return &AnalyticsService{Aggregator: agg, Store: st, Capture: capture, now: time.Now}
}

// GetAnalytics returns the caller's funnel report.
func (s *AnalyticsService) GetAnalytics(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	report := s.Aggregator.ComputeStats(c.UserContext(), userID)

	s.Capture.Capture(userID, CaptureViewAnalytics, map[string]interface{}{
		"total_clicks":  report.Summary.TotalClicks,
		"total_signups": report.Summary.TotalSignups,
		"total_rsvps":   report.Summary.TotalRsvps,
	})
	return c.JSON(report)
}

// ListSnapshots returns the caller's stored snapshots, newest first.
func (s *AnalyticsService) ListSnapshots(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultSnapshotLimit)
	if limit < 1 || limit > maxSnapshotLimit {
		limit = defaultSnapshotLimit
	}

	snaps, err := s.Store.Snapshots.ListByOwner(c.UserContext(), middleware.UserID(c), limit)
	if err != nil {
		log.Printf("[ANALYTICS] ❌ snapshots for %s failed: %v", middleware.UserID(c), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch snapshots"})
	}
	if snaps == nil {
		snaps = []models.FunnelSnapshot{}
	}
	return c.JSON(snaps)
}

// TakeSnapshots stores one funnel snapshot per referrer and returns how many were saved.
// A failed save is logged and the run continues with the next referrer.
func (s *AnalyticsService) TakeSnapshots(ctx context.Context) (int, error) {
	owners, err := s.Store.Invites.ListReferrers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list referrers: %w", err)
	}

	at := s.now().UTC()
	saved := 0
	for _, owner := range owners {
		snap := s.Aggregator.ComputeStats(ctx, owner).Snapshot(owner, at)
		if err := s.Store.Snapshots.Save(ctx, snap); err != nil {
			log.Printf("[SNAPSHOT] ❌ save for %s failed: %v", owner, err)
			continue
		}
		saved++
	}
	return saved, nil
}

// RunSnapshots triggers TakeSnapshots from an internal route.
func (s *AnalyticsService) RunSnapshots(c *fiber.Ctx) error {
	saved, err := s.TakeSnapshots(c.UserContext())
	if err != nil {
		log.Printf("[SNAPSHOT] ❌ manual run failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "snapshot run failed", "details": err.Error()})
	}
	return c.JSON(fiber.Map{"saved": saved})
}
