package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"apartment-watcher/metrics"
	"apartment-watcher/models"
	"apartment-watcher/scraper"
	"apartment-watcher/storage"
	"apartment-watcher/utils"
)

// Phase is the step a cycle is currently in.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseExtracting
	PhaseFiltering
	PhaseDiffing
	PhaseNotifying
	PhasePersisting
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseExtracting:
		return "extracting"
	case PhaseFiltering:
		return "filtering"
	case PhaseDiffing:
		return "diffing"
	case PhaseNotifying:
		return "notifying"
	case PhasePersisting:
		return "persisting"
	case PhaseFailed:
		return "failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// errorNotifyTimeout bounds the failure notification, which is sent even when
// the cycle context has already been cancelled.
const errorNotifyTimeout = 30 * time.Second

// CycleDeps wires a Cycle. Mirror and Metrics are optional.
type CycleDeps struct {
	TargetURL string
	Renderer  scraper.Renderer
	Extractor scraper.Extractor
	Filter    *LocationFilter
	Diff      *DiffEngine
	Notifier  *Notifier
	Mirror    storage.ListingMirror
	Metrics   *metrics.Recorder
	Logger    *utils.Logger

	// Interval is added to the cycle time to project the next check.
	Interval time.Duration
	Now      func() time.Time
}

// Cycle performs one fetch, extract, filter, diff, notify and persist pass.
// A failed cycle leaves the persisted state untouched.
type Cycle struct {
	deps CycleDeps

	mu    sync.Mutex
	phase Phase
}

// NewCycle creates a Cycle from deps.
func NewCycle(deps CycleDeps) *Cycle {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Hour
	}
	return &Cycle{deps: deps}
}

// Phase returns the current phase.
func (c *Cycle) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Cycle) enter(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	c.deps.Logger.Debug("[cycle] → %s", p)
}

// Run executes one cycle. On failure the error is logged and sent to every
// recipient before it is returned.
func (c *Cycle) Run(ctx context.Context) (*models.CycleReport, error) {
	log := c.deps.Logger
	report := &models.CycleReport{
		RunID:     uuid.NewString(),
		StartedAt: c.deps.Now(),
	}
	log.Log(models.LevelInfo, "Starting apartment check...", utils.Fields{"runId": report.RunID})

	err := c.run(ctx, report)
	report.FinishedAt = c.deps.Now()
	c.deps.Metrics.CycleFinished(report, err, report.FinishedAt.Sub(report.StartedAt))

	if err != nil {
		failedIn := c.Phase()
		c.enter(PhaseFailed)
		log.Log(models.LevelError, "Error during check: "+err.Error(), utils.Fields{
			"runId": report.RunID,
			"phase": failedIn.String(),
			"error": err.Error(),
		})

		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), errorNotifyTimeout)
		defer cancel()
		c.deps.Notifier.NotifyError(notifyCtx, err)
		return report, err
	}

	c.enter(PhaseIdle)
	return report, nil
}

func (c *Cycle) run(ctx context.Context, report *models.CycleReport) (err error) {
	log := c.deps.Logger
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", c.Phase(), r)
		}
	}()

	c.enter(PhaseFetching)
	session, err := c.deps.Renderer.Open(ctx)
	if err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("[cycle] Closing browser: %v", cerr)
		}
	}()

	html, err := session.Render(ctx, c.deps.TargetURL)
	if err != nil {
		return err
	}

	c.enter(PhaseExtracting)
	seq, err := c.deps.Extractor.Extract(html)
	if err != nil {
		return err
	}
	all := slices.Collect(seq)
	report.TotalFound = len(all)
	log.Log(models.LevelInfo, fmt.Sprintf("Found %d apartments in total", len(all)), utils.Fields{"total": len(all)})

	c.enter(PhaseFiltering)
	filtered := c.deps.Filter.Apply(all)
	report.TotalFiltered = len(filtered)
	log.Log(models.LevelInfo, fmt.Sprintf("%d apartments after location filter", len(filtered)), utils.Fields{"filtered": len(filtered)})

	c.enter(PhaseDiffing)
	diff := c.deps.Diff.Compute(filtered)
	report.CheckIndex = diff.NextCheckIndex
	report.Novel = diff.Novel
	report.NextCheck = c.deps.Now().Add(c.deps.Interval)

	if len(diff.Novel) > 0 {
		summaries := make([]map[string]string, 0, len(diff.Novel))
		for _, l := range diff.Novel {
			summaries = append(summaries, map[string]string{"title": l.Title, "price": l.Price, "location": l.Location})
		}
		log.Log(models.LevelSuccess, fmt.Sprintf("%d new apartments found!", len(diff.Novel)), utils.Fields{
			"checkIndex": diff.NextCheckIndex,
			"newCount":   len(diff.Novel),
			"apartments": summaries,
		})
	} else {
		log.Log(models.LevelInfo, "No new apartments found", utils.Fields{
			"checkIndex": diff.NextCheckIndex,
			"total":      report.TotalFound,
			"filtered":   report.TotalFiltered,
		})
	}

	c.enter(PhaseNotifying)
	var outcomes []DeliveryOutcome
	for _, l := range diff.Novel {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("notify: %w", err)
		}
		outcomes = append(outcomes, c.deps.Notifier.NotifyListing(ctx, l)...)
	}
	outcomes = append(outcomes, c.deps.Notifier.NotifySummary(ctx, report)...)
	report.Deliveries = len(outcomes)
	report.DeliveriesFailed = Failed(outcomes)
	if report.DeliveriesFailed > 0 {
		log.Log(models.LevelWarn, fmt.Sprintf("%d of %d Telegram deliveries failed", report.DeliveriesFailed, report.Deliveries), utils.Fields{
			"checkIndex": report.CheckIndex,
			"failed":     report.DeliveriesFailed,
			"sent":       report.Deliveries,
		})
	}

	c.enter(PhasePersisting)
	appended, err := c.deps.Diff.Commit(diff)
	if err != nil {
		return err
	}
	c.mirror(ctx, report, appended)

	nextCheck := utils.FormatLocal(report.NextCheck, c.deps.Notifier.location)
	log.Log(models.LevelSuccess, fmt.Sprintf("Check #%d completed. Next: %s", report.CheckIndex, nextCheck), utils.Fields{
		"checkIndex": report.CheckIndex,
		"nextCheck":  nextCheck,
	})
	return nil
}

// mirror copies the committed records to the secondary store. The JSON
// document stays authoritative, so failures only warn.
func (c *Cycle) mirror(ctx context.Context, report *models.CycleReport, appended []models.PersistedListing) {
	if c.deps.Mirror == nil {
		return
	}
	if err := c.deps.Mirror.Write(ctx, report, appended); err != nil {
		c.deps.Logger.Warn("[cycle] Mirror write failed: %v", err)
	}
}
