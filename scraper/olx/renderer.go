package olx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"apartment-watcher/config"
	"apartment-watcher/scraper"
	"apartment-watcher/utils"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Browser launches headless Chrome sessions for the OLX search page.
type Browser struct {
	cfg       *config.Config
	logger    *utils.Logger
	selectors Selectors
}

// NewBrowser creates a Browser that waits for the default card selector.
func NewBrowser(cfg *config.Config, logger *utils.Logger) *Browser {
	return &Browser{cfg: cfg, logger: logger, selectors: DefaultSelectors}
}

// Open starts a browser process and a single tab. The browser is started
// eagerly so launch failures surface here rather than on first navigation.
func (b *Browser) Open(ctx context.Context) (scraper.Session, error) {
	chromeBin := findChromeBinary(b.cfg.ChromeBin)
	b.logger.Debug("[olx] Using browser binary: %q", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))

	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("olx: start browser: %w", err)
	}

	return &Session{
		ctx:       tabCtx,
		cancel:    func() { cancelTab(); cancelAlloc() },
		cfg:       b.cfg,
		logger:    b.logger,
		selectors: b.selectors,
	}, nil
}

// Session is one browser tab bound to a cycle.
type Session struct {
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	cfg       *config.Config
	logger    *utils.Logger
	selectors Selectors
}

// Render loads url, waits until at most two network connections remain open,
// then waits (tolerantly) for the listing cards before capturing the markup.
func (s *Session) Render(ctx context.Context, url string) (string, error) {
	runCtx, cancel := context.WithTimeout(s.ctx, s.cfg.FetchTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, navigateAndWaitIdle(url)); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("olx: %w: %s after %v", scraper.ErrRenderTimeout, url, s.cfg.FetchTimeout)
		}
		return "", fmt.Errorf("olx: navigate %s: %w", url, err)
	}

	selCtx, selCancel := context.WithTimeout(runCtx, s.cfg.SelectorTimeout)
	err := chromedp.Run(selCtx, chromedp.WaitReady(s.selectors.Card, chromedp.ByQuery))
	selCancel()
	if err != nil {
		if runCtx.Err() != nil {
			return "", fmt.Errorf("olx: %w: %s after %v", scraper.ErrRenderTimeout, url, s.cfg.FetchTimeout)
		}
		s.logger.Warn("[olx] Selector %s not found within %v", s.selectors.Card, s.cfg.SelectorTimeout)
	}

	if s.cfg.ScreenshotPath != "" {
		s.saveScreenshot(runCtx)
	}

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("olx: %w: %s after %v", scraper.ErrRenderTimeout, url, s.cfg.FetchTimeout)
		}
		return "", fmt.Errorf("olx: capture html: %w", err)
	}

	return html, nil
}

// Close shuts down the tab and the browser process.
func (s *Session) Close() error {
	s.closeOnce.Do(s.cancel)
	return nil
}

func (s *Session) saveScreenshot(ctx context.Context) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		s.logger.Warn("[olx] Screenshot failed: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.cfg.ScreenshotPath), 0755); err != nil {
		s.logger.Warn("[olx] Screenshot dir: %v", err)
		return
	}
	if err := os.WriteFile(s.cfg.ScreenshotPath, buf, 0644); err != nil {
		s.logger.Warn("[olx] Screenshot write: %v", err)
		return
	}
	s.logger.Debug("[olx] Screenshot saved to %s", s.cfg.ScreenshotPath)
}

// navigateAndWaitIdle navigates and blocks until Chrome reports the
// networkAlmostIdle lifecycle event (no more than two in-flight requests)
// for the document the navigation created. Events from child frames and
// earlier documents are ignored.
func navigateAndWaitIdle(url string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		lctx, cancel := context.WithCancel(ctx)
		defer cancel()

		w := newIdleWatcher()
		chromedp.ListenTarget(lctx, func(ev any) {
			if e, ok := ev.(*page.EventLifecycleEvent); ok {
				w.observe(e)
			}
		})

		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return fmt.Errorf("enable lifecycle events: %w", err)
		}
		frameID, loaderID, errText, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errText != "" {
			return fmt.Errorf("page load error %s", errText)
		}

		return w.wait(ctx, frameID, loaderID)
	})
}

// idleWatcher records which frame/document pairs reached networkAlmostIdle.
// Events can arrive before Navigate returns the ids to wait for.
type idleWatcher struct {
	mu     sync.Mutex
	idle   map[cdp.FrameID][]cdp.LoaderID
	notify chan struct{}
}

func newIdleWatcher() *idleWatcher {
	return &idleWatcher{
		idle:   make(map[cdp.FrameID][]cdp.LoaderID),
		notify: make(chan struct{}, 1),
	}
}

func (w *idleWatcher) observe(e *page.EventLifecycleEvent) {
	if e.Name != "networkAlmostIdle" {
		return
	}
	w.mu.Lock()
	w.idle[e.FrameID] = append(w.idle[e.FrameID], e.LoaderID)
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *idleWatcher) reached(frameID cdp.FrameID, loaderID cdp.LoaderID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, l := range w.idle[frameID] {
		if loaderID == "" || l == loaderID {
			return true
		}
	}
	return false
}

// wait blocks until frameID reports networkAlmostIdle for loaderID. An empty
// loaderID (same-document navigation) matches any document of the frame.
func (w *idleWatcher) wait(ctx context.Context, frameID cdp.FrameID, loaderID cdp.LoaderID) error {
	for {
		if w.reached(frameID, loaderID) {
			return nil
		}
		select {
		case <-w.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the configured one.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
