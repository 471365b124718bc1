package marketplace

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/crosslister/backend/internal/infrastructure/config"
)

const defaultPageTimeout = 45 * time.Second

// acceptLanguage pins page loads to the Dutch locale the price and date
// parsers expect, independent of the host machine's own locale.
var acceptLanguage = network.Headers{"Accept-Language": "nl-NL,nl;q=0.9,en;q=0.8"}

// BrowserSession owns one Chrome instance shared by the browser-automation
// adapters. The profile directory keeps cookies between restarts, so a
// logged-in session usually survives a process restart.
type BrowserSession struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc

	pageTimeout time.Duration
	logger      *zap.Logger
}

// NewBrowserSession creates the allocator for a shared Chrome instance.
// The browser itself starts lazily on the first page action.
func NewBrowserSession(cfg *config.BrowserConfig, logger *zap.Logger) *BrowserSession {
	if logger == nil {
		logger = zap.NewNop()
	}

	pageTimeout := cfg.PageTimeout
	if pageTimeout == 0 {
		pageTimeout = defaultPageTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
	)
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	if cfg.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserSession{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		pageTimeout: pageTimeout,
		logger:      logger,
	}
}

// PageTimeout returns the per-page-action bound
func (s *BrowserSession) PageTimeout() time.Duration {
	return s.pageTimeout
}

// Run executes page actions in a fresh tab of the shared browser, bounded
// by the page timeout. Cookies and local storage are shared across tabs,
// so logins performed in one call remain visible to the next.
func (s *BrowserSession) Run(ctx context.Context, actions ...chromedp.Action) error {
	browserCtx, err := s.ensureStarted()
	if err != nil {
		return err
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			s.logger.Sugar().Debugf(format, args...)
		}),
	)
	defer tabCancel()

	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, s.pageTimeout)
	defer timeoutCancel()

	actions = append([]chromedp.Action{
		network.Enable(),
		network.SetExtraHTTPHeaders(acceptLanguage),
	}, actions...)

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(tabCtx, actions...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		tabCancel()
		<-done
		return ctx.Err()
	}
}

// ensureStarted lazily boots the shared browser
func (s *BrowserSession) ensureStarted() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx != nil {
		return s.browserCtx, nil
	}

	browserCtx, browserCancel := chromedp.NewContext(s.allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		return nil, err
	}

	s.browserCtx = browserCtx
	s.browserCancel = browserCancel
	s.logger.Info("Browser session started")
	return s.browserCtx, nil
}

// Close shuts the browser down. Safe to call multiple times.
func (s *BrowserSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCancel != nil {
		s.browserCancel()
		s.browserCancel = nil
		s.browserCtx = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	return nil
}
