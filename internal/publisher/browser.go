package publisher

import (
	"context"
	"fmt"
	"time"

	"backoffice-core/internal/entity"
	"backoffice-core/pkg/logger"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// BrowserConfig tunes the scoped browser sessions.
type BrowserConfig struct {
	Headless    bool          `mapstructure:"headless"`
	BinPath     string        `mapstructure:"bin_path"`
	PageTimeout time.Duration `mapstructure:"page_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// Browser opens one scoped rod session per call. Nothing is pooled; every
// operation gets a fresh browser torn down on all paths so a wedged page
// cannot leak into the next task.
type Browser struct {
	cfg    BrowserConfig
	logger *logger.Logger
}

// NewBrowser creates a new Browser.
func NewBrowser(cfg BrowserConfig, log *logger.Logger) *Browser {
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 90 * time.Second
	}
	return &Browser{cfg: cfg, logger: log}
}

// WithPage launches a browser, applies the stealth script, installs the
// account's cookies at the platform root, navigates to target and hands the
// page to fn. Teardown runs regardless of fn's outcome.
func (b *Browser) WithPage(ctx context.Context, account *entity.PlatformAccount, profile *PlatformProfile, targetURL string, fn func(page *rod.Page) error) error {
	l := launcher.New().
		Headless(b.cfg.Headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled")
	if b.cfg.BinPath != "" {
		l = l.Bin(b.cfg.BinPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			b.logger.Debug("browser close failed", logger.ErrorField(err))
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	page = page.Timeout(b.cfg.PageTimeout)

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		return fmt.Errorf("failed to apply stealth script: %w", err)
	}

	userAgent := account.UserAgent
	if userAgent == "" {
		userAgent = b.cfg.UserAgent
	}
	if userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
			return fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	// Cookies must be installed under the platform origin, so touch the root
	// first.
	if err := page.Navigate(profile.RootURL); err != nil {
		return fmt.Errorf("failed to open platform root: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("platform root did not load: %w", err)
	}

	cookies, err := ParseCookieBundle(account.CookieBundle)
	if err != nil {
		return err
	}
	driverCookies := ToDriverCookies(cookies)
	if len(driverCookies) == 0 {
		return fmt.Errorf("cookie bundle has no installable cookies")
	}
	if err := page.SetCookies(driverCookies); err != nil {
		return fmt.Errorf("failed to install cookies: %w", err)
	}

	if targetURL != "" && targetURL != profile.RootURL {
		if err := page.Navigate(targetURL); err != nil {
			return fmt.Errorf("failed to navigate to %s: %w", targetURL, err)
		}
		if err := page.WaitLoad(); err != nil {
			return fmt.Errorf("target page did not load: %w", err)
		}
	} else {
		// Reload so the platform sees the installed session.
		if err := page.Reload(); err != nil {
			return fmt.Errorf("failed to reload platform root: %w", err)
		}
		if err := page.WaitLoad(); err != nil {
			return fmt.Errorf("platform root did not reload: %w", err)
		}
	}

	return fn(page)
}

// firstVisible walks a prioritized selector list and returns the first
// element that exists and is visible.
func firstVisible(page *rod.Page, selectors []string) (*rod.Element, bool) {
	for _, sel := range selectors {
		has, el, err := page.Has(sel)
		if err != nil || !has {
			continue
		}
		if visible, err := el.Visible(); err == nil && visible {
			return el, true
		}
	}
	return nil, false
}
