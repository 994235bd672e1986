package publisher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backoffice-core/internal/entity"
	"backoffice-core/pkg/logger"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Sentinel failure messages stored on the publish log. Cookie expiry is its
// own failure path so operators can tell a dead session from a flaky page.
var (
	ErrCookieExpired = fmt.Errorf("Cookie 已失效")
	ErrUnknown       = fmt.Errorf("unknown error")
)

// PublishResult is what a successful platform submission yields.
type PublishResult struct {
	PlatformArticleID string
	PlatformURL       string
}

// Driver is the per-platform browser surface the service dispatches to.
type Driver interface {
	Verify(ctx context.Context, account *entity.PlatformAccount) error
	Publish(ctx context.Context, account *entity.PlatformAccount, article *entity.Article) (*PublishResult, error)
	FetchQuestions(ctx context.Context, account *entity.PlatformAccount) ([]Question, error)
}

// Handler drives one platform through scoped browser sessions.
type Handler struct {
	profile    *PlatformProfile
	browser    *Browser
	antiDetect *AntiDetect
	logger     *logger.Logger
}

// NewHandler creates a new Handler for a platform profile.
func NewHandler(profile *PlatformProfile, browser *Browser, antiDetect *AntiDetect, log *logger.Logger) *Handler {
	return &Handler{
		profile:    profile,
		browser:    browser,
		antiDetect: antiDetect,
		logger:     log,
	}
}

// Verify decides whether the account's session is alive. A visible login
// button is a hard negative; notification or profile elements are positive.
// When neither side fires, a settings-page probe breaks the tie and the
// ambiguity is logged as a page-layout change.
func (h *Handler) Verify(ctx context.Context, account *entity.PlatformAccount) error {
	return h.browser.WithPage(ctx, account, h.profile, h.profile.HomeURL, func(page *rod.Page) error {
		h.antiDetect.MicroDelay(ctx)
		h.antiDetect.ScrollJitter(ctx, page)

		if _, found := firstVisible(page, h.profile.LoginButtonSelectors); found {
			h.antiDetect.StayAfterVerify(ctx, false)
			return ErrCookieExpired
		}

		_, hasNotifications := firstVisible(page, h.profile.NotificationSelectors)
		_, hasProfile := firstVisible(page, h.profile.ProfileSelectors)
		if hasNotifications || hasProfile {
			h.antiDetect.StayAfterVerify(ctx, true)
			return nil
		}

		// Neither signal fired; the platform likely moved its markup. Probe
		// the settings page, which redirects to login for dead sessions.
		h.logger.Warn("verify signals ambiguous, falling back to settings probe",
			logger.StringField("platform", h.profile.Platform))
		if err := page.Navigate(h.profile.SettingsProbeURL); err != nil {
			return fmt.Errorf("settings probe navigation failed: %w", err)
		}
		if err := page.WaitLoad(); err != nil {
			return fmt.Errorf("settings probe did not load: %w", err)
		}
		h.antiDetect.MicroDelay(ctx)

		info, err := page.Info()
		if err != nil {
			return fmt.Errorf("failed to read probe url: %w", err)
		}
		if h.profile.IsLoginPage(info.URL) {
			h.antiDetect.StayAfterVerify(ctx, false)
			return ErrCookieExpired
		}
		h.antiDetect.StayAfterVerify(ctx, true)
		return nil
	})
}

// Publish submits an article through the platform editor. Success is decided
// by the post-submit URL matching a post pattern; a visible error element or
// a login redirect fails with a specific message, anything else fails as
// unknown.
func (h *Handler) Publish(ctx context.Context, account *entity.PlatformAccount, article *entity.Article) (*PublishResult, error) {
	var result *PublishResult
	err := h.browser.WithPage(ctx, account, h.profile, h.profile.EditorURL, func(page *rod.Page) error {
		info, err := page.Info()
		if err != nil {
			return fmt.Errorf("failed to read editor url: %w", err)
		}
		if h.profile.IsLoginPage(info.URL) {
			return ErrCookieExpired
		}

		content, err := NormalizeContent(article.Content)
		if err != nil {
			return fmt.Errorf("content conversion failed: %w", err)
		}

		h.antiDetect.MicroDelay(ctx)
		h.antiDetect.MouseJitter(ctx, page)

		titleEl, found := firstVisible(page, h.profile.TitleSelectors)
		if !found {
			return fmt.Errorf("editor title field not found")
		}
		if err := titleEl.Input(article.Title); err != nil {
			return fmt.Errorf("failed to type title: %w", err)
		}

		h.antiDetect.MicroDelay(ctx)

		bodyEl, found := firstVisible(page, h.profile.BodySelectors)
		if !found {
			return fmt.Errorf("editor body field not found")
		}
		if err := bodyEl.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("failed to focus body: %w", err)
		}
		if err := page.InsertText(content); err != nil {
			return fmt.Errorf("failed to insert body: %w", err)
		}

		h.antiDetect.MicroDelay(ctx)
		h.antiDetect.ScrollJitter(ctx, page)

		publishEl, found := firstVisible(page, h.profile.PublishSelectors)
		if !found {
			return fmt.Errorf("publish button not found")
		}
		if err := publishEl.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("failed to click publish: %w", err)
		}

		// The platform either navigates to the new post or surfaces an
		// error element. Poll the address bar for a bounded time.
		deadline := time.Now().Add(30 * time.Second)
		for time.Now().Before(deadline) {
			if err := ctx.Err(); err != nil {
				return err
			}
			info, err := page.Info()
			if err == nil {
				if id, ok := h.profile.ExtractPostID(info.URL); ok {
					result = &PublishResult{PlatformArticleID: id, PlatformURL: info.URL}
					return nil
				}
				if h.profile.IsLoginPage(info.URL) {
					return ErrCookieExpired
				}
			}
			if el, found := firstVisible(page, h.profile.ErrorSelectors); found {
				text, _ := el.Text()
				text = strings.TrimSpace(text)
				if text == "" {
					return ErrUnknown
				}
				return fmt.Errorf("platform rejected the article: %s", text)
			}
			time.Sleep(time.Second)
		}
		return ErrUnknown
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FetchQuestions pulls the creator question feed through an in-page fetch so
// the request rides the page's own session.
func (h *Handler) FetchQuestions(ctx context.Context, account *entity.PlatformAccount) ([]Question, error) {
	if h.profile.QuestionFeedScript == "" {
		return nil, fmt.Errorf("platform %s has no question feed", h.profile.Platform)
	}
	var questions []Question
	err := h.browser.WithPage(ctx, account, h.profile, h.profile.HomeURL, func(page *rod.Page) error {
		info, err := page.Info()
		if err != nil {
			return fmt.Errorf("failed to read page url: %w", err)
		}
		if h.profile.IsLoginPage(info.URL) {
			return ErrCookieExpired
		}

		h.antiDetect.MicroDelay(ctx)

		res, err := page.Eval(h.profile.QuestionFeedScript)
		if err != nil {
			return fmt.Errorf("question feed fetch failed: %w", err)
		}
		questions, err = parseQuestionFeed(res.Value.Str())
		return err
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}
