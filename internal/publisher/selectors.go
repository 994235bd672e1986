package publisher

import (
	"regexp"

	"backoffice-core/internal/entity"
)

// PlatformProfile describes how one content platform is driven: where its
// pages live, which elements prove a login, and how a published post's id is
// recognized in the address bar. Selector lists are tried in order; platforms
// A/B test their frontends so the first match wins.
type PlatformProfile struct {
	Platform string
	RootURL  string
	HomeURL  string

	// Verification signals.
	LoginButtonSelectors  []string
	NotificationSelectors []string
	ProfileSelectors      []string
	SettingsProbeURL      string

	// Publish flow.
	EditorURL         string
	TitleSelectors    []string
	BodySelectors     []string
	PublishSelectors  []string
	ErrorSelectors    []string
	PostURLPatterns   []*regexp.Regexp
	LoginPagePatterns []*regexp.Regexp

	// Question feed.
	QuestionFeedScript string
}

var zhihuProfile = &PlatformProfile{
	Platform: entity.PlatformZhihu,
	RootURL:  "https://www.zhihu.com",
	HomeURL:  "https://www.zhihu.com",

	LoginButtonSelectors: []string{
		`.SignFlow`,
		`button[data-za-detail-view-name="login"]`,
		`.AppHeader-login`,
	},
	NotificationSelectors: []string{
		`.AppHeader-notifications`,
		`a[href*="/notifications"]`,
	},
	ProfileSelectors: []string{
		`.AppHeader-profile`,
		`img.Avatar.AppHeader-profileAvatar`,
	},
	SettingsProbeURL: "https://www.zhihu.com/settings/account",

	EditorURL: "https://zhuanlan.zhihu.com/write",
	TitleSelectors: []string{
		`textarea.Input[placeholder*="标题"]`,
		`.WriteIndex-titleInput textarea`,
	},
	BodySelectors: []string{
		`.public-DraftEditor-content`,
		`.Editable-content`,
	},
	PublishSelectors: []string{
		`button.Button--primary[type="button"]`,
		`.PublishPanel-stickyButton button`,
	},
	ErrorSelectors: []string{
		`.Notification--error`,
		`.ErrorMessage`,
	},
	PostURLPatterns: []*regexp.Regexp{
		regexp.MustCompile(`/p/(\d+)`),
		regexp.MustCompile(`/question/(\d+)`),
		regexp.MustCompile(`/answer/(\d+)`),
	},
	LoginPagePatterns: []*regexp.Regexp{
		regexp.MustCompile(`/signin`),
		regexp.MustCompile(`login`),
		regexp.MustCompile(`passport\.zhihu\.com`),
	},

	QuestionFeedScript: `async () => {
		const resp = await fetch('/api/v4/creators/recommend/questions?limit=20', {credentials: 'include'});
		if (!resp.ok) { return JSON.stringify({error: resp.status}); }
		return await resp.text();
	}`,
}

var juejinProfile = &PlatformProfile{
	Platform: entity.PlatformJuejin,
	RootURL:  "https://juejin.cn",
	HomeURL:  "https://juejin.cn",

	LoginButtonSelectors: []string{
		`.login-button`,
		`button.signin`,
	},
	NotificationSelectors: []string{
		`.notification`,
		`a[href*="/notification"]`,
	},
	ProfileSelectors: []string{
		`.avatar-wrapper`,
		`img.avatar`,
	},
	SettingsProbeURL: "https://juejin.cn/user/settings/profile",

	EditorURL: "https://juejin.cn/editor/drafts/new",
	TitleSelectors: []string{
		`input.title-input`,
		`input[placeholder*="标题"]`,
	},
	BodySelectors: []string{
		`.CodeMirror textarea`,
		`.markdown-editor textarea`,
	},
	PublishSelectors: []string{
		`button.publish-btn`,
		`.publish-popup .btn-primary`,
	},
	ErrorSelectors: []string{
		`.error-message`,
		`.toast-error`,
	},
	PostURLPatterns: []*regexp.Regexp{
		regexp.MustCompile(`/post/(\d+)`),
	},
	LoginPagePatterns: []*regexp.Regexp{
		regexp.MustCompile(`/passport`),
		regexp.MustCompile(`/login`),
	},

	QuestionFeedScript: "",
}

var profiles = map[string]*PlatformProfile{
	entity.PlatformZhihu:  zhihuProfile,
	entity.PlatformJuejin: juejinProfile,
}

// ProfileFor returns the driving profile for a platform.
func ProfileFor(platform string) (*PlatformProfile, bool) {
	p, ok := profiles[platform]
	return p, ok
}

// ExtractPostID matches a navigated URL against the platform's post
// patterns, returning the platform-side article id.
func (p *PlatformProfile) ExtractPostID(url string) (string, bool) {
	for _, re := range p.PostURLPatterns {
		if m := re.FindStringSubmatch(url); len(m) > 1 {
			return m[1], true
		}
	}
	return "", false
}

// IsLoginPage reports whether the URL is a login redirect, the signature of
// an expired cookie bundle.
func (p *PlatformProfile) IsLoginPage(url string) bool {
	for _, re := range p.LoginPagePatterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}
