package publisher

import (
	"testing"
	"time"

	"backoffice-core/internal/entity"
	"backoffice-core/pkg/logger"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestParseCookieBundleAndTranslate(t *testing.T) {
	bundle := datatypes.JSON(`[
		{"name":"z_c0","value":"token","domain":".zhihu.com","path":"/","secure":true,"httpOnly":true,"sameSite":"lax","expirationDate":1924992000.5},
		{"name":"session","value":"s","domain":".zhihu.com","sameSite":"no_restriction","session":true},
		{"name":"","value":"dropped","domain":".zhihu.com"},
		{"name":"orphan","value":"dropped","domain":""}
	]`)

	cookies, err := ParseCookieBundle(bundle)
	require.NoError(t, err)
	require.Len(t, cookies, 4)

	params := ToDriverCookies(cookies)
	require.Len(t, params, 2, "cookies without name or domain are dropped")

	first := params[0]
	assert.Equal(t, "z_c0", first.Name)
	assert.Equal(t, ".zhihu.com", first.Domain)
	assert.Equal(t, "/", first.Path)
	assert.True(t, first.Secure)
	assert.True(t, first.HTTPOnly)
	assert.Equal(t, proto.NetworkCookieSameSiteLax, first.SameSite)
	assert.Equal(t, proto.TimeSinceEpoch(1924992000.5), first.Expires)

	second := params[1]
	assert.Equal(t, proto.NetworkCookieSameSiteNone, second.SameSite)
	assert.Equal(t, "/", second.Path, "missing path defaults to /")
	assert.Zero(t, second.Expires, "session cookies carry no expiry")
}

func TestParseCookieBundleRejectsGarbage(t *testing.T) {
	_, err := ParseCookieBundle(datatypes.JSON(`{"not":"an array"}`))
	assert.Error(t, err)
	_, err = ParseCookieBundle(nil)
	assert.Error(t, err)
}

func TestCleanTitleIdempotent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"飙升如何评价 Go 1.23?", "如何评价 Go 1.23?"},
		{"新问飙升为什么天空是蓝色的", "为什么天空是蓝色的"},
		{"标题 有前缀的问题", "有前缀的问题"},
		{"普通问题", "普通问题"},
	}
	for _, tt := range tests {
		got := CleanTitle(tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, CleanTitle(got), "cleaning must be idempotent")
	}
}

func TestHotScore(t *testing.T) {
	assert.Equal(t, 0, HotScore(0, 0, 0))
	assert.Equal(t, 100+10*7+5*3, HotScore(100, 7, 3))
}

func TestParseQuestionFeed(t *testing.T) {
	raw := `{"data":[
		{"question":{"id":"789","title":"普通问题","excerpt":"","url":"https://www.zhihu.com/question/789","visit_count":10,"answer_count":0,"follower_count":1,"author":{"name":""}}},
		{"question":{"id":123456,"title":"飙升颜值真的有那么重要吗？","excerpt":"颜值到底有多重要","url":"https://www.zhihu.com/question/123456","visit_count":1000,"answer_count":20,"follower_count":5,"author":{"name":"匿名用户"}}}
	],"paging":{"is_end":true}}`
	questions, err := parseQuestionFeed(raw)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	// Hottest first regardless of feed order.
	assert.Equal(t, "123456", questions[0].QuestionID)
	assert.Equal(t, "颜值真的有那么重要吗？", questions[0].Title)
	assert.Equal(t, "颜值到底有多重要", questions[0].Description)
	assert.Equal(t, "匿名用户", questions[0].AuthorName)
	assert.Equal(t, 1000, questions[0].Views)
	assert.Equal(t, 1000+10*20+5*5, questions[0].Hot)
	assert.Equal(t, "789", questions[1].QuestionID)

	_, err = parseQuestionFeed(`{"error":403}`)
	assert.Error(t, err)
	_, err = parseQuestionFeed(`{"error":{"code":40301,"message":"forbidden"}}`)
	assert.Error(t, err)
	_, err = parseQuestionFeed(`not json`)
	assert.Error(t, err)
}

func TestVerifyWaitSeconds(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	assert.Zero(t, verifyWaitSeconds(nil, now, 5*time.Minute))

	old := now.Add(-10 * time.Minute)
	assert.Zero(t, verifyWaitSeconds(&old, now, 5*time.Minute))

	recent := now.Add(-1 * time.Minute)
	assert.Equal(t, 240, verifyWaitSeconds(&recent, now, 5*time.Minute))
}

func TestCheckVerifyIntervalMessage(t *testing.T) {
	ad := NewAntiDetect(DefaultAntiDetectConfig(), logger.NewNop())
	recent := time.Now().Add(-1 * time.Minute)
	err := ad.CheckVerifyInterval(&recent, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "验证过于频繁，请等待")
	assert.Contains(t, err.Error(), "秒后再试")

	disabled := NewAntiDetect(AntiDetectConfig{Enabled: false}, logger.NewNop())
	assert.NoError(t, disabled.CheckVerifyInterval(&recent, time.Now()))
}

func TestContainsHTML(t *testing.T) {
	assert.True(t, ContainsHTML(`<p>hello</p>`))
	assert.True(t, ContainsHTML(`text with <div class="x">markup</div>`))
	assert.False(t, ContainsHTML("# Markdown title\n\nplain *emphasis* text"))
	assert.False(t, ContainsHTML("a < b and c > d"))
}

func TestNormalizeContentPassesMarkdownThrough(t *testing.T) {
	md := "# Title\n\nbody"
	out, err := NormalizeContent(md)
	require.NoError(t, err)
	assert.Equal(t, md, out)
}

func TestNormalizeContentConvertsHTML(t *testing.T) {
	out, err := NormalizeContent(`<h1>Title</h1><p>body with <strong>bold</strong></p>`)
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "**bold**")
	assert.False(t, ContainsHTML(out))
}

func TestExtractPostID(t *testing.T) {
	profile, ok := ProfileFor(entity.PlatformZhihu)
	require.True(t, ok)

	id, ok := profile.ExtractPostID("https://zhuanlan.zhihu.com/p/987654321")
	require.True(t, ok)
	assert.Equal(t, "987654321", id)

	id, ok = profile.ExtractPostID("https://www.zhihu.com/question/111/answer/222")
	require.True(t, ok)
	assert.Equal(t, "111", id, "question pattern wins by priority order")

	_, ok = profile.ExtractPostID("https://www.zhihu.com/write")
	assert.False(t, ok)
}

func TestIsLoginPage(t *testing.T) {
	profile, _ := ProfileFor(entity.PlatformZhihu)
	assert.True(t, profile.IsLoginPage("https://www.zhihu.com/signin?next=%2F"))
	assert.True(t, profile.IsLoginPage("https://account.zhihu.com/login?from=write"))
	assert.False(t, profile.IsLoginPage("https://www.zhihu.com/settings/account"))
}

func TestSummaryFromHTML(t *testing.T) {
	s := SummaryFromHTML("<p>one two</p><p>three</p>", 100)
	assert.Equal(t, "one two three", s)
	s = SummaryFromHTML("<p>很长的中文内容需要截断处理测试</p>", 5)
	assert.Equal(t, "很长的中文", s)
}
