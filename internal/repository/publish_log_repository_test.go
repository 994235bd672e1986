package repository

import (
	"strings"
	"testing"
	"unicode/utf8"

	"backoffice-core/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestTruncateErrorMessage(t *testing.T) {
	assert.Equal(t, "Cookie 已失效", truncateErrorMessage("Cookie 已失效"))
	assert.Equal(t, "", truncateErrorMessage(""))

	// A long Chinese message must be cut on a rune boundary; a byte-sliced
	// tail would be rejected by the utf8mb4 column.
	long := strings.Repeat("已失效", entity.MaxErrorMessageLen)
	got := truncateErrorMessage(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, entity.MaxErrorMessageLen, utf8.RuneCountInString(got))
	assert.Equal(t, string([]rune(long)[:entity.MaxErrorMessageLen]), got)

	// Exactly at the limit passes through untouched.
	exact := strings.Repeat("效", entity.MaxErrorMessageLen)
	assert.Equal(t, exact, truncateErrorMessage(exact))
}
