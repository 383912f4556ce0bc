package session

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/imgworkshop/internal/domain"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func TestGate_Login(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	g := Gate{Password: "workshop", MaxAge: time.Hour, Now: c.Now}

	var st State
	assert.ErrorIs(t, g.Login(&st, "nope"), domain.ErrWrongPassword)
	assert.False(t, st.Authenticated)

	require.NoError(t, g.Login(&st, "  workshop \n"))
	assert.True(t, st.Authenticated)
	assert.Equal(t, c.t, st.AuthTime)
}

func TestGate_LoginWithoutConfiguredPassword(t *testing.T) {
	var st State
	assert.ErrorIs(t, Gate{}.Login(&st, ""), domain.ErrMissingPassword)
	assert.False(t, st.Authenticated)
}

func TestGate_ExpiresAfterExactlyMaxAge(t *testing.T) {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	c := &clock{t: start}
	g := Gate{Password: "pw", MaxAge: time.Hour, Now: c.Now}

	st := State{LastPrompt: "a red cube", LastImageRef: "/tmp/last_image.png"}
	require.NoError(t, g.Login(&st, "pw"))

	c.t = start.Add(time.Hour)
	assert.False(t, g.Refresh(&st))
	assert.True(t, st.Authenticated)

	c.t = start.Add(time.Hour + time.Nanosecond)
	assert.True(t, g.Refresh(&st))
	assert.Equal(t, State{}, st)
}

func TestGate_RefreshIgnoresAnonymous(t *testing.T) {
	st := State{LastPrompt: "keep me"}
	assert.False(t, Gate{}.Refresh(&st))
	assert.Equal(t, "keep me", st.LastPrompt)
}

func TestRememberPrompt_Truncates(t *testing.T) {
	var st State
	st.RememberPrompt(strings.Repeat("a", MaxPromptLength+5))
	assert.Equal(t, MaxPromptLength, len(st.LastPrompt))

	// 3-byte runes hit the byte budget first and are never split
	st.RememberPrompt(strings.Repeat("猫", MaxPromptLength))
	assert.Equal(t, MaxPromptBytes/3, utf8.RuneCountInString(st.LastPrompt))
	assert.True(t, utf8.ValidString(st.LastPrompt))

	st.RememberPrompt(strings.Repeat("😀", MaxPromptLength))
	assert.LessOrEqual(t, len(st.LastPrompt), MaxPromptBytes)
	assert.Equal(t, MaxPromptBytes/4, utf8.RuneCountInString(st.LastPrompt))
	assert.True(t, utf8.ValidString(st.LastPrompt))

	st.RememberPrompt("short")
	assert.Equal(t, "short", st.LastPrompt)
}
