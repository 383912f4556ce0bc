// Package session holds the per-request view of the signed session cookie.
//
// Handlers load a State at the start of a request, change it explicitly and
// save it back before responding. Nothing reads the cookie behind their back.
package session

import (
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// CookieName is the name of the session cookie
const CookieName = "imgworkshop"

// Bounds for the remembered prompt. The signed cookie must encode to at
// most 4096 bytes, so multibyte prompts are cut by size before length.
const (
	MaxPromptLength = 999
	MaxPromptBytes  = 1500
)

const (
	keyAuthOK       = "auth_ok"
	keyAuthTime     = "auth_time"
	keyLastPrompt   = "last_prompt"
	keyLastImageRef = "last_image_ref"
)

// State is everything the application keeps in the session
type State struct {
	Authenticated bool
	AuthTime      time.Time
	LastPrompt    string
	LastImageRef  string
}

// Load reads the state out of a session; unknown or mistyped values are ignored
func Load(s sessions.Session) State {
	var st State
	st.Authenticated, _ = s.Get(keyAuthOK).(bool)
	if ts, ok := s.Get(keyAuthTime).(int64); ok {
		st.AuthTime = time.Unix(0, ts)
	}
	st.LastPrompt, _ = s.Get(keyLastPrompt).(string)
	st.LastImageRef, _ = s.Get(keyLastImageRef).(string)
	return st
}

// Save replaces the session contents with st
func (st State) Save(s sessions.Session) error {
	s.Clear()
	if st.Authenticated {
		s.Set(keyAuthOK, true)
		s.Set(keyAuthTime, st.AuthTime.UnixNano())
	}
	if st.LastPrompt != "" {
		s.Set(keyLastPrompt, st.LastPrompt)
	}
	if st.LastImageRef != "" {
		s.Set(keyLastImageRef, st.LastImageRef)
	}
	return s.Save()
}

// Clear drops every value, including the remembered prompt
func (st *State) Clear() {
	*st = State{}
}

// RememberPrompt stores prompt, truncated to MaxPromptLength runes and
// MaxPromptBytes bytes
func (st *State) RememberPrompt(prompt string) {
	st.LastPrompt = truncateBytes(truncatePrompt(prompt, MaxPromptLength), MaxPromptBytes)
}

// truncatePrompt safely truncates a string to the specified length while preserving UTF-8 characters
func truncatePrompt(s string, length int) string {
	if utf8.RuneCountInString(s) <= length {
		return s
	}

	var size, n int
	for i := 0; i < length && n < len(s); i++ {
		_, size = utf8.DecodeRuneInString(s[n:])
		n += size
	}

	return s[:n]
}

// truncateBytes cuts s to at most n bytes without splitting a rune
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Middleware installs the signed cookie store under CookieName
func Middleware(secret string) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(CookieName, store)
}
