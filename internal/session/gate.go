package session

import (
	"strings"
	"time"

	"github.com/basel-ax/imgworkshop/internal/domain"
)

// DefaultMaxAge is how long a login stays valid
const DefaultMaxAge = time.Hour

// Gate checks the shared workshop password and login expiry
type Gate struct {
	Password string
	MaxAge   time.Duration
	// Now defaults to time.Now
	Now func() time.Time
}

func (g Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g Gate) maxAge() time.Duration {
	if g.MaxAge > 0 {
		return g.MaxAge
	}
	return DefaultMaxAge
}

// Refresh clears the whole state once a login is older than MaxAge.
// It reports whether the state was cleared.
func (g Gate) Refresh(st *State) bool {
	if !st.Authenticated {
		return false
	}
	if st.AuthTime.IsZero() || g.now().Sub(st.AuthTime) > g.maxAge() {
		st.Clear()
		return true
	}
	return false
}

// Login grants the session when submitted matches the shared password
func (g Gate) Login(st *State, submitted string) error {
	if g.Password == "" {
		return domain.ErrMissingPassword
	}
	if strings.TrimSpace(submitted) != g.Password {
		return domain.ErrWrongPassword
	}
	st.Authenticated = true
	st.AuthTime = g.now()
	return nil
}
