package portal

import "time"

// AuthToken is the (t, e) pair the portal expects on every course data request.
// It is only accepted within the minute that produced it.
type AuthToken struct {
	T int64
	E int64
}

// GenerateAuthToken derives the token for the minute containing `now`.
//
// The formula is the portal's, do not simplify the modulo chain.
func GenerateAuthToken(now time.Time) AuthToken {
	ms := now.UnixMilli()
	minutes := ms / 60000
	if ms < 0 && ms%60000 != 0 {
		// floor, not truncation
		minutes--
	}
	t := minutes % 1000
	if t < 0 {
		t += 1000
	}
	e := t%39 + t%42 + t%3
	return AuthToken{T: t, E: e}
}
