package http

import (
	"time"

	"github.com/tanglebay/doorman/pkg/ratelimit"
)

// loginBackoff is the per-user ladder applied to consecutive failed logins.
var loginBackoff = []time.Duration{
	0,
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
	30 * time.Second,
	60 * time.Second,
	180 * time.Second,
	300 * time.Second,
}

// rateLimits owns the per-endpoint limiter state. Keys are client addresses,
// user ids or session ids depending on what the endpoint needs to slow down.
type rateLimits struct {
	global    *ratelimit.RefillingTokenBucket[string]
	signupIP  *ratelimit.RefillingTokenBucket[string]
	loginIP   *ratelimit.RefillingTokenBucket[string]
	loginUser *ratelimit.Throttler[string]

	resetRequestIP   *ratelimit.RefillingTokenBucket[string]
	resetRequestUser *ratelimit.RefillingTokenBucket[string]
	resetEmailVerify *ratelimit.ExpiringTokenBucket[string] // keyed by reset session id

	passwordChange *ratelimit.ExpiringTokenBucket[string] // keyed by session id
	recovery       *ratelimit.ExpiringTokenBucket[string] // keyed by user id
	totpVerify     *ratelimit.ExpiringTokenBucket[string] // keyed by user id
	emailVerify    *ratelimit.ExpiringTokenBucket[string] // keyed by user id
	resendEmail    *ratelimit.RefillingTokenBucket[string]

	challengeIP *ratelimit.RefillingTokenBucket[string]
}

func newRateLimits() *rateLimits {
	return &rateLimits{
		global:    ratelimit.NewRefillingTokenBucket[string](100, time.Second),
		signupIP:  ratelimit.NewRefillingTokenBucket[string](10, 10*time.Second),
		loginIP:   ratelimit.NewRefillingTokenBucket[string](20, time.Second),
		loginUser: ratelimit.NewThrottler[string](loginBackoff),

		resetRequestIP:   ratelimit.NewRefillingTokenBucket[string](3, time.Minute),
		resetRequestUser: ratelimit.NewRefillingTokenBucket[string](3, time.Minute),
		resetEmailVerify: ratelimit.NewExpiringTokenBucket[string](5, 30*time.Minute),

		passwordChange: ratelimit.NewExpiringTokenBucket[string](5, 30*time.Minute),
		recovery:       ratelimit.NewExpiringTokenBucket[string](5, time.Hour),
		totpVerify:     ratelimit.NewExpiringTokenBucket[string](5, 30*time.Minute),
		emailVerify:    ratelimit.NewExpiringTokenBucket[string](5, 30*time.Minute),
		resendEmail:    ratelimit.NewRefillingTokenBucket[string](3, 10*time.Minute),

		challengeIP: ratelimit.NewRefillingTokenBucket[string](30, 10*time.Second),
	}
}

func (l *rateLimits) sweep() {
	l.global.Sweep()
	l.signupIP.Sweep()
	l.loginIP.Sweep()
	l.loginUser.Sweep()
	l.resetRequestIP.Sweep()
	l.resetRequestUser.Sweep()
	l.resetEmailVerify.Sweep()
	l.passwordChange.Sweep()
	l.recovery.Sweep()
	l.totpVerify.Sweep()
	l.emailVerify.Sweep()
	l.resendEmail.Sweep()
	l.challengeIP.Sweep()
}
