package schedule

import "time"

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 30 * time.Second
	DefaultMaxDelay    = time.Hour
)

// RetryPolicy decides what happens after a failed publish attempt.
// It is a pure function of the retry count and the failure kind.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Action is the policy's verdict: retry after Delay, or give up.
type Action struct {
	Retry bool
	Delay time.Duration
}

func GiveUp() Action {
	return Action{}
}

func Retry(delay time.Duration) Action {
	return Action{Retry: true, Delay: delay}
}

// NextAction maps the retry count (attempts made so far, including the
// failure being handled) and the failure to a verdict. Permanent failures
// give up immediately regardless of attempts left; otherwise the delay
// doubles with each failed attempt, starting at BaseDelay.
func (p RetryPolicy) NextAction(retryCount int, failure *PublishError) Action {
	if failure != nil && !failure.Retryable() {
		return GiveUp()
	}
	if retryCount >= p.MaxAttempts {
		return GiveUp()
	}

	shift := retryCount - 1
	if shift < 0 {
		shift = 0
	}
	delay := p.BaseDelay << uint(shift)
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	return Retry(delay)
}
