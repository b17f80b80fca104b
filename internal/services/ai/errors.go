package ai

import (
	"strings"
	"time"
)

// IsRateLimitError checks if a provider error looks like a rate limit,
// which is worth retrying after a delay.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "overloaded")
}

// IsQuotaError checks if a provider error indicates exhausted billing
// quota, which retrying soon will not fix.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "billing")
}

// GetRetryDelay calculates the delay before retrying a failed provider
// call, with exponential backoff per attempt.
func GetRetryDelay(err error, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 10 {
		attempt = 10
	}
	shift := uint(attempt)

	switch {
	case IsQuotaError(err):
		delay := time.Hour * time.Duration(1<<shift)
		if delay > 24*time.Hour {
			delay = 24 * time.Hour
		}
		return delay
	case IsRateLimitError(err):
		delay := 60 * time.Second * time.Duration(1<<shift)
		if delay > 15*time.Minute {
			delay = 15 * time.Minute
		}
		return delay
	default:
		delay := 5 * time.Second * time.Duration(1<<shift)
		if delay > 5*time.Minute {
			delay = 5 * time.Minute
		}
		return delay
	}
}
