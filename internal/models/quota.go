package models

import "time"

// QuotaDayFormat is the calendar-day bucket format for the message quota ledger
const QuotaDayFormat = "2006-01-02"

// QuotaDay formats t as a ledger day bucket in UTC
func QuotaDay(t time.Time) string {
	return t.UTC().Format(QuotaDayFormat)
}
