package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatMonth returns a billing month like "2025-01".
func FormatMonth(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// ParseMonth parses "2025-01" into year and month.
func ParseMonth(s string) (year, month int, err error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("invalid month format: %q", s)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in month %q: %w", s, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month in %q: %w", s, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month out of range in %q", s)
	}

	return year, month, nil
}

// CurrentMonth returns the billing month containing t.
func CurrentMonth(t time.Time) string {
	return FormatMonth(t.Year(), int(t.Month()))
}

// TenantKey returns the natural key for a tenant: "<name>_<phone digits>".
// "홍길동", "010-1234-5678" -> "홍길동_01012345678"
func TenantKey(name, phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return strings.TrimSpace(name) + "_" + digits
}

// SplitTenantKey splits a tenant key into name and phone digits.
func SplitTenantKey(key string) (name, phone string, err error) {
	i := strings.LastIndex(key, "_")
	if i <= 0 || i == len(key)-1 {
		return "", "", fmt.Errorf("invalid tenant key: %q", key)
	}
	return key[:i], key[i+1:], nil
}

// BillingMonth pairs a notification date ("MM/DD") with the year of now.
// Notifications carry no year, so a December message read in January lands in
// the wrong year unless rolloverGuard is set, in which case a month later than
// now's month is assigned to the previous year.
func BillingMonth(date string, now time.Time, rolloverGuard bool) (string, error) {
	month, _, err := splitDate(date)
	if err != nil {
		return "", err
	}
	return FormatMonth(notificationYear(month, now, rolloverGuard), month), nil
}

// NotificationTime resolves a notification date and clock ("HH:MM") to an
// instant in loc, using the same year rule as BillingMonth. It falls back to
// now when the pair does not form a real calendar time (e.g. 02/30).
func NotificationTime(date, clock string, now time.Time, loc *time.Location, rolloverGuard bool) time.Time {
	month, day, err := splitDate(date)
	if err != nil {
		return now
	}
	year := notificationYear(month, now.In(loc), rolloverGuard)
	t, err := time.ParseInLocation("2006/01/02 15:04", fmt.Sprintf("%04d/%02d/%02d %s", year, month, day, clock), loc)
	if err != nil {
		return now
	}
	return t
}

func notificationYear(month int, now time.Time, rolloverGuard bool) int {
	year := now.Year()
	if rolloverGuard && month > int(now.Month()) {
		year--
	}
	return year
}

func splitDate(date string) (month, day int, err error) {
	parts := strings.Split(date, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid notification date: %q", date)
	}
	month, err = strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month in notification date %q", date)
	}
	day, err = strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, fmt.Errorf("invalid day in notification date %q", date)
	}
	return month, day, nil
}
