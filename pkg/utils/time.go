package utils

import (
	"time"
)

// time.go - утилиты для работы со временем
//
// Используются для построения дневных рядов (тренд стоимости кошелька)
// и конвертации времени из миллисекунд Binance.

// GetDayStartFrom возвращает начало дня для указанного времени в UTC
//
// Пример:
//
//	// t: 2024-01-15 14:30:45 UTC
//	start := GetDayStartFrom(t)
//	// start: 2024-01-15 00:00:00 UTC
func GetDayStartFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GetDayEndFrom возвращает конец дня (23:59:59.999999999) для указанного времени
func GetDayEndFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, time.UTC)
}

// TimeRange представляет временной диапазон
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains проверяет, попадает ли время в диапазон
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && !t.After(tr.End)
}

// LastNDaysFrom возвращает диапазон последних n дней, включая день now
func LastNDaysFrom(now time.Time, n int) TimeRange {
	if n <= 0 {
		n = 1
	}
	return TimeRange{
		Start: GetDayStartFrom(now.AddDate(0, 0, -(n - 1))),
		End:   GetDayEndFrom(now),
	}
}

// DaysBack возвращает начала последних n UTC-дней от старого к новому.
// Последний элемент - начало дня now.
func DaysBack(now time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	today := GetDayStartFrom(now)
	days := make([]time.Time, n)
	for i := 0; i < n; i++ {
		days[i] = today.AddDate(0, 0, -(n - 1 - i))
	}
	return days
}

// FromUnixMillis конвертирует миллисекунды в time.Time (UTC)
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FormatDay форматирует день как YYYY-MM-DD
func FormatDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
