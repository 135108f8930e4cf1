package utils

import (
	"testing"
	"time"
)

func TestGetDayStartFrom(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "middle of day",
			input:    time.Date(2024, 1, 15, 14, 30, 45, 123, time.UTC),
			expected: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "already start",
			input:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "non-UTC zone is converted",
			input:    time.Date(2024, 1, 15, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600)),
			expected: time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetDayStartFrom(tt.input); !got.Equal(tt.expected) {
				t.Errorf("GetDayStartFrom() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetDayEndFrom(t *testing.T) {
	input := time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC)
	expected := time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC)
	if got := GetDayEndFrom(input); !got.Equal(expected) {
		t.Errorf("GetDayEndFrom() = %v, want %v", got, expected)
	}
}

func TestLastNDaysFrom(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tr := LastNDaysFrom(now, 7)

	if !tr.Start.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v", tr.Start)
	}
	if !tr.Contains(now) {
		t.Error("range should contain now")
	}
	if tr.Contains(time.Date(2024, 3, 3, 23, 0, 0, 0, time.UTC)) {
		t.Error("range should not contain the day before start")
	}

	if one := LastNDaysFrom(now, 0); !one.Start.Equal(GetDayStartFrom(now)) {
		t.Errorf("n<=0 should give today, got %v", one.Start)
	}
}

func TestDaysBack(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	days := DaysBack(now, 3)

	want := []string{"2024-02-28", "2024-02-29", "2024-03-01"}
	if len(days) != len(want) {
		t.Fatalf("len = %d, want %d", len(days), len(want))
	}
	for i, d := range days {
		if FormatDay(d) != want[i] {
			t.Errorf("days[%d] = %s, want %s", i, FormatDay(d), want[i])
		}
	}

	if DaysBack(now, 0) != nil {
		t.Error("DaysBack(0) should be nil")
	}
}

func TestFromUnixMillis(t *testing.T) {
	got := FromUnixMillis(1700000000123)
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}
	if got.UnixMilli() != 1700000000123 {
		t.Errorf("UnixMilli = %d", got.UnixMilli())
	}
}
