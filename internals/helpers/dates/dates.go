// file: internals/helpers/dates/dates.go
//
// Aritmetika tanggal murni untuk horizon jadwal & akunting hari suspensi.
// Semua tanggal "bisnis" dinormalisasi ke awal hari (00:00) di zona bisnis,
// lalu disimpan sebagai UTC midnight supaya perbandingan di DB stabil.
package dates

import (
	"fmt"
	"os"
	"sync"
	"time"
)

const ISODate = "2006-01-02"

var (
	bizLocOnce sync.Once
	bizLoc     *time.Location
)

// BusinessLocation zona bisnis tetap (BUSINESS_TZ, default America/Sao_Paulo).
// "Hari ini" selalu dievaluasi di zona ini, bukan zona pemanggil.
func BusinessLocation() *time.Location {
	bizLocOnce.Do(func() {
		name := os.Getenv("BUSINESS_TZ")
		if name == "" {
			name = "America/Sao_Paulo"
		}
		loc, err := time.LoadLocation(name)
		if err != nil {
			loc = time.FixedZone(name, -3*3600)
		}
		bizLoc = loc
	})
	return bizLoc
}

// ParseISODate parse "YYYY-MM-DD" → UTC midnight.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func FormatISODate(t time.Time) string {
	return t.Format(ISODate)
}

// DateOnly buang komponen jam → UTC midnight di tanggal yang sama.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today awal hari ini di zona bisnis, sebagai UTC midnight.
func Today() time.Time {
	now := time.Now().In(BusinessLocation())
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func AddDays(t time.Time, days int) time.Time {
	return DateOnly(t).AddDate(0, 0, days)
}

// DaysBetween selisih hari kalender (floor), negatif bila to < from.
func DaysBetween(from, to time.Time) int {
	f := DateOnly(from)
	s := DateOnly(to)
	return int(s.Sub(f).Hours() / 24)
}

// NextWeekday tanggal pertama pada/atau setelah from yang jatuh di weekday
// (0=Minggu .. 6=Sabtu).
func NextWeekday(from time.Time, weekday int) time.Time {
	d := DateOnly(from)
	delta := (weekday - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, delta)
}

// ParseClock parse "HH:mm" → menit sejak 00:00.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time-of-day format %q (want HH:mm)", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock menit sejak 00:00 → "HH:mm" (wrap melewati tengah malam).
func FormatClock(minutes int) string {
	minutes = ((minutes % (24 * 60)) + 24*60) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AddMinutesToClock "HH:mm" + n menit → "HH:mm".
// Dipakai menghitung ulang end_time = start_time + durasi saat sync template.
func AddMinutesToClock(clock string, minutes int) (string, error) {
	base, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	return FormatClock(base + minutes), nil
}

// CombineDateAndClock tanggal + "HH:mm" di zona bisnis → instant UTC.
func CombineDateAndClock(date time.Time, clock string) (time.Time, error) {
	mins, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	d := DateOnly(date)
	local := time.Date(d.Year(), d.Month(), d.Day(), mins/60, mins%60, 0, 0, BusinessLocation())
	return local.UTC(), nil
}
