package weather

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/climash/dashboard/internal/common"
)

// Locale controls the human-readable labels of the dashboard model.
type Locale struct {
	Tag      language.Tag
	Today    string
	weekdays [7]string
	months   [12]string
	dayFirst bool
}

var (
	LocaleES = Locale{
		Tag:      language.Spanish,
		Today:    "Hoy",
		weekdays: [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
		months:   [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
		dayFirst: true,
	}
	LocaleEN = Locale{
		Tag:      language.English,
		Today:    "Today",
		weekdays: [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"},
		months:   [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	}
)

// ParseLocale returns the locale for a language code ("es" or "en").
func ParseLocale(code string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "", "es":
		return LocaleES, nil
	case "en":
		return LocaleEN, nil
	default:
		return Locale{}, fmt.Errorf("unsupported locale %q", code)
	}
}

// Weekday returns the capitalized weekday name of t.
func (l Locale) Weekday(t time.Time) string {
	return common.Capitalize(l.Tag, l.weekdays[t.Weekday()])
}

// ShortDate formats t as a day/month label, e.g. "17 oct" or "Oct 17".
func (l Locale) ShortDate(t time.Time) string {
	month := l.months[t.Month()-1]
	if l.dayFirst {
		return fmt.Sprintf("%d %s", t.Day(), month)
	}
	return fmt.Sprintf("%s %d", month, t.Day())
}

// DateLabel returns the label of forecast day index, "today" for index 0.
func (l Locale) DateLabel(index int, t time.Time) string {
	if index == 0 {
		return l.Today
	}
	return l.ShortDate(t)
}

// TimeLabel formats t as a 24h HH:MM label.
func TimeLabel(t time.Time) string {
	return t.Format("15:04")
}
