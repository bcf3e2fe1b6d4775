// Package locale resolves the language used for window labels and the first
// day of the week.
package locale

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/julianstephens/shopline/internal/constants"
)

// Locale carries the label language and week start for one user
type Locale struct {
	Tag       language.Tag
	WeekStart time.Weekday
}

var supported = []language.Tag{
	language.English,
	language.Japanese,
}

var matcher = language.NewMatcher(supported)

// Regions whose calendars start the week on Monday
var mondayRegions = map[string]bool{
	"GB": true, "DE": true, "FR": true, "IT": true, "ES": true, "NL": true,
	"SE": true, "NO": true, "FI": true, "DK": true, "PL": true, "AU": true,
	"NZ": true, "IE": true, "AT": true, "CH": true, "BE": true,
}

// Resolve picks the closest supported language for the given BCP 47 tag and
// derives the week start from its region. An empty or unparsable tag yields English.
func Resolve(tag string) Locale {
	requested, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		requested = language.English
	}
	_, idx, _ := matcher.Match(requested)

	weekStart := time.Sunday
	if region, conf := requested.Region(); conf >= language.High && mondayRegions[region.String()] {
		weekStart = time.Monday
	}

	return Locale{
		Tag:       supported[idx],
		WeekStart: weekStart,
	}
}

// Default is the English, Sunday-first locale
func Default() Locale {
	return Locale{Tag: language.English, WeekStart: time.Sunday}
}

// WithWeekStart returns a copy of l with the week start overridden
func (l Locale) WithWeekStart(wd time.Weekday) Locale {
	l.WeekStart = wd
	return l
}

// IsJapanese reports whether labels render in Japanese
func (l Locale) IsJapanese() bool {
	return l.Tag == language.Japanese
}

var jaWeekdays = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// Weekday returns the short weekday name in the locale's language
func (l Locale) Weekday(wd time.Weekday) string {
	if l.IsJapanese() {
		return jaWeekdays[wd]
	}
	return wd.String()[:3]
}

var statusLabels = map[constants.OrderStatus][2]string{
	constants.OrderStatusPending:    {"Pending", "未確定"},
	constants.OrderStatusConfirmed:  {"Confirmed", "確定"},
	constants.OrderStatusInProgress: {"In progress", "製造中"},
	constants.OrderStatusCompleted:  {"Completed", "完了"},
}

// StatusLabel names an order status; unknown statuses are shown as sent
func (l Locale) StatusLabel(s constants.OrderStatus) string {
	labels, ok := statusLabels[s]
	if !ok {
		return string(s)
	}
	if l.IsJapanese() {
		return labels[1]
	}
	return labels[0]
}

// ParseWeekday parses a weekday name ("mon", "Monday") or number (0=Sunday)
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || s == name[:3] {
			return wd, nil
		}
	}
	if len(s) == 1 && s[0] >= '0' && s[0] <= '6' {
		return time.Weekday(s[0] - '0'), nil
	}
	return time.Sunday, fmt.Errorf("invalid weekday: %s", s)
}
