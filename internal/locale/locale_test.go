package locale

import (
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/julianstephens/shopline/internal/constants"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name          string
		tag           string
		wantJapanese  bool
		wantWeekStart time.Weekday
	}{
		{"empty falls back to english", "", false, time.Sunday},
		{"garbage falls back to english", "not a tag!!", false, time.Sunday},
		{"english us", "en-US", false, time.Sunday},
		{"english gb starts monday", "en-GB", false, time.Monday},
		{"japanese", "ja", true, time.Sunday},
		{"japanese japan", "ja-JP", true, time.Sunday},
		{"german maps to english labels, monday start", "de-DE", false, time.Monday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := Resolve(tt.tag)
			if loc.IsJapanese() != tt.wantJapanese {
				t.Errorf("Resolve(%q).IsJapanese() = %v, want %v", tt.tag, loc.IsJapanese(), tt.wantJapanese)
			}
			if loc.WeekStart != tt.wantWeekStart {
				t.Errorf("Resolve(%q).WeekStart = %v, want %v", tt.tag, loc.WeekStart, tt.wantWeekStart)
			}
		})
	}
}

func TestWithWeekStart(t *testing.T) {
	loc := Default().WithWeekStart(time.Monday)
	if loc.WeekStart != time.Monday {
		t.Errorf("WithWeekStart() = %v", loc.WeekStart)
	}
	if loc.Tag != language.English {
		t.Errorf("WithWeekStart() changed tag to %v", loc.Tag)
	}
}

func TestWeekday(t *testing.T) {
	if got := Default().Weekday(time.Sunday); got != "Sun" {
		t.Errorf("Weekday() = %q, want Sun", got)
	}
	if got := Resolve("ja").Weekday(time.Saturday); got != "土" {
		t.Errorf("Weekday() = %q, want 土", got)
	}
}

func TestStatusLabel(t *testing.T) {
	if got := Default().StatusLabel(constants.OrderStatusInProgress); got != "In progress" {
		t.Errorf("StatusLabel() = %q, want In progress", got)
	}
	if got := Resolve("ja").StatusLabel(constants.OrderStatusConfirmed); got != "確定" {
		t.Errorf("StatusLabel() = %q, want 確定", got)
	}
	if got := Default().StatusLabel("canceled"); got != "canceled" {
		t.Errorf("StatusLabel() = %q, want the raw status", got)
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Weekday
		wantErr bool
	}{
		{"mon", time.Monday, false},
		{"Monday", time.Monday, false},
		{" SAT ", time.Saturday, false},
		{"0", time.Sunday, false},
		{"6", time.Saturday, false},
		{"7", time.Sunday, true},
		{"someday", time.Sunday, true},
	}
	for _, tt := range tests {
		got, err := ParseWeekday(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWeekday(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseWeekday(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
