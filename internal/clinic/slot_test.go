package clinic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

func TestValidateSlot(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		start    string
		end      string
		wantSlot clinic.TimeSlot
		wantErr  error
	}{
		{"whole day", "04/10/2025", "8:00", "17:00", clinic.TimeSlot{StartHour: 8, EndHour: 17}, nil},
		{"last start", "04/10/2025", "16:00", "17:00", clinic.TimeSlot{StartHour: 16, EndHour: 17}, nil},
		{"half hour end", "04/10/2025", "9:00", "10:30", clinic.TimeSlot{StartHour: 9, EndHour: 10, EndMinute: 30}, nil},
		{"zero padded start", "04/10/2025", "09:00", "10:00", clinic.TimeSlot{StartHour: 9, EndHour: 10}, nil},
		{"closing minute normalized", "04/10/2025", "9:00", "17:30", clinic.TimeSlot{StartHour: 9, EndHour: 17}, nil},
		{"single digit date", "4/1/2025", "9:00", "10:00", clinic.TimeSlot{StartHour: 9, EndHour: 10}, nil},

		{"iso date", "2025-04-10", "9:00", "10:00", clinic.TimeSlot{}, clinic.ErrInvalidDate},
		{"month out of range", "13/01/2025", "9:00", "10:00", clinic.TimeSlot{}, clinic.ErrInvalidDate},
		{"date checked first", "tomorrow", "7:00", "6:00", clinic.TimeSlot{}, clinic.ErrInvalidDate},

		{"before opening", "04/10/2025", "7:00", "9:00", clinic.TimeSlot{}, clinic.ErrInvalidStart},
		{"start at closing", "04/10/2025", "17:00", "17:00", clinic.TimeSlot{}, clinic.ErrInvalidStart},
		{"start off the hour", "04/10/2025", "9:30", "11:00", clinic.TimeSlot{}, clinic.ErrInvalidStart},
		{"start garbage", "04/10/2025", "nine", "11:00", clinic.TimeSlot{}, clinic.ErrInvalidStart},
		{"start with plus sign", "04/10/2025", "+9:00", "10:00", clinic.TimeSlot{}, clinic.ErrInvalidStart},
		{"start with minus sign", "04/10/2025", "-9:00", "10:00", clinic.TimeSlot{}, clinic.ErrInvalidStart},
		{"start checked before end", "04/10/2025", "7:00", "6:00", clinic.TimeSlot{}, clinic.ErrInvalidStart},

		{"empty slot", "04/10/2025", "9:00", "9:00", clinic.TimeSlot{}, clinic.ErrInvalidEnd},
		{"end in same hour", "04/10/2025", "16:00", "16:45", clinic.TimeSlot{}, clinic.ErrInvalidEnd},
		{"end after closing", "04/10/2025", "9:00", "18:00", clinic.TimeSlot{}, clinic.ErrInvalidEnd},
		{"end missing minutes", "04/10/2025", "9:00", "10", clinic.TimeSlot{}, clinic.ErrInvalidEnd},
		{"end minute out of range", "04/10/2025", "9:00", "10:75", clinic.TimeSlot{}, clinic.ErrInvalidEnd},
		{"end minute with sign", "04/10/2025", "9:00", "10:+5", clinic.TimeSlot{}, clinic.ErrInvalidEnd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, slot, err := clinic.ValidateSlot(tt.date, tt.start, tt.end)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if slot != tt.wantSlot {
				t.Errorf("expected slot %+v, got %+v", tt.wantSlot, slot)
			}
			if date.Hour() != 0 || date.Location() != time.UTC {
				t.Errorf("expected UTC midnight, got %v", date)
			}
		})
	}
}

func TestTimeSlot_String(t *testing.T) {
	tests := []struct {
		slot clinic.TimeSlot
		want string
	}{
		{clinic.TimeSlot{StartHour: 9, EndHour: 10}, "9:00-10:00"},
		{clinic.TimeSlot{StartHour: 14, EndHour: 15, EndMinute: 5}, "14:00-15:05"},
		{clinic.TimeSlot{StartHour: 8, EndHour: 17}, "8:00-17:00"},
	}
	for _, tt := range tests {
		if got := tt.slot.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseTimeSlot(t *testing.T) {
	slot, err := clinic.ParseTimeSlot("9:00-10:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot != (clinic.TimeSlot{StartHour: 9, EndHour: 10, EndMinute: 30}) {
		t.Errorf("unexpected slot %+v", slot)
	}

	for _, bad := range []string{"", "9:00", "9:00-", "9-10", "x:00-10:00"} {
		if _, err := clinic.ParseTimeSlot(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestTimeSlot_TextRoundTrip(t *testing.T) {
	in := clinic.TimeSlot{StartHour: 11, EndHour: 12, EndMinute: 15}
	text, err := in.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out clinic.TimeSlot
	if err := out.UnmarshalText(text); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("expected %+v, got %+v", in, out)
	}
}

func TestParseDate_EquivalentForms(t *testing.T) {
	a := mustDate(t, "04/01/2025")
	b := mustDate(t, "4/1/2025")
	if !a.Equal(b) {
		t.Errorf("expected %v == %v", a, b)
	}
	if a.Month() != time.April || a.Day() != 1 {
		t.Errorf("expected April 1, got %v", a)
	}
}
