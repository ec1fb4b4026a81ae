package handlers

import "testing"

func TestValidateWorkingDay(t *testing.T) {
	cases := []struct {
		name string
		day  WorkingDayConfig
		ok   bool
	}{
		{"inactive needs nothing", WorkingDayConfig{Weekday: 1}, true},
		{"full day", WorkingDayConfig{Weekday: 1, Active: true, StartTime: "09:00", EndTime: "18:00"}, true},
		{"with lunch", WorkingDayConfig{Weekday: 1, Active: true, StartTime: "09:00", EndTime: "18:00", LunchStart: "12:00", LunchEnd: "13:00"}, true},
		{"end before start", WorkingDayConfig{Weekday: 1, Active: true, StartTime: "18:00", EndTime: "09:00"}, false},
		{"bad format", WorkingDayConfig{Weekday: 1, Active: true, StartTime: "9", EndTime: "18:00"}, false},
		{"lunch outside", WorkingDayConfig{Weekday: 1, Active: true, StartTime: "09:00", EndTime: "18:00", LunchStart: "18:00", LunchEnd: "19:00"}, false},
		{"half lunch", WorkingDayConfig{Weekday: 1, Active: true, StartTime: "09:00", EndTime: "18:00", LunchStart: "12:00"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateWorkingDay(tc.day)
			if (err == nil) != tc.ok {
				t.Fatalf("err = %v, want ok=%v", err, tc.ok)
			}
		})
	}
}
