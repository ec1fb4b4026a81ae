package slot

import (
	"reflect"
	"testing"
	"time"

	"github.com/BruksfildServices01/barber-booking-engine/internal/models"
)

func uptr(v uint) *uint { return &v }

func appt(barber *uint, startHM string, minutes int) models.Appointment {
	start, _ := time.Parse(TimeLayout, startHM)
	s := monday.Add(time.Duration(start.Hour())*time.Hour + time.Duration(start.Minute())*time.Minute)
	return models.Appointment{
		BarberID:  barber,
		StartTime: s,
		EndTime:   s.Add(time.Duration(minutes) * time.Minute),
		Status:    "confirmed",
	}
}

func barbers(ids ...uint) []models.Barber {
	out := make([]models.Barber, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Barber{ID: id, Active: true})
	}
	return out
}

func TestBuildMarksBookedSlots(t *testing.T) {
	g := mustGrid(t)
	occ := Build(g, barbers(1, 2), nil, []models.Appointment{
		appt(uptr(1), "10:00", 60),
		appt(uptr(9), "10:00", 60), // fora do conjunto
	})

	if got := occ.Occupied(1); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("occupied(1) = %v", got)
	}
	if got := occ.Occupied(2); len(got) != 0 {
		t.Fatalf("occupied(2) = %v", got)
	}
	if !occ.Busy(1, 3, 1) || occ.Busy(1, 4, 1) {
		t.Fatal("busy boundaries wrong")
	}
	if occ.Load(1) != 1 || occ.Load(2) != 0 {
		t.Fatal("load wrong")
	}
	if got := occ.Free(2, 2); !reflect.DeepEqual(got, []uint{2}) {
		t.Fatalf("free = %v", got)
	}
}

func TestBuildWorkingHoursAndLunch(t *testing.T) {
	g := mustGrid(t)
	hours := []models.WorkingHours{
		{BarberID: 1, Weekday: int(time.Monday), StartTime: "10:00", EndTime: "18:00", LunchStart: "12:00", LunchEnd: "13:00", Active: true},
		{BarberID: 2, Weekday: int(time.Tuesday), StartTime: "09:00", EndTime: "20:00", Active: true},
	}
	occ := Build(g, barbers(1, 2, 3), hours, nil)

	if !occ.Busy(1, 0, 1) || !occ.Busy(1, 1, 1) {
		t.Error("before 10:00 should be blocked")
	}
	if occ.Busy(1, 2, 1) {
		t.Error("10:00 should be free")
	}
	lunch, _ := g.IndexOf("12:00")
	if !occ.Busy(1, lunch, 2) {
		t.Error("lunch should be blocked")
	}
	last, _ := g.IndexOf("18:00")
	if !occ.Busy(1, last, 1) {
		t.Error("18:00 should be blocked")
	}

	// só trabalha terça
	if len(occ.Occupied(2)) != g.Size() {
		t.Error("barber 2 should be off on monday")
	}

	// sem expediente configurado: segue a barbearia
	if len(occ.Occupied(3)) != 0 {
		t.Error("barber 3 should follow shop hours")
	}
}

func TestUnassignedCountsPerSlot(t *testing.T) {
	g := mustGrid(t)
	occ := Build(g, barbers(1, 2), nil, []models.Appointment{
		appt(nil, "10:00", 30),
		appt(nil, "10:00", 60),
	})

	if got := occ.Unassigned(2, 1); got != 2 {
		t.Fatalf("unassigned at 10:00 = %d", got)
	}
	if got := occ.Unassigned(2, 2); got != 2 {
		t.Fatalf("peak over range = %d", got)
	}
	if got := occ.Unassigned(3, 1); got != 1 {
		t.Fatalf("unassigned at 10:30 = %d", got)
	}
}

func TestAggregate(t *testing.T) {
	g := mustGrid(t)
	occ := Build(g, barbers(1, 2), nil, []models.Appointment{
		appt(uptr(1), "10:00", 30),
		appt(uptr(1), "11:00", 30),
		appt(uptr(2), "11:00", 30),
	})

	agg := occ.Aggregate(time.Time{})
	if len(agg) != g.Size() {
		t.Fatalf("len = %d", len(agg))
	}

	want := map[string]Status{
		"09:00": StatusOpen,
		"10:00": StatusLimited,
		"11:00": StatusFull,
		"11:30": StatusOpen,
	}
	for _, s := range agg {
		if w, ok := want[s.Start]; ok && s.Status != w {
			t.Errorf("%s: got %s, want %s", s.Start, s.Status, w)
		}
	}

	cut := monday.Add(10 * time.Hour)
	agg = occ.Aggregate(cut)
	if agg[0].Status != StatusFull || agg[2].Status == StatusOpen {
		t.Errorf("slots before cut should be full: %+v", agg[:3])
	}
}

func TestAggregateWithoutBarbers(t *testing.T) {
	g := mustGrid(t)
	occ := Build(g, nil, nil, nil)
	for _, s := range occ.Aggregate(time.Time{}) {
		if s.Status != StatusFull {
			t.Fatalf("%s should be full", s.Start)
		}
	}
}

func TestStartsFor(t *testing.T) {
	g := mustGrid(t)
	occ := Build(g, barbers(1), nil, []models.Appointment{appt(uptr(1), "09:30", 30)})

	starts := occ.StartsFor(1, 2, time.Time{})
	if len(starts) == 0 || starts[0] != 2 {
		t.Fatalf("first start = %v", starts)
	}
	if starts[len(starts)-1] != g.Size()-2 {
		t.Fatalf("last start = %d", starts[len(starts)-1])
	}
}
