package schedule

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

type fakeOccupancy struct {
	count    int
	taken    []TimeLabel
	countErr error
	calls    int
}

func (f *fakeOccupancy) CountActive() (int, error) {
	f.calls++
	return f.count, f.countErr
}

func (f *fakeOccupancy) TakenSlots() ([]TimeLabel, error) {
	f.calls++
	return f.taken, nil
}

// 2030-01-07 is a Monday.
var monday = time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)

func mondayTemplate(labels ...TimeLabel) Availability {
	return Availability{Days: []DayAvailability{{Day: Monday, TimeSlots: labels}}}
}

func TestResolve(t *testing.T) {
	type args struct {
		availability Availability
		date         time.Time
		occupancy    *fakeOccupancy
		maxPerDay    int
	}
	tests := []struct {
		name       string
		args       args
		want       []TimeLabel
		wantReason string
		wantCalls  int
	}{
		{
			name: "should return no slots when the doctor does not work on the weekday",
			args: args{
				availability: mondayTemplate("09:00", "09:30"),
				date:         monday.AddDate(0, 0, 1),
				occupancy:    &fakeOccupancy{},
				maxPerDay:    15,
			},
			want:       []TimeLabel{},
			wantReason: ReasonNotWorkingDay,
		},
		{
			name: "should return no slots on weekends",
			args: args{
				availability: mondayTemplate("09:00"),
				date:         monday.AddDate(0, 0, -1),
				occupancy:    &fakeOccupancy{},
				maxPerDay:    15,
			},
			want:       []TimeLabel{},
			wantReason: ReasonNotWorkingDay,
		},
		{
			name: "should return no slots on a blocked date even with an open template",
			args: args{
				availability: Availability{
					Days:         []DayAvailability{{Day: Monday, TimeSlots: []TimeLabel{"09:00"}}},
					BlockedDates: []time.Time{monday.Add(13 * time.Hour)},
				},
				date:      monday,
				occupancy: &fakeOccupancy{},
				maxPerDay: 15,
			},
			want:       []TimeLabel{},
			wantReason: ReasonBlockedDate,
		},
		{
			name: "should return no slots when the daily cap is reached",
			args: args{
				availability: mondayTemplate("09:00", "09:30", "10:00"),
				date:         monday,
				occupancy:    &fakeOccupancy{count: 2, taken: []TimeLabel{"09:00", "09:30"}},
				maxPerDay:    2,
			},
			want:       []TimeLabel{},
			wantReason: ReasonDailyCap,
			wantCalls:  1,
		},
		{
			name: "should exclude taken slots preserving the template order",
			args: args{
				availability: mondayTemplate("10:00", "09:00", "11:30", "09:30"),
				date:         monday.Add(17 * time.Hour),
				occupancy:    &fakeOccupancy{count: 2, taken: []TimeLabel{"11:30", "10:00"}},
				maxPerDay:    15,
			},
			want:      []TimeLabel{"09:00", "09:30"},
			wantCalls: 2,
		},
		{
			name: "should return every slot when nothing is booked",
			args: args{
				availability: mondayTemplate("09:00"),
				date:         monday,
				occupancy:    &fakeOccupancy{},
				maxPerDay:    15,
			},
			want:      []TimeLabel{"09:00"},
			wantCalls: 2,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(tt.args.availability, tt.args.date, tt.args.occupancy, tt.args.maxPerDay)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if !reflect.DeepEqual(got.Available, tt.want) {
				t.Errorf("Resolve() available = %v, want %v", got.Available, tt.want)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Resolve() reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if tt.args.occupancy.calls != tt.wantCalls {
				t.Errorf("Resolve() occupancy calls = %d, want %d", tt.args.occupancy.calls, tt.wantCalls)
			}
			if got.Remaining != len(got.Available) {
				t.Errorf("Resolve() remaining = %d, want %d", got.Remaining, len(got.Available))
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	availability := mondayTemplate("09:00", "09:30", "10:00")
	occupancy := &fakeOccupancy{count: 1, taken: []TimeLabel{"09:30"}}
	first, err := Resolve(availability, monday, occupancy, 15)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Resolve(availability, monday, occupancy, 15)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Resolve() is not idempotent, got %+v and %+v", first, second)
	}
}

func TestResolveOccupancyError(t *testing.T) {
	occupancy := &fakeOccupancy{countErr: errors.New("connection refused")}
	if _, err := Resolve(mondayTemplate("09:00"), monday, occupancy, 15); err == nil {
		t.Error("Resolve() expected an error")
	}
}

func TestRefusalReason(t *testing.T) {
	availability := mondayTemplate("09:00", "09:30")
	resolution, _ := Resolve(availability, monday, &fakeOccupancy{count: 1, taken: []TimeLabel{"09:30"}}, 15)
	tests := []struct {
		name  string
		label TimeLabel
		want  string
	}{
		{name: "should accept an open slot", label: "09:00", want: ""},
		{name: "should refuse a taken slot", label: "09:30", want: ReasonSlotTaken},
		{name: "should refuse a slot outside the template", label: "10:00", want: ReasonNotOffered},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RefusalReason(availability, resolution, tt.label); got != tt.want {
				t.Errorf("RefusalReason() = %q, want %q", got, tt.want)
			}
		})
	}
}
