package x11

import "testing"

func TestPickMonitor(t *testing.T) {
	monitors := []Monitor{
		{ID: 0, Name: "DP-1", X: 0, Y: 0, Width: 2560, Height: 1440},
		{ID: 1, Name: "HDMI-A-1", X: 2560, Y: 0, Width: 1920, Height: 1080, Primary: true},
	}

	tests := []struct {
		name        string
		output      string
		px, py      int
		havePointer bool
		wantID      int
	}{
		{name: "name match wins", output: "DP-1", px: 3000, py: 10, havePointer: true, wantID: 0},
		{name: "pointer", output: "eDP-9", px: 100, py: 100, havePointer: true, wantID: 0},
		{name: "primary without pointer", wantID: 1},
		{name: "pointer outside all", px: -5, py: -5, havePointer: true, wantID: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PickMonitor(monitors, tt.output, tt.px, tt.py, tt.havePointer)
			if got == nil || got.ID != tt.wantID {
				t.Fatalf("PickMonitor() = %+v, want ID %d", got, tt.wantID)
			}
		})
	}
}

func TestPickMonitor_FirstWhenNoPrimary(t *testing.T) {
	monitors := []Monitor{{ID: 3, Width: 800, Height: 600}, {ID: 4, Width: 800, Height: 600}}
	if got := PickMonitor(monitors, "", 0, 0, false); got == nil || got.ID != 3 {
		t.Fatalf("PickMonitor() = %+v, want ID 3", got)
	}
	if got := PickMonitor(nil, "", 0, 0, false); got != nil {
		t.Fatalf("PickMonitor(nil) = %+v, want nil", got)
	}
}

func TestNewConnection_NoDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	if _, err := NewConnection(); err != ErrNoDisplay {
		t.Fatalf("NewConnection() err = %v, want ErrNoDisplay", err)
	}
}
