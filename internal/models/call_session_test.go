package models

import "testing"

func TestBilledMinutes(t *testing.T) {
	cases := []struct {
		seconds int
		want    int
	}{
		{0, 0},
		{-5, 0},
		{1, 1},
		{59, 1},
		{60, 1},
		{61, 2},
		{119, 2},
		{120, 2},
		{125, 3},
		{3600, 60},
	}
	for _, c := range cases {
		if got := BilledMinutes(c.seconds); got != c.want {
			t.Errorf("BilledMinutes(%d) = %d, want %d", c.seconds, got, c.want)
		}
	}
}

func TestCostForUsesSnapshotRate(t *testing.T) {
	s := &CallSession{CostPerMinute: 1.5}
	if got := s.CostFor(61); got != 3 {
		t.Errorf("CostFor(61) at 1.5/min = %v, want 3", got)
	}
	if got := s.CostFor(0); got != 0 {
		t.Errorf("CostFor(0) = %v, want 0", got)
	}
}
