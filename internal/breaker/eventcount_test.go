package breaker

import "testing"

func TestEventCountTotal(t *testing.T) {
	c := EventCount{Success: 3, Failure: 2}
	if got := c.Total(); got != 5 {
		t.Fatalf("Total() = %d, want 5", got)
	}
}

func TestEventCountFailureRate(t *testing.T) {
	tests := []struct {
		name string
		c    EventCount
		want float64
	}{
		{"zero", EventCount{}, 0},
		{"all success", EventCount{Success: 10}, 0},
		{"all failure", EventCount{Failure: 10}, 1},
		{"half", EventCount{Success: 5, Failure: 5}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.FailureRate(); got != tt.want {
				t.Errorf("FailureRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventCountZeroEquality(t *testing.T) {
	if EventCountZero != (EventCount{}) {
		t.Fatalf("EventCountZero should equal the EventCount zero value")
	}
	if (EventCount{Success: 1}) == EventCountZero {
		t.Fatalf("EventCount{Success: 1} should not equal EventCountZero")
	}
}
