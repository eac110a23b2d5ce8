package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceFromEvents(t *testing.T) {
	events := []OutputEvent{
		{Author: "user", Segments: []string{"I need to book a flight"}},
		{Author: "central_coordinator", Segments: []string{"Routing to travel.", "[ROUTED_TO: travel_agent]"}},
		{Author: "travel_agent", Segments: []string{"Your flight request is being handled."}},
		{Author: "travel_agent", Segments: nil},
	}

	trace := TraceFromEvents(events, "user")

	assert.Equal(t, []string{"central_coordinator", "travel_agent", "travel_agent"}, trace.Path,
		"every non-excluded event author is recorded, repeats included")
	assert.Equal(t,
		"Routing to travel.\n[ROUTED_TO: travel_agent]\nYour flight request is being handled.",
		trace.Response,
		"segments join with newlines across events")
	assert.Equal(t, 2, trace.HopCount(), "repeated authors collapse in the hop count")
	assert.False(t, trace.IsEmpty())
}

func TestTraceFromEventsEmpty(t *testing.T) {
	trace := TraceFromEvents(nil)
	assert.True(t, trace.IsEmpty())
	assert.Equal(t, 0, trace.HopCount())
	assert.Empty(t, trace.Response)

	onlyUser := TraceFromEvents([]OutputEvent{{Author: "user", Segments: []string{"hello"}}}, "user")
	assert.True(t, onlyUser.IsEmpty(), "excluded authors leave the trace empty")
}

func TestHopCountBounds(t *testing.T) {
	tests := []struct {
		name string
		path []string
		want int
	}{
		{name: "empty", path: nil, want: 0},
		{name: "single node", path: []string{"hr_agent"}, want: 1},
		{name: "distinct nodes", path: []string{"central_coordinator", "hr_agent"}, want: 2},
		{name: "revisited node counts once", path: []string{"a", "b", "a", "c", "b"}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trace := DispatchTrace{Path: tt.path}
			got := trace.HopCount()
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got, len(tt.path), "hop count never exceeds trace length")
		})
	}
}

func TestOutputEventText(t *testing.T) {
	ev := OutputEvent{Author: "hr_agent", Segments: []string{"first", "second"}}
	assert.Equal(t, "first\nsecond", ev.Text())
	assert.Empty(t, OutputEvent{Author: "hr_agent"}.Text())
}
