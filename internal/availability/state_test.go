package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleGroups = []ShiftGroup{
	{ShiftType: "morning", Slots: []TimeSlot{{"09:00:00", "10:00:00"}, {"11:30:00", "12:30:00"}}},
	{ShiftType: "afternoon", Slots: []TimeSlot{{"13:30:00", "14:30:00"}}},
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindEmpty, Classify(Result{}).Kind())
	assert.Equal(t, KindReady, Classify(Result{ShiftGroups: sampleGroups}).Kind())

	// Holiday wins even when the backend also sent slots.
	s := Classify(Result{IsHoliday: true, ShiftGroups: sampleGroups})
	holiday, ok := s.(Holiday)
	require.True(t, ok)
	assert.Nil(t, holiday.Info)
	assert.Empty(t, BookableGroups(s))
}

func TestInitialShiftTab(t *testing.T) {
	tab, ok := InitialShiftTab(Ready{Groups: sampleGroups})
	assert.True(t, ok)
	assert.Equal(t, "morning", tab)

	for _, s := range []State{Empty{}, Holiday{}, Loading{}} {
		_, ok := InitialShiftTab(s)
		assert.False(t, ok, string(s.Kind()))
	}
}

func TestFindGroupAndLabels(t *testing.T) {
	g, ok := FindGroup(sampleGroups, " Afternoon ")
	require.True(t, ok)
	assert.Equal(t, "afternoon", g.ShiftType)
	_, ok = FindGroup(sampleGroups, "evening")
	assert.False(t, ok)

	morning, _ := FindGroup(sampleGroups, "morning")
	assert.Equal(t, []string{"09:00 AM", "11:30 AM"}, Labels(morning))
}

func TestSlotForLabel(t *testing.T) {
	afternoon, _ := FindGroup(sampleGroups, "afternoon")
	slot, ok := SlotForLabel(afternoon, "01:30 pm")
	require.True(t, ok)
	assert.Equal(t, TimeSlot{StartTime: "13:30:00", EndTime: "14:30:00"}, slot)

	_, ok = SlotForLabel(afternoon, "09:00 AM")
	assert.False(t, ok)
}
