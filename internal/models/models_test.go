package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBookingState(t *testing.T) {
	for _, token := range []string{"ALL", "CURRENT", "FUTURE", "PAST", "WAITING", "REJECTED"} {
		state, err := ParseBookingState(token)
		require.NoError(t, err)
		assert.Equal(t, BookingState(token), state)
	}

	state, err := ParseBookingState("")
	require.NoError(t, err)
	assert.Equal(t, StateAll, state)

	for _, token := range []string{"all", "Current", "UNSUPPORTED_STATUS", " ALL"} {
		_, err := ParseBookingState(token)
		var unsupported *UnsupportedStateError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, "Unknown state: "+token, err.Error())
	}
}

func TestPageOffset(t *testing.T) {
	tests := []struct {
		from, size, offset int
	}{
		{0, 10, 0},
		{5, 10, 0},
		{10, 10, 10},
		{7, 5, 5},
		{4, 2, 4},
		{3, 1, 3},
	}
	for _, tt := range tests {
		p := Page{From: tt.from, Size: tt.size}
		assert.Equal(t, tt.offset, p.Offset(), "from=%d size=%d", tt.from, tt.size)
		assert.Equal(t, tt.size, p.Limit())
	}

	assert.False(t, Page{From: -1, Size: 10}.Valid())
	assert.False(t, Page{From: 0, Size: 0}.Valid())
	assert.True(t, Page{From: 0, Size: 1}.Valid())
}

func TestDateTimeJSON(t *testing.T) {
	var d DateTime
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-01T10:30:00"`), &d))
	assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), d.Time)

	require.NoError(t, json.Unmarshal([]byte(`"2025-03-01T13:30:00+03:00"`), &d))
	assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), d.Time)

	assert.Error(t, json.Unmarshal([]byte(`"01.03.2025"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`12`), &d))

	out, err := json.Marshal(NewDateTime(time.Date(2025, 3, 1, 10, 30, 0, 999, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-01T10:30:00"`, string(out))

	out, err = json.Marshal(DateTime{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestPatchApply(t *testing.T) {
	name := "new"
	u := User{ID: 1, Name: "old", Email: "old@mail.com"}
	UserPatch{Name: &name}.Apply(&u)
	assert.Equal(t, "new", u.Name)
	assert.Equal(t, "old@mail.com", u.Email)

	available := false
	it := Item{Name: "drill", Description: "cordless", Available: true}
	ItemPatch{Available: &available}.Apply(&it)
	assert.Equal(t, "drill", it.Name)
	assert.Equal(t, "cordless", it.Description)
	assert.False(t, it.Available)
}

func TestBookingProjection(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	b := &Booking{
		ID: 3, Start: start, End: start.Add(time.Hour), Status: StatusWaiting,
		BookerID: 2, ItemID: 7, ItemName: "drill", ItemOwnerID: 1,
	}

	resp := NewBookingResponse(b)
	assert.Equal(t, BookingUserRef{ID: 2}, resp.Booker)
	assert.Equal(t, BookingItemRef{ID: 7, Name: "drill"}, resp.Item)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"start":"2025-01-01T10:00:00","end":"2025-01-01T11:00:00",
		"status":"WAITING","booker":{"id":2},"item":{"id":7,"name":"drill"}}`, string(raw))

	assert.True(t, b.IsParticipant(1))
	assert.True(t, b.IsParticipant(2))
	assert.False(t, b.IsParticipant(3))
	assert.Nil(t, NewBookingShort(nil))
}
