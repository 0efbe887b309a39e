package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomsJoinAndLeave(t *testing.T) {
	r := NewRooms()

	r.Join("chat1", "c1")
	r.Join("chat1", "c2")
	assert.ElementsMatch(t, []string{"c1", "c2"}, r.Viewers("chat1"))

	r.Leave("chat1", "c1")
	assert.Equal(t, []string{"c2"}, r.Viewers("chat1"))

	r.Leave("chat1", "c2")
	assert.Empty(t, r.Viewers("chat1"))
}

func TestRoomsLeaveAbsentIsNoop(t *testing.T) {
	r := NewRooms()

	r.Leave("chat1", "c1")
	assert.Empty(t, r.Viewers("chat1"))

	r.Join("chat1", "c1")
	r.Leave("chat1", "other")
	assert.Equal(t, []string{"c1"}, r.Viewers("chat1"))
}

func TestRoomsMembershipIsPerConnection(t *testing.T) {
	r := NewRooms()

	// Same user from two devices contributes two entries.
	r.Join("chat1", "alice-phone")
	r.Join("chat1", "alice-laptop")

	r.Leave("chat1", "alice-phone")
	assert.Equal(t, []string{"alice-laptop"}, r.Viewers("chat1"))
}
