// Package domain contains the core concepts of the chat system: users,
// rooms, messages and the channel keys the realtime layer fans out on.
package domain

import "fmt"

// ChannelKind discriminates the two fan-out group families.
type ChannelKind int

const (
	// KindRoom groups every live socket opened on one chat room.
	KindRoom ChannelKind = iota
	// KindUserRoomList groups a single user's room-list sockets.
	KindUserRoomList
)

func (k ChannelKind) String() string {
	switch k {
	case KindRoom:
		return "room"
	case KindUserRoomList:
		return "user_room_list"
	default:
		return "unknown"
	}
}

// ChannelKey identifies one fan-out group. It is comparable so the
// registry can use it directly as a map key.
type ChannelKey struct {
	Kind ChannelKind
	ID   int
}

func (k ChannelKey) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.ID)
}

// RoomChannel is the key for the live sockets of one chat room.
func RoomChannel(roomID int) ChannelKey {
	return ChannelKey{Kind: KindRoom, ID: roomID}
}

// UserRoomListChannel is the key for one user's room-list feed. The id is
// always the caller's own principal id, never a client-supplied value.
func UserRoomListChannel(userID int) ChannelKey {
	return ChannelKey{Kind: KindUserRoomList, ID: userID}
}
