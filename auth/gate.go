package auth

import (
	"fmt"
	"strconv"

	"chat-backend/contract"
	"chat-backend/domain"
	"chat-backend/errors"
)

// Principal is the authenticated identity attached to an admitted
// connection.
type Principal struct {
	UserID   int
	Username string
}

// Gate decides whether a connection-upgrade request may attach to a
// channel. It is a pure decision over the pre-validated claims plus one
// membership lookup; it never registers sessions or sends payloads.
type Gate struct {
	rooms contract.IRoomRepository
}

func NewGate(rooms contract.IRoomRepository) *Gate {
	return &Gate{rooms: rooms}
}

// AdmitRoom authorizes a live connection to one chat room. roomParam is
// the raw path parameter. Rejections map to errors.ErrUnauthenticated,
// errors.ErrBadRoomID or errors.ErrForbidden.
func (g *Gate) AdmitRoom(claims *Claims, roomParam string) (Principal, domain.ChannelKey, error) {
	principal, err := principalFrom(claims)
	if err != nil {
		return Principal{}, domain.ChannelKey{}, err
	}

	roomID, err := strconv.Atoi(roomParam)
	if err != nil {
		return Principal{}, domain.ChannelKey{}, fmt.Errorf("%w: %q", errors.ErrBadRoomID, roomParam)
	}

	member, err := g.rooms.CheckUserInRoom(roomID, principal.UserID)
	if err != nil {
		return Principal{}, domain.ChannelKey{}, fmt.Errorf("membership lookup: %w", err)
	}
	if !member {
		return Principal{}, domain.ChannelKey{}, errors.ErrForbidden
	}

	return principal, domain.RoomChannel(roomID), nil
}

// AdmitRoomList authorizes a connection to the caller's own room-list
// feed. The channel key is always derived from the principal; no
// client-supplied parameter is accepted.
func (g *Gate) AdmitRoomList(claims *Claims) (Principal, domain.ChannelKey, error) {
	principal, err := principalFrom(claims)
	if err != nil {
		return Principal{}, domain.ChannelKey{}, err
	}
	return principal, domain.UserRoomListChannel(principal.UserID), nil
}

func principalFrom(claims *Claims) (Principal, error) {
	if claims == nil || claims.UserID <= 0 {
		return Principal{}, errors.ErrUnauthenticated
	}
	return Principal{UserID: claims.UserID, Username: claims.Username}, nil
}
