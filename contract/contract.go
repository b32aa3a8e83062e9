//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-backend/domain"
	"context"
)

type IUserRepository interface {
	AddUser(user domain.User) (int, error)
	FindUserByName(name string) (domain.User, error)
	FindUserByID(id int) (domain.PublicUser, error)
	GetUsers() ([]domain.PublicUser, error)
	DeleteUser(id int) error
}

type IRoomRepository interface {
	CreateRoom(room domain.ChatRoom, participants []domain.PublicUser) (int, error)
	GetRooms(userID int) (domain.ChatRoomList, error)
	GetRoomUserList(roomID int) ([]domain.PublicUser, error)
	CheckUserInRoom(roomID, userID int) (bool, error)
	DeleteRoom(roomID int) error
}

type IMessageRepository interface {
	StoreMessage(message domain.Message) (domain.Message, error)
	GetRoomMessageList(roomID int) ([]domain.Message, error)
	SearchMessages(ctx context.Context, roomID int, query string) ([]domain.Message, error)
	DeleteMessage(message domain.Message) error
}

// Session is the registry's view of one live connection: a non-blocking
// send and an idempotent close. A session belongs to exactly one channel
// key for its whole lifetime.
type Session interface {
	ID() string
	Send(payload []byte) error
	Close()
}

// IRegistry is the shared index from channel key to the set of sessions
// currently attached to it. All operations are safe under concurrent,
// uncoordinated callers.
type IRegistry interface {
	Register(key domain.ChannelKey, session Session)
	Unregister(key domain.ChannelKey, session Session)
	FanOut(key domain.ChannelKey, payload []byte)
	FanOutMany(payloads map[domain.ChannelKey][]byte)
}

// IBroadcaster reacts to the two live triggers: an inbound frame on a
// room socket and a room-creation event from the CRUD surface.
type IBroadcaster interface {
	OnInboundMessage(roomID int, rawFrame []byte) error
	OnRoomCreated(roomID int, participantIDs []int) error
}
