package services

import (
	"context"
	"fmt"

	"chat-backend/contract"
	"chat-backend/domain"
	"chat-backend/errors"
	"chat-backend/moderation"
)

type IChatService interface {
	GetUsers() ([]domain.PublicUser, error)
	GetUserData(userID int) (domain.PublicUser, error)
	DeleteUser(userID int) error

	CreateRoom(caller domain.PublicUser, target domain.PublicUser) (int, error)
	GetRooms(userID int) (domain.ChatRoomList, error)
	GetRoomData(roomID, userID int) (domain.RoomData, error)
	DeleteRoom(roomID int) error

	PostMessage(message domain.Message) error
	DeleteMessage(message domain.Message) error
	SearchMessages(ctx context.Context, roomID, userID int, query string) ([]domain.Message, error)
}

// ChatService carries the request/response CRUD surface. Its only link
// into the realtime core is the broadcaster it notifies after a room is
// created.
type ChatService struct {
	users       contract.IUserRepository
	rooms       contract.IRoomRepository
	messages    contract.IMessageRepository
	broadcaster contract.IBroadcaster
	moderator   *moderation.Moderator
}

func NewChatService(users contract.IUserRepository, rooms contract.IRoomRepository,
	messages contract.IMessageRepository, broadcaster contract.IBroadcaster,
	moderator *moderation.Moderator) *ChatService {
	return &ChatService{
		users:       users,
		rooms:       rooms,
		messages:    messages,
		broadcaster: broadcaster,
		moderator:   moderator,
	}
}

func (s *ChatService) GetUsers() ([]domain.PublicUser, error) {
	return s.users.GetUsers()
}

func (s *ChatService) GetUserData(userID int) (domain.PublicUser, error) {
	return s.users.FindUserByID(userID)
}

func (s *ChatService) DeleteUser(userID int) error {
	return s.users.DeleteUser(userID)
}

// CreateRoom persists a two-person room and then notifies both
// participants' room-list channels through the broadcaster. The creation
// succeeds even when the push partially fails; fan-out is best effort.
func (s *ChatService) CreateRoom(caller domain.PublicUser, target domain.PublicUser) (int, error) {
	room := domain.ChatRoom{
		IsGroup: false,
		Name:    fmt.Sprintf("chat %s with %s", caller.Name, target.Name),
	}

	roomID, err := s.rooms.CreateRoom(room, []domain.PublicUser{caller, target})
	if err != nil {
		return 0, fmt.Errorf("create room: %w", err)
	}

	if err := s.broadcaster.OnRoomCreated(roomID, []int{caller.ID, target.ID}); err != nil {
		return roomID, fmt.Errorf("room %d created, notification incomplete: %w", roomID, err)
	}
	return roomID, nil
}

func (s *ChatService) GetRooms(userID int) (domain.ChatRoomList, error) {
	return s.rooms.GetRooms(userID)
}

// GetRoomData returns the room's participants and message history, after
// confirming the caller is a member.
func (s *ChatService) GetRoomData(roomID, userID int) (domain.RoomData, error) {
	member, err := s.rooms.CheckUserInRoom(roomID, userID)
	if err != nil {
		return domain.RoomData{}, err
	}
	if !member {
		return domain.RoomData{}, errors.ErrForbidden
	}

	users, err := s.rooms.GetRoomUserList(roomID)
	if err != nil {
		return domain.RoomData{}, err
	}
	messages, err := s.messages.GetRoomMessageList(roomID)
	if err != nil {
		return domain.RoomData{}, err
	}
	return domain.RoomData{Users: users, Messages: messages}, nil
}

func (s *ChatService) DeleteRoom(roomID int) error {
	return s.rooms.DeleteRoom(roomID)
}

// PostMessage is the request/response write path. It persists only; live
// sockets on the room are not notified here. Real-time delivery happens
// exclusively for frames arriving on an open room socket.
func (s *ChatService) PostMessage(message domain.Message) error {
	if s.moderator != nil {
		message.Text = s.moderator.Censor(message.Text)
	}
	_, err := s.messages.StoreMessage(message)
	return err
}

func (s *ChatService) DeleteMessage(message domain.Message) error {
	return s.messages.DeleteMessage(message)
}

// SearchMessages is member-only full-text search over one room.
func (s *ChatService) SearchMessages(ctx context.Context, roomID, userID int, query string) ([]domain.Message, error) {
	member, err := s.rooms.CheckUserInRoom(roomID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, errors.ErrForbidden
	}
	return s.messages.SearchMessages(ctx, roomID, query)
}
