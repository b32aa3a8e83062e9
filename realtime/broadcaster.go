package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"chat-backend/contract"
	"chat-backend/domain"
	"chat-backend/moderation"
)

// Broadcaster reacts to the two live triggers: an inbound chat frame on a
// room socket, and a room-creation event from the CRUD surface. It
// persists first and fans out second; nothing unpersisted is ever
// broadcast.
type Broadcaster struct {
	registry  contract.IRegistry
	rooms     contract.IRoomRepository
	messages  contract.IMessageRepository
	moderator *moderation.Moderator
	log       *slog.Logger
}

func NewBroadcaster(registry contract.IRegistry, rooms contract.IRoomRepository,
	messages contract.IMessageRepository, moderator *moderation.Moderator,
	log *slog.Logger) *Broadcaster {
	return &Broadcaster{
		registry:  registry,
		rooms:     rooms,
		messages:  messages,
		moderator: moderator,
		log:       log,
	}
}

// OnInboundMessage handles one text frame received on a room socket.
// Unparseable frames are dropped silently; a best-effort live channel
// does not punish sloppy clients. On success the persisted message, with
// server-assigned id and timestamp, is fanned out to everyone on the
// room channel, sender included.
func (b *Broadcaster) OnInboundMessage(roomID int, rawFrame []byte) error {
	var msg domain.Message
	if err := json.Unmarshal(rawFrame, &msg); err != nil {
		b.log.Debug("dropping unparseable frame", "room", roomID)
		return nil
	}

	// The path parameter, not the frame, decides which room this is.
	msg.ChatID = roomID
	if b.moderator != nil {
		msg.Text = b.moderator.Censor(msg.Text)
	}

	stored, err := b.messages.StoreMessage(msg)
	if err != nil {
		return fmt.Errorf("store message for room %d: %w", roomID, err)
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode message %d: %w", stored.ID, err)
	}

	b.registry.FanOut(domain.RoomChannel(roomID), payload)
	return nil
}

// OnRoomCreated recomputes each participant's full room list and pushes
// it on that participant's room-list channel. Only the participants of
// this event are notified; a failure for one participant does not stop
// the others.
func (b *Broadcaster) OnRoomCreated(roomID int, participantIDs []int) error {
	payloads := make(map[domain.ChannelKey][]byte, len(participantIDs))
	var errs []error
	for _, userID := range participantIDs {
		roomList, err := b.rooms.GetRooms(userID)
		if err != nil {
			errs = append(errs, fmt.Errorf("room list for user %d: %w", userID, err))
			continue
		}
		payload, err := json.Marshal(roomList)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode room list for user %d: %w", userID, err))
			continue
		}
		payloads[domain.UserRoomListChannel(userID)] = payload
	}

	b.registry.FanOutMany(payloads)

	if len(errs) > 0 {
		return fmt.Errorf("room %d created: %w", roomID, errors.Join(errs...))
	}
	return nil
}
