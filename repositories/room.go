package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"chat-backend/domain"
)

// Key layout:
//
//	room:<id>                    -> JSON domain.ChatRoom
//	member:<userId>:<roomId>     -> empty (membership lookup + per-user scan)
//	roommember:<roomId>:<userId> -> JSON domain.PublicUser (per-room scan)
const (
	roomPrefix       = "room:"
	memberPrefix     = "member:"
	roomMemberPrefix = "roommember:"
)

type RoomRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

func NewRoomRepository(db *badger.DB) (*RoomRepository, error) {
	seq, err := db.GetSequence([]byte("seq:room"), 32)
	if err != nil {
		return nil, fmt.Errorf("room sequence: %w", err)
	}
	return &RoomRepository{db: db, seq: seq}, nil
}

func (r *RoomRepository) Close() error {
	return r.seq.Release()
}

// CreateRoom persists the room and the membership rows for every
// participant in one transaction, and returns the assigned room id.
func (r *RoomRepository) CreateRoom(room domain.ChatRoom, participants []domain.PublicUser) (int, error) {
	next, err := r.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next room id: %w", err)
	}
	room.ID = int(next) + 1

	data, err := json.Marshal(room)
	if err != nil {
		return 0, fmt.Errorf("marshal room: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(roomKey(room.ID)), data); err != nil {
			return err
		}
		for _, p := range participants {
			if err := txn.Set([]byte(memberKey(p.ID, room.ID)), nil); err != nil {
				return err
			}
			userData, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(roomMemberKey(room.ID, p.ID)), userData); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return room.ID, nil
}

// GetRooms returns every room the user is a member of. Memberships whose
// room row has been deleted are skipped.
func (r *RoomRepository) GetRooms(userID int) (domain.ChatRoomList, error) {
	rooms := []domain.ChatRoom{}
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(fmt.Sprintf("%s%d:", memberPrefix, userID))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			roomID := string(it.Item().Key()[len(prefix):])

			item, err := txn.Get([]byte(roomPrefix + roomID))
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				var room domain.ChatRoom
				if err := json.Unmarshal(val, &room); err != nil {
					return err
				}
				rooms = append(rooms, room)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.ChatRoomList{}, err
	}
	return domain.ChatRoomList{ChatRoomList: rooms}, nil
}

func (r *RoomRepository) GetRoomUserList(roomID int) ([]domain.PublicUser, error) {
	var users []domain.PublicUser
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(fmt.Sprintf("%s%d:", roomMemberPrefix, roomID))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var user domain.PublicUser
				if err := json.Unmarshal(val, &user); err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}

// CheckUserInRoom is a single point read on the membership row.
func (r *RoomRepository) CheckUserInRoom(roomID, userID int) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(memberKey(userID, roomID)))
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteRoom removes the room row and all of its membership rows.
func (r *RoomRepository) DeleteRoom(roomID int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(fmt.Sprintf("%s%d:", roomMemberPrefix, roomID))
		var memberKeys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			memberKeys = append(memberKeys, it.Item().KeyCopy(nil))

			var user domain.PublicUser
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			})
			if err != nil {
				return err
			}
			memberKeys = append(memberKeys, []byte(memberKey(user.ID, roomID)))
		}

		for _, key := range memberKeys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return txn.Delete([]byte(roomKey(roomID)))
	})
}

func roomKey(roomID int) string {
	return fmt.Sprintf("%s%d", roomPrefix, roomID)
}

func memberKey(userID, roomID int) string {
	return fmt.Sprintf("%s%d:%d", memberPrefix, userID, roomID)
}

func roomMemberKey(roomID, userID int) string {
	return fmt.Sprintf("%s%d:%d", roomMemberPrefix, roomID, userID)
}
