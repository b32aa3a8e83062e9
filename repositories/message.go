package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"

	"chat-backend/domain"
	"chat-backend/errors"
)

// Key layout:
//
//	msg:<roomId>:<19-digit unixnano>:<id> -> JSON domain.Message
//	msgkey:<id>                           -> full msg key (for deletion)
//
// The zero-padded timestamp makes a forward prefix scan return messages
// in chronological order; the id suffix disambiguates same-nanosecond
// inserts.
const (
	messagePrefix    = "msg:"
	messageKeyPrefix = "msgkey:"
)

type MessageRepository struct {
	db          *badger.DB
	index       *bluge.Writer
	seq         *badger.Sequence
	log         *slog.Logger
	searchLimit int
}

func NewMessageRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger,
	searchLimit int) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:message"), 128)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, index: index, seq: seq, log: log, searchLimit: searchLimit}, nil
}

func (r *MessageRepository) Close() error {
	return r.seq.Release()
}

// StoreMessage persists the message with a server-assigned id and
// timestamp, forces isRead to false, and indexes the text for search.
// The returned value is the exact record that will be broadcast.
func (r *MessageRepository) StoreMessage(message domain.Message) (domain.Message, error) {
	next, err := r.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("next message id: %w", err)
	}
	now := time.Now()
	message.ID = int(next) + 1
	message.IsRead = false
	message.InsertedDate = now.UnixMilli()

	key := messageKey(message.ChatID, now.UnixNano(), message.ID)
	data, err := json.Marshal(message)
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal message: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), data); err != nil {
			return err
		}
		return txn.Set([]byte(messageKeyPrefix+strconv.Itoa(message.ID)), []byte(key))
	})
	if err != nil {
		return domain.Message{}, err
	}

	if err := r.indexMessage(message, data); err != nil {
		// The message is durable; a stale search index is acceptable.
		r.log.Warn("message indexing failed", "message", message.ID, "error", err)
	}
	return message, nil
}

// GetRoomMessageList returns a room's messages in insertion order.
func (r *MessageRepository) GetRoomMessageList(roomID int) ([]domain.Message, error) {
	messages := []domain.Message{}
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(fmt.Sprintf("%s%d:", messagePrefix, roomID))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var message domain.Message
				if err := json.Unmarshal(val, &message); err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

// SearchMessages runs a full-text match over one room's messages and
// returns the stored records of the best hits.
func (r *MessageRepository) SearchMessages(ctx context.Context, roomID int, query string) ([]domain.Message, error) {
	reader, err := r.index.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer reader.Close()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField("text")).
		AddMust(bluge.NewTermQuery(strconv.Itoa(roomID)).SetField("room"))

	it, err := reader.Search(ctx, bluge.NewTopNSearch(r.searchLimit, q))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	messages := []domain.Message{}
	for {
		match, err := it.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate search results: %w", err)
		}
		if match == nil {
			break
		}
		var message domain.Message
		var decodeErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "payload" {
				decodeErr = json.Unmarshal(value, &message)
				return false
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if decodeErr != nil {
			return nil, decodeErr
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// DeleteMessage removes the stored record and its index entry. Deleting
// an unknown message reports errors.ErrMessageNotFound.
func (r *MessageRepository) DeleteMessage(message domain.Message) error {
	idKey := []byte(messageKeyPrefix + strconv.Itoa(message.ID))
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(idKey)
		if err != nil {
			return err
		}
		var key []byte
		if err := item.Value(func(val []byte) error {
			key = append([]byte{}, val...)
			return nil
		}); err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(idKey)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrMessageNotFound
	}
	if err != nil {
		return err
	}

	if err := r.index.Delete(bluge.Identifier(strconv.Itoa(message.ID))); err != nil {
		r.log.Warn("message unindexing failed", "message", message.ID, "error", err)
	}
	return nil
}

func (r *MessageRepository) indexMessage(message domain.Message, payload []byte) error {
	doc := bluge.NewDocument(strconv.Itoa(message.ID)).
		AddField(bluge.NewTextField("text", message.Text)).
		AddField(bluge.NewKeywordField("room", strconv.Itoa(message.ChatID))).
		AddField(bluge.NewStoredOnlyField("payload", payload))
	return r.index.Update(doc.ID(), doc)
}

func messageKey(roomID int, unixNano int64, id int) string {
	return fmt.Sprintf("%s%d:%019d:%d", messagePrefix, roomID, unixNano, id)
}
