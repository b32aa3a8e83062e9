//go:generate go run go.uber.org/mock/mockgen -source=../contract/contract.go -destination=../mocks/mock_contract.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"chat-backend/domain"
	"chat-backend/errors"
)

// Key layout:
//
//	user:name:<name> -> JSON domain.User (password hashed)
//	user:id:<id>     -> name
//
// Names are unique; the id key exists for principal lookups.
const (
	userNamePrefix = "user:name:"
	userIDPrefix   = "user:id:"
)

type UserRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

func NewUserRepository(db *badger.DB) (*UserRepository, error) {
	seq, err := db.GetSequence([]byte("seq:user"), 32)
	if err != nil {
		return nil, fmt.Errorf("user sequence: %w", err)
	}
	return &UserRepository{db: db, seq: seq}, nil
}

// Close releases the id sequence lease.
func (r *UserRepository) Close() error {
	return r.seq.Release()
}

// AddUser persists a new user and returns the assigned id. The caller is
// expected to have hashed the password already.
func (r *UserRepository) AddUser(user domain.User) (int, error) {
	next, err := r.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next user id: %w", err)
	}
	user.ID = int(next) + 1

	data, err := json.Marshal(user)
	if err != nil {
		return 0, fmt.Errorf("marshal user: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte(userNamePrefix + user.Name)
		if _, err := txn.Get(nameKey); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(nameKey, data); err != nil {
			return err
		}
		return txn.Set([]byte(userIDPrefix+strconv.Itoa(user.ID)), []byte(user.Name))
	})
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (r *UserRepository) FindUserByName(name string) (domain.User, error) {
	var user domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userNamePrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrUserNotFound
	}
	return user, err
}

func (r *UserRepository) FindUserByID(id int) (domain.PublicUser, error) {
	var name string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userIDPrefix + strconv.Itoa(id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			name = string(val)
			return nil
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.PublicUser{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.PublicUser{}, err
	}

	user, err := r.FindUserByName(name)
	if err != nil {
		return domain.PublicUser{}, err
	}
	return user.Public(), nil
}

func (r *UserRepository) GetUsers() ([]domain.PublicUser, error) {
	var users []domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(userNamePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var user domain.User
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
	if err != nil {
		return nil, err
	}

	return lo.Map(users, func(u domain.User, _ int) domain.PublicUser {
		return u.Public()
	}), nil
}

func (r *UserRepository) DeleteUser(id int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		idKey := []byte(userIDPrefix + strconv.Itoa(id))
		item, err := txn.Get(idKey)
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var name string
		if err := item.Value(func(val []byte) error {
			name = string(val)
			return nil
		}); err != nil {
			return err
		}

		if err := txn.Delete([]byte(userNamePrefix + name)); err != nil {
			return err
		}
		return txn.Delete(idKey)
	})
}
