package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-backend/domain"
	"chat-backend/errors"
	"chat-backend/mocks"
)

func TestGate_AdmitRoom(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRooms := mocks.NewMockIRoomRepository(ctrl)
	gate := NewGate(mockRooms)

	t.Run("member is admitted to the room channel", func(t *testing.T) {
		req := require.New(t)
		mockRooms.EXPECT().CheckUserInRoom(42, 1).Return(true, nil).Times(1)

		principal, key, err := gate.AdmitRoom(&Claims{UserID: 1, Username: "alice"}, "42")

		req.NoError(err)
		req.Equal(Principal{UserID: 1, Username: "alice"}, principal)
		req.Equal(domain.RoomChannel(42), key)
	})

	t.Run("missing claims are rejected before any lookup", func(t *testing.T) {
		req := require.New(t)
		mockRooms.EXPECT().CheckUserInRoom(gomock.Any(), gomock.Any()).Times(0)

		_, _, err := gate.AdmitRoom(nil, "42")
		req.ErrorIs(err, errors.ErrUnauthenticated)
	})

	t.Run("claims without a user id are rejected", func(t *testing.T) {
		req := require.New(t)
		mockRooms.EXPECT().CheckUserInRoom(gomock.Any(), gomock.Any()).Times(0)

		_, _, err := gate.AdmitRoom(&Claims{Username: "alice"}, "42")
		req.ErrorIs(err, errors.ErrUnauthenticated)
	})

	t.Run("an unparseable room id is rejected before any lookup", func(t *testing.T) {
		req := require.New(t)
		mockRooms.EXPECT().CheckUserInRoom(gomock.Any(), gomock.Any()).Times(0)

		_, _, err := gate.AdmitRoom(&Claims{UserID: 1, Username: "alice"}, "not-a-number")
		req.ErrorIs(err, errors.ErrBadRoomID)
	})

	t.Run("a non-member is forbidden", func(t *testing.T) {
		req := require.New(t)
		mockRooms.EXPECT().CheckUserInRoom(42, 1).Return(false, nil).Times(1)

		_, _, err := gate.AdmitRoom(&Claims{UserID: 1, Username: "alice"}, "42")
		req.ErrorIs(err, errors.ErrForbidden)
	})

	t.Run("a lookup failure surfaces as-is", func(t *testing.T) {
		req := require.New(t)
		mockRooms.EXPECT().CheckUserInRoom(42, 1).Return(false, errors.ErrRoomNotFound).Times(1)

		_, _, err := gate.AdmitRoom(&Claims{UserID: 1, Username: "alice"}, "42")
		req.ErrorIs(err, errors.ErrRoomNotFound)
	})
}

func TestGate_AdmitRoomList(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRooms := mocks.NewMockIRoomRepository(ctrl)
	gate := NewGate(mockRooms)

	t.Run("the channel key comes from the principal", func(t *testing.T) {
		req := require.New(t)

		principal, key, err := gate.AdmitRoomList(&Claims{UserID: 7, Username: "bob"})

		req.NoError(err)
		req.Equal(7, principal.UserID)
		req.Equal(domain.UserRoomListChannel(7), key)
	})

	t.Run("missing claims are rejected", func(t *testing.T) {
		req := require.New(t)

		_, _, err := gate.AdmitRoomList(nil)
		req.ErrorIs(err, errors.ErrUnauthenticated)
	})
}
