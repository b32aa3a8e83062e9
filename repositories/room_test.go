package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chat-backend/domain"
)

var (
	alice = domain.PublicUser{ID: 1, Name: "alice"}
	bob   = domain.PublicUser{ID: 2, Name: "bob"}
)

func Test_CreateRoom_And_GetRooms_For_Each_Participant(t *testing.T) {
	req := require.New(t)
	repository, err := NewRoomRepository(testDB(t))
	req.NoError(err)
	defer repository.Close()

	// When creating a two-person room
	roomID, err := repository.CreateRoom(
		domain.ChatRoom{Name: "chat alice with bob"},
		[]domain.PublicUser{alice, bob},
	)
	req.NoError(err)
	req.Equal(1, roomID)

	// Then both participants see it in their room list
	expected := domain.ChatRoomList{ChatRoomList: []domain.ChatRoom{
		{ID: roomID, IsGroup: false, Name: "chat alice with bob"},
	}}
	for _, userID := range []int{alice.ID, bob.ID} {
		rooms, err := repository.GetRooms(userID)
		req.NoError(err)
		req.Equal(expected, rooms)
	}

	// And nobody else does
	rooms, err := repository.GetRooms(99)
	req.NoError(err)
	req.Empty(rooms.ChatRoomList)
}

func Test_GetRooms_With_No_Memberships_Is_An_Empty_List(t *testing.T) {
	req := require.New(t)
	repository, err := NewRoomRepository(testDB(t))
	req.NoError(err)
	defer repository.Close()

	rooms, err := repository.GetRooms(1)
	req.NoError(err)
	req.NotNil(rooms.ChatRoomList)
	req.Empty(rooms.ChatRoomList)
}

func Test_GetRooms_Does_Not_Mix_Users_With_A_Shared_ID_Prefix(t *testing.T) {
	req := require.New(t)
	repository, err := NewRoomRepository(testDB(t))
	req.NoError(err)
	defer repository.Close()

	user1 := domain.PublicUser{ID: 1, Name: "one"}
	user11 := domain.PublicUser{ID: 11, Name: "eleven"}
	_, err = repository.CreateRoom(domain.ChatRoom{Name: "only for eleven"}, []domain.PublicUser{user11})
	req.NoError(err)

	rooms, err := repository.GetRooms(user1.ID)
	req.NoError(err)
	req.Empty(rooms.ChatRoomList)
}

func Test_CheckUserInRoom(t *testing.T) {
	req := require.New(t)
	repository, err := NewRoomRepository(testDB(t))
	req.NoError(err)
	defer repository.Close()

	roomID, err := repository.CreateRoom(domain.ChatRoom{Name: "room"}, []domain.PublicUser{alice})
	req.NoError(err)

	member, err := repository.CheckUserInRoom(roomID, alice.ID)
	req.NoError(err)
	req.True(member)

	member, err = repository.CheckUserInRoom(roomID, bob.ID)
	req.NoError(err)
	req.False(member)

	member, err = repository.CheckUserInRoom(999, alice.ID)
	req.NoError(err)
	req.False(member)
}

func Test_GetRoomUserList(t *testing.T) {
	req := require.New(t)
	repository, err := NewRoomRepository(testDB(t))
	req.NoError(err)
	defer repository.Close()

	roomID, err := repository.CreateRoom(domain.ChatRoom{Name: "room"}, []domain.PublicUser{alice, bob})
	req.NoError(err)

	users, err := repository.GetRoomUserList(roomID)
	req.NoError(err)
	req.ElementsMatch([]domain.PublicUser{alice, bob}, users)
}

func Test_DeleteRoom_Removes_The_Room_And_Its_Memberships(t *testing.T) {
	req := require.New(t)
	repository, err := NewRoomRepository(testDB(t))
	req.NoError(err)
	defer repository.Close()

	roomID, err := repository.CreateRoom(domain.ChatRoom{Name: "doomed"}, []domain.PublicUser{alice, bob})
	req.NoError(err)

	req.NoError(repository.DeleteRoom(roomID))

	member, err := repository.CheckUserInRoom(roomID, alice.ID)
	req.NoError(err)
	req.False(member)

	rooms, err := repository.GetRooms(alice.ID)
	req.NoError(err)
	req.Empty(rooms.ChatRoomList)

	users, err := repository.GetRoomUserList(roomID)
	req.NoError(err)
	req.Empty(users)
}
