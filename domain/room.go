package domain

type ChatRoom struct {
	ID      int    `json:"id"`
	IsGroup bool   `json:"isGroup"`
	Name    string `json:"name"`
}

// ChatRoomList is the payload pushed on a user's room-list channel
// whenever their set of rooms changes.
type ChatRoomList struct {
	ChatRoomList []ChatRoom `json:"chatRoomList"`
}

// RoomData bundles everything a client needs when opening a room view.
type RoomData struct {
	Users    []PublicUser `json:"users"`
	Messages []Message    `json:"messages"`
}

type RoomRequest struct {
	RoomID int `json:"roomId"`
}
