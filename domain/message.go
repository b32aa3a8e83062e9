package domain

// Message is both the wire frame and the stored record. ID, IsRead and
// InsertedDate are assigned by the server on persistence; whatever a
// client sent in those fields is ignored.
type Message struct {
	ID           int    `json:"id"`
	UserID       int    `json:"userid"`
	ChatID       int    `json:"chatId"`
	IsRead       bool   `json:"isRead"`
	InsertedDate int64  `json:"insertedDate"`
	Text         string `json:"text"`
}
