package domain

// User is the full account record. Pass carries the plain password on
// register/login requests and the Argon2id hash at rest; it is never
// serialized back to clients except through PublicUser.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Pass  string `json:"pass"`
}

// PublicUser is the identity shape exposed to other users.
type PublicUser struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name}
}
