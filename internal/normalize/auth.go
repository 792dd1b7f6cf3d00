package normalize

import "strings"

// TokenPair is the access/refresh credential pair minted by login and
// refresh endpoints, wherever in the payload the backend decided to put it.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LoginResult struct {
	TokenPair
	User LoginUser `json:"user"`
}

// Tokens extracts a token pair from a refresh or login payload. The pair may
// sit at the top level, under "data", or under a "tokens" block.
func Tokens(payload []byte) TokenPair {
	doc, ok := record(payload)
	if !ok {
		return TokenPair{}
	}

	data := object(doc, "data")
	tokens := data.Get("tokens")

	pair := TokenPair{
		AccessToken:  firstText(data, "accessToken"),
		RefreshToken: firstText(data, "refreshToken"),
	}
	if pair.AccessToken == "" {
		pair.AccessToken = firstText(doc, "accessToken")
	}
	if pair.AccessToken == "" && tokens.IsObject() {
		pair.AccessToken = firstText(tokens, "accessToken")
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = firstText(doc, "refreshToken")
	}
	if pair.RefreshToken == "" && tokens.IsObject() {
		pair.RefreshToken = firstText(tokens, "refreshToken")
	}
	return pair
}

// Login extracts the identity and token pair from a login payload. The
// identity used to authenticate backs every field the payload omits, so the
// result is always usable.
func Login(payload []byte, fallbackIdentity string) *LoginResult {
	doc, ok := record(payload)
	if !ok {
		return nil
	}

	data := object(doc, "data")
	user := data.Get("user")
	if !user.IsObject() {
		user = doc.Get("user")
	}
	tokens := data.Get("tokens")

	id := firstID(user, "id")
	if id == "" {
		id = firstID(data, "userId")
	}
	if id == "" {
		id = firstID(doc, "userId")
	}
	if id == "" {
		id = fallbackIdentity
	}

	name := firstText(user, "name", "fullName", "username")
	if name == "" {
		name, _, _ = strings.Cut(fallbackIdentity, "@")
		if name == "" {
			name = fallbackIdentity
		}
	}

	email := firstText(user, "email")
	if email == "" {
		email = fallbackIdentity
	}

	access := firstText(data, "accessToken")
	if access == "" {
		access = firstText(doc, "accessToken")
	}
	if access == "" && tokens.IsObject() {
		access = firstText(tokens, "accessToken")
	}
	if access == "" {
		access = firstText(data, "token")
	}

	refresh := firstText(data, "refreshToken")
	if refresh == "" {
		refresh = firstText(doc, "refreshToken")
	}
	if refresh == "" && tokens.IsObject() {
		refresh = firstText(tokens, "refreshToken")
	}

	return &LoginResult{
		TokenPair: TokenPair{AccessToken: access, RefreshToken: refresh},
		User:      LoginUser{ID: id, Name: name, Email: email},
	}
}
