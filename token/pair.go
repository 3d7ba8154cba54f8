package token

// Kind tells access and refresh tokens apart. It is embedded in every token
// as the token_use claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Pair is the access and refresh token issued together by one login or refresh.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IsZero reports whether neither token is held.
func (p Pair) IsZero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Identity is the part of a user the issuer embeds as claims.
type Identity struct {
	ID    string
	Name  string
	Email string
}
