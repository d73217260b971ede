package token

// Keys under which the session mirrors its tokens into durable storage
const (
	AccessTokenKey  = "token"
	RefreshTokenKey = "refreshToken"
)

// Store is durable key/value storage for session tokens.
// Get returns "" with a nil error when the key is absent.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Pair is the access/refresh token pair mirrored into a Store
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Load reads both tokens from s.
func Load(s Store) (Pair, error) {
	access, err := s.Get(AccessTokenKey)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.Get(RefreshTokenKey)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Save writes the non-empty tokens of p into s.
func Save(s Store, p Pair) error {
	if p.AccessToken != "" {
		if err := s.Set(AccessTokenKey, p.AccessToken); err != nil {
			return err
		}
	}
	if p.RefreshToken != "" {
		if err := s.Set(RefreshTokenKey, p.RefreshToken); err != nil {
			return err
		}
	}
	return nil
}

// Purge removes both tokens, attempting both removals even when the first fails.
func Purge(s Store) error {
	errAccess := s.Remove(AccessTokenKey)
	errRefresh := s.Remove(RefreshTokenKey)
	if errAccess != nil {
		return errAccess
	}
	return errRefresh
}
