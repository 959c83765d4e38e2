package tokens

import (
	"fmt"
	"strconv"

	"github.com/desertthunder/upl/internal/models"
)

// Field names one of the persisted credential keys.
type Field string

const (
	AccessToken  Field = "access_token"
	RefreshToken Field = "refresh_token"
	Expiration   Field = "token_expiration"
)

// Fields lists every persisted key in write order.
var Fields = []Field{AccessToken, RefreshToken, Expiration}

// Store is durable key/value persistence for the credential. It holds no logic beyond get/set/clear.
type Store interface {
	// Set overwrites all three fields. Absent fields in cred are removed.
	Set(cred models.Credential) error

	// Get returns the stored value for field, or false when it is absent.
	Get(field Field) (string, bool, error)

	// Clear removes all three fields.
	Clear() error

	// Close releases the underlying handle.
	Close() error
}

// Load reads all three fields from s into a credential.
//
// An expiration that does not parse as an integer is treated as absent, which forces a refresh on next use.
func Load(s Store) (models.Credential, error) {
	var cred models.Credential

	access, ok, err := s.Get(AccessToken)
	if err != nil {
		return cred, err
	}
	if ok {
		cred.AccessToken = &access
	}

	refresh, ok, err := s.Get(RefreshToken)
	if err != nil {
		return cred, err
	}
	if ok {
		cred.RefreshToken = &refresh
	}

	raw, ok, err := s.Get(Expiration)
	if err != nil {
		return cred, err
	}
	if ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cred.ExpiresAt = &ms
		}
	}

	return cred, nil
}

// values flattens cred into the persisted string layout, with nil meaning "delete this key".
func values(cred models.Credential) map[Field]*string {
	out := map[Field]*string{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Expiration:   nil,
	}
	if cred.ExpiresAt != nil {
		v := strconv.FormatInt(*cred.ExpiresAt, 10)
		out[Expiration] = &v
	}
	return out
}

func validField(field Field) error {
	switch field {
	case AccessToken, RefreshToken, Expiration:
		return nil
	default:
		return fmt.Errorf("unknown token field %q", field)
	}
}
