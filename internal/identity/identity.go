// Package identity supplies the current actor's display name. Mutating calls
// require it; the rest of the system treats it as an opaque string.
package identity

import "errors"

// ErrNoIdentity is returned when no actor name has been configured.
var ErrNoIdentity = errors.New("no actor identity configured")

// Provider supplies the current actor's display name on demand.
type Provider interface {
	Nickname() (string, error)
}

// Static is a fixed-name Provider.
type Static string

// Nickname implements Provider. An empty name fails fast.
func (s Static) Nickname() (string, error) {
	if s == "" {
		return "", ErrNoIdentity
	}
	return string(s), nil
}
