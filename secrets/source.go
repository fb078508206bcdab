package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/alphadose/haxmap"
)

// Source resolves a named credential. Implementations must treat a
// missing credential as an error, never as an empty value.
type Source interface {
	Require(name string) (string, error)
}

// MissingCredentialError reports an unresolvable credential. It is a
// configuration error: fatal for the provider being dispatched to, and
// irrelevant for every other provider.
type MissingCredentialError struct {
	Name string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential %q", e.Name)
}

// Env resolves credentials from the process environment.
type Env struct{}

// Require returns the environment value for name, or a
// MissingCredentialError when unset or blank.
func (Env) Require(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", &MissingCredentialError{Name: name}
	}
	return value, nil
}

// Static resolves credentials from a fixed map, for tests and
// deployments that inject credentials directly.
type Static map[string]string

// Require returns the mapped value or a MissingCredentialError.
func (s Static) Require(name string) (string, error) {
	if value, ok := s[name]; ok && value != "" {
		return value, nil
	}
	return "", &MissingCredentialError{Name: name}
}

// Memoized caches successful lookups from an underlying source so a
// credential is resolved at most once per process. Failed lookups are
// not cached: a credential added to the environment later should be
// picked up on the next dispatch.
type Memoized struct {
	next     Source
	resolved *haxmap.Map[string, string]
}

// Memoize wraps next with a per-name memo.
func Memoize(next Source) *Memoized {
	return &Memoized{
		next:     next,
		resolved: haxmap.New[string, string](),
	}
}

// Require returns the memoized credential or resolves it through the
// underlying source.
func (m *Memoized) Require(name string) (string, error) {
	if value, ok := m.resolved.Get(name); ok {
		return value, nil
	}
	value, err := m.next.Require(name)
	if err != nil {
		return "", err
	}
	value, _ = m.resolved.GetOrCompute(name, func() string { return value })
	return value, nil
}
