package auth

import (
	"bufio"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// CredentialsEnv names the environment variable holding a comma-separated
// list of user:password pairs. When set it takes precedence over a file.
const CredentialsEnv = "MEMORIA_CREDENTIALS"

// ErrNoCredentials is returned when a source yields no usable pairs.
var ErrNoCredentials = errors.New("no credentials configured")

// CredentialStore verifies against a set of user:password pairs.
type CredentialStore struct {
	mu    sync.RWMutex
	users map[string]string
}

// NewCredentialStore loads pairs from MEMORIA_CREDENTIALS if set, otherwise
// from the file at path (one user:password per line, # comments allowed).
func NewCredentialStore(path string) (*CredentialStore, error) {
	cs := &CredentialStore{users: make(map[string]string)}

	if env := os.Getenv(CredentialsEnv); env != "" {
		for i, entry := range strings.Split(env, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			if err := cs.add(entry); err != nil {
				return nil, fmt.Errorf("%s entry %d: %w", CredentialsEnv, i+1, err)
			}
		}
		if len(cs.users) == 0 {
			return nil, fmt.Errorf("%s is set: %w", CredentialsEnv, ErrNoCredentials)
		}
		return cs, nil
	}

	if path == "" {
		return nil, fmt.Errorf("no credentials file path and %s is not set: %w", CredentialsEnv, ErrNoCredentials)
	}

	if err := cs.loadFile(path); err != nil {
		return nil, fmt.Errorf("load credentials file: %w", err)
	}

	if len(cs.users) == 0 {
		return nil, fmt.Errorf("credentials file %q: %w", path, ErrNoCredentials)
	}

	return cs, nil
}

// Verify reports whether username exists and password matches it.
func (cs *CredentialStore) Verify(username, password string) bool {
	cs.mu.RLock()
	want, found := cs.users[username]
	cs.mu.RUnlock()

	match := subtle.ConstantTimeCompare([]byte(password), []byte(want)) == 1
	return found && match
}

// Count returns the number of loaded users.
func (cs *CredentialStore) Count() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.users)
}

func (cs *CredentialStore) add(entry string) error {
	user, pass, found := strings.Cut(entry, ":")
	if !found || user == "" {
		return errors.New("expected user:password")
	}
	// Basic decoding splits on every colon, so such a password could never match.
	if strings.Contains(pass, ":") {
		return errors.New("password must not contain ':'")
	}
	cs.users[user] = pass
	return nil
}

func (cs *CredentialStore) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := cs.add(line); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return scanner.Err()
}
