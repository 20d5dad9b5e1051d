// Package accounts holds the fixed two-member household directory and the
// credential checks behind sign-in. Membership is closed: nobody can register,
// and passwords are generated on first run and printed to the console.
package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"

	"nido/models"
)

var (
	ErrMemberNotFound    = errors.New("member not found")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrTooManyAttempts   = errors.New("too many sign-in attempts")
)

const (
	maxFailures   = 5
	failureWindow = 10 * time.Minute

	credentialsFile = "accounts.json"
)

// members is the closed household directory. Display identity comes from
// here; only the password hashes live on disk.
var members = map[string]models.Identity{
	"dani": {
		ID:    "member-dani",
		Email: "dani@nido.casa",
		Name:  "Dani",
	},
	"ale": {
		ID:    "member-ale",
		Email: "ale@nido.casa",
		Name:  "Ale",
	},
}

type storedCredentials struct {
	Hashes map[string]string `json:"hashes"` // username -> bcrypt hash
}

type failureState struct {
	count int
	since time.Time
}

// Service verifies member credentials and throttles repeated failures.
type Service struct {
	path string

	mu       sync.Mutex
	hashes   map[string]string
	failures map[string]failureState
}

// NewService loads credentials from dir, generating and printing fresh
// passwords on first run.
func NewService(dir string) (*Service, error) {
	s := &Service{
		path:     filepath.Join(dir, credentialsFile),
		hashes:   make(map[string]string),
		failures: make(map[string]failureState),
	}

	if err := s.load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err := s.generate(); err != nil {
			return nil, err
		}
	}

	for username := range members {
		if _, ok := s.hashes[username]; !ok {
			return nil, fmt.Errorf("credentials file is missing member %q", username)
		}
	}
	return s, nil
}

// Lookup resolves a username to its member identity without touching
// credentials. Used to reject unknown usernames before any sign-in call.
func (s *Service) Lookup(username string) (models.Identity, bool) {
	identity, ok := members[normalize(username)]
	return identity, ok
}

// SignIn verifies the password for username and returns the member identity.
// Five failures inside ten minutes lock the username out until the window
// passes.
func (s *Service) SignIn(username, pass string) (models.Identity, error) {
	username = normalize(username)

	identity, ok := members[username]
	if !ok {
		return models.Identity{}, ErrMemberNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.failures[username]
	if time.Since(state.since) > failureWindow {
		state = failureState{}
	}
	if state.count >= maxFailures {
		return models.Identity{}, ErrTooManyAttempts
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.hashes[username]), []byte(pass)); err != nil {
		if state.count == 0 {
			state.since = time.Now()
		}
		state.count++
		s.failures[username] = state
		return models.Identity{}, ErrInvalidCredential
	}

	delete(s.failures, username)
	identity.Name = models.DeriveName(identity.Email, identity.Name)
	return identity, nil
}

func (s *Service) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var stored storedCredentials
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("parse credentials file: %w", err)
	}
	s.hashes = stored.Hashes
	if s.hashes == nil {
		s.hashes = make(map[string]string)
	}
	return nil
}

// generate creates a password per member, stores the hashes and prints the
// plaintext once. This is the only time passwords are visible.
func (s *Service) generate() error {
	plain := make(map[string]string, len(members))
	for username := range members {
		pw, err := password.Generate(16, 4, 0, false, false)
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		plain[username] = pw
		s.hashes[username] = string(hash)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}
	data, err := json.MarshalIndent(storedCredentials{Hashes: s.hashes}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}

	fmt.Println("============================================")
	fmt.Println("  First run: generated member passwords")
	for username, pw := range plain {
		fmt.Printf("    %-6s %s\n", username, pw)
	}
	fmt.Println("  Stored hashed in", s.path)
	fmt.Println("============================================")
	log.Printf("[accounts] generated credentials for %d members", len(plain))
	return nil
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
