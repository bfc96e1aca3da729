// Package leads appends visitor emails to a flat log file.
package leads

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrInvalidEmail is returned for an empty value or one without "@".
var ErrInvalidEmail = errors.New("enter a valid email")

// Store owns the lead log. All appends go through its mutex.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Validate trims email and checks it is non-empty and contains "@".
func Validate(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	// One lead per line; embedded newlines would split a record.
	if strings.ContainsAny(email, "\r\n") {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Save validates email and appends it as one line. Invalid input writes nothing.
func (s *Store) Save(email string) error {
	email, err := Validate(email)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open lead log: %w", err)
	}
	if _, err := f.WriteString(email + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append lead: %w", err)
	}
	return f.Close()
}

// Count returns the number of non-empty lines in the log. A missing file has none.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n, sc.Err()
}
