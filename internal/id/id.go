// Package id generates random identifiers for sessions and login state.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// StateAlphabet is the character set of login state tokens.
const StateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// StateLength is the length of a login state token.
const StateLength = 32

// Generate creates a prefixed NanoID, e.g. "sess-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// State returns a fresh anti-forgery token for the login flow:
// 32 characters drawn from upper-case letters and digits.
func State() (string, error) {
	s, err := gonanoid.Generate(StateAlphabet, StateLength)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return s, nil
}
