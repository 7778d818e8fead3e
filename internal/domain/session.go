package domain

import "time"

// WebSession is the server-side state of one browser.
//
// A session is active once UserID is non-zero. The provider fields are
// copied from verified identity claims; State is the pending login nonce.
type WebSession struct {
	ID         string    `json:"id"`
	State      string    `json:"state,omitempty"`
	Username   string    `json:"username,omitempty"`
	Email      string    `json:"email,omitempty"`
	Picture    string    `json:"picture,omitempty"`
	ExternalID string    `json:"external_id,omitempty"`
	UserID     int64     `json:"user_id,omitempty"`
	Flashes    []string  `json:"flashes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// IsActive reports whether the session belongs to a logged-in user.
func (s *WebSession) IsActive() bool {
	return s != nil && s.UserID != 0
}

// IsExpired reports whether the session has passed its expiry.
func (s *WebSession) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Flash queues a one-time message for the next rendered page.
func (s *WebSession) Flash(msg string) {
	s.Flashes = append(s.Flashes, msg)
}

// TakeFlashes returns queued messages and clears the queue.
func (s *WebSession) TakeFlashes() []string {
	out := s.Flashes
	s.Flashes = nil
	return out
}

// ClearIdentity removes every authentication field. Pending flashes survive
// so the logout message can still be shown.
func (s *WebSession) ClearIdentity() {
	s.State = ""
	s.Username = ""
	s.Email = ""
	s.Picture = ""
	s.ExternalID = ""
	s.UserID = 0
}
