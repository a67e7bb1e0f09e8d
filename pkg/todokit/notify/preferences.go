package notify

import (
	"sync"
	"time"
)

// UserPreferences holds one user's notification settings.
type UserPreferences struct {
	UserID             string    `json:"userId"`
	Email              string    `json:"email"`
	EnabledEvents      []string  `json:"enabledEvents"`
	EmailNotifications bool      `json:"emailNotifications"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// PreferencesRequest is the wire shape for setting a user's preferences.
type PreferencesRequest struct {
	Email              string   `json:"email"`
	EnabledEvents      []string `json:"enabledEvents"`
	EmailNotifications bool     `json:"emailNotifications"`
}

// Preferences is a concurrency-safe store of per-user notification
// settings. A user without an entry receives every event type; once an
// entry exists, only the event types it lists are delivered to the sink.
type Preferences struct {
	mu     sync.RWMutex
	byUser map[string]UserPreferences
}

// NewPreferences creates an empty preferences store.
func NewPreferences() *Preferences {
	return &Preferences{
		byUser: make(map[string]UserPreferences),
	}
}

// Set stores a user's preferences, preserving CreatedAt across updates.
func (p *Preferences) Set(userID string, req PreferencesRequest) UserPreferences {
	now := time.Now().UTC()

	p.mu.Lock()
	defer p.mu.Unlock()

	prefs := UserPreferences{
		UserID:             userID,
		Email:              req.Email,
		EnabledEvents:      append([]string(nil), req.EnabledEvents...),
		EmailNotifications: req.EmailNotifications,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if existing, ok := p.byUser[userID]; ok {
		prefs.CreatedAt = existing.CreatedAt
	}
	p.byUser[userID] = prefs
	return prefs
}

// Get returns a user's preferences and whether an entry exists.
func (p *Preferences) Get(userID string) (UserPreferences, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	prefs, ok := p.byUser[userID]
	return prefs, ok
}

// Delete removes a user's entry, restoring the receive-everything default.
func (p *Preferences) Delete(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byUser, userID)
}

// Enabled reports whether the user receives notifications for eventType.
func (p *Preferences) Enabled(userID, eventType string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	prefs, ok := p.byUser[userID]
	if !ok {
		return true
	}
	for _, enabled := range prefs.EnabledEvents {
		if enabled == eventType {
			return true
		}
	}
	return false
}
