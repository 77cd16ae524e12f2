package domain

import "time"

// Timestamps holds the created/modified pair shared by persisted entities.
// The store sets both on insert and bumps Modified on update.
type Timestamps struct {
	CreatedAt  time.Time `json:"created"`
	ModifiedAt time.Time `json:"modified"`
}

// Touch updates the ModifiedAt timestamp to the current time.
func (t *Timestamps) Touch() {
	t.ModifiedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and ModifiedAt to now.
// Call this when creating a new entity.
func (t *Timestamps) InitTimestamps() {
	now := time.Now()
	t.CreatedAt = now
	t.ModifiedAt = now
}
