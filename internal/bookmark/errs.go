package bookmark

import "errors"

var (
	ErrNotFound       = errors.New("no bookmark found")
	ErrTagNotFound    = errors.New("no tag found")
	ErrURLEmpty       = errors.New("URL cannot be empty")
	ErrIDEmpty        = errors.New("identifier cannot be empty")
	ErrInvalidInput   = errors.New("invalid input")
	ErrCorrupted      = errors.New("corrupted bookmark data")
	ErrInconsistent   = errors.New("inconsistent state")
	ErrPostIncomplete = errors.New("incomplete post")
)

// Validate checks the invariants required before a bookmark may be stored.
func Validate(b *Bookmark) error {
	if b.ID == "" {
		return ErrIDEmpty
	}
	if b.URL == "" {
		return ErrURLEmpty
	}

	return nil
}
