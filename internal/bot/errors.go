package bot

import "errors"

var (
	// ErrEmptyToken indicates that no token was configured and no session
	// was injected with WithSession.
	ErrEmptyToken = errors.New("discord token must be set in config or environment")

	// ErrNoAuthor indicates a message without an author, such as a system
	// message.
	ErrNoAuthor = errors.New("message has no author")

	// ErrUsage indicates a header command with missing or malformed
	// arguments.
	ErrUsage = errors.New("bad header command")
)
