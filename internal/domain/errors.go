package domain

import "errors"

// Error taxonomy for the command channel. None of these are fatal;
// they all surface as user-visible replies.
var (
	ErrNotAuthorized  = errors.New("not authorized")
	ErrSessionNotOpen = errors.New("session not open")
	ErrSessionOpen    = errors.New("session already open")
	ErrNoSuchDir      = errors.New("no such directory")
	ErrUnknownAlias   = errors.New("unknown alias")
	ErrTimedOut       = errors.New("command timed out")
)
