package subpub

import "errors"

var (
	// ErrMailboxFull возвращает TryPush, когда в ящике уже Cap событий.
	ErrMailboxFull = errors.New("subpub: mailbox full")
	// ErrMailboxDetached возвращает TryPush для ящика без принимающей
	// стороны, например нулевого Mailbox.
	ErrMailboxDetached = errors.New("subpub: mailbox detached")
)
