// Package rcon defines the capability surface shared by the Source and
// BattlEye protocol engines, plus the entity types and game-extension
// traits layered on top of them by the per-game façades.
package rcon

import "context"

// Client is the unified capability set every protocol engine (source.Client,
// battleye.Client) implements. A Client is not safe for concurrent use:
// callers must serialize Run calls per session.
type Client interface {
	// Login performs the protocol handshake. A false result with a nil
	// error means the server rejected the credentials; it is not an error
	// condition. Login returns ErrClosed if called on a closed session.
	Login(ctx context.Context, password string) (bool, error)

	// Run sends a command and returns the server's concatenated reply. It
	// returns ErrClosed if called on a closed session.
	Run(ctx context.Context, command []byte) ([]byte, error)

	// RunUTF8 is Run, decoding the reply as UTF-8. It returns an
	// implementation-specific error (source.ErrInvalidUTF8,
	// battleye.ErrInvalidUTF8) if the reply is not well-formed.
	RunUTF8(ctx context.Context, command string) (string, error)

	// RunUTF8Lossy is RunUTF8 but replaces ill-formed bytes with the
	// Unicode replacement character instead of failing.
	RunUTF8Lossy(ctx context.Context, command string) (string, error)

	// Close releases the underlying transport.
	Close() error
}
