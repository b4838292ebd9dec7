package source

import "errors"

var (
	// ErrInvalidData is returned for malformed framing: bad size, unknown
	// type, or a response the sentinel protocol did not expect. It is
	// fatal to the session.
	ErrInvalidData = errors.New("source: invalid data")

	// ErrAuthFailed is returned by Dial when the server rejects the
	// password. Login itself reports credential rejection through its
	// boolean return, not an error.
	ErrAuthFailed = errors.New("source: authentication failed")

	// ErrCommandTooLong is returned when a command exceeds MaxCommandLen.
	ErrCommandTooLong = errors.New("source: command too long")

	// ErrInvalidUTF8 is returned by RunUTF8 when a command reply contains
	// ill-formed UTF-8.
	ErrInvalidUTF8 = errors.New("source: reply is not valid UTF-8")

	// ErrNilOption is returned by NewClient/Dial if an Option is nil.
	ErrNilOption = errors.New("source: nil option")
)
