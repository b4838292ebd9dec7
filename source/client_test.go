package source

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialLoginSuccess(t *testing.T) {
	s := newMockServer(t, testPassword)
	require.NotNil(t, s)
	s.Start()
	defer s.Close()

	c, err := Dial(context.Background(), s.Addr, testPassword, Timeout(testTimeout))
	require.NoError(t, err)
	defer c.Close() // nolint: errcheck

	reply, err := c.RunUTF8(context.Background(), "status")
	require.NoError(t, err)
	assert.Equal(t, "Response to: status", reply)
}

func TestDialLoginFailure(t *testing.T) {
	s := newMockServer(t, testPassword)
	require.NotNil(t, s)
	s.Start()
	defer s.Close()

	c, err := Dial(context.Background(), s.Addr, "wrong password", Timeout(testTimeout))
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestRunTwoFragmentResponse(t *testing.T) {
	s := newMockServer(t, testPassword)
	require.NotNil(t, s)
	s.Start()
	defer s.Close()

	c, err := Dial(context.Background(), s.Addr, testPassword, Timeout(testTimeout))
	require.NoError(t, err)
	defer c.Close() // nolint: errcheck

	reply, err := c.Run(context.Background(), []byte("multi:AAAA*BBBB"))
	require.NoError(t, err)
	assert.Equal(t, "AAAABBBB", string(reply))
}

func TestRunPalworldQuirkAcceptsZeroID(t *testing.T) {
	s := newMockServer(t, testPassword)
	require.NotNil(t, s)
	s.palworldQuirk = true
	s.Start()
	defer s.Close()

	c, err := Dial(context.Background(), s.Addr, testPassword, Timeout(testTimeout), Quirk(Palworld))
	require.NoError(t, err)
	defer c.Close() // nolint: errcheck

	reply, err := c.Run(context.Background(), []byte("multi:hello* world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(reply))
}

func TestRunWithoutPalworldQuirkRejectsZeroID(t *testing.T) {
	s := newMockServer(t, testPassword)
	require.NotNil(t, s)
	s.palworldQuirk = true
	s.Start()
	defer s.Close()

	c, err := Dial(context.Background(), s.Addr, testPassword, Timeout(testTimeout))
	require.NoError(t, err)
	defer c.Close() // nolint: errcheck

	_, err = c.Run(context.Background(), []byte("multi:hello* world"))
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestRunCommandTooLong(t *testing.T) {
	s := newMockServer(t, testPassword)
	require.NotNil(t, s)
	s.Start()
	defer s.Close()

	c, err := Dial(context.Background(), s.Addr, testPassword, Timeout(testTimeout))
	require.NoError(t, err)
	defer c.Close() // nolint: errcheck

	_, err = c.Run(context.Background(), make([]byte, MaxCommandLen+1))
	assert.ErrorIs(t, err, ErrCommandTooLong)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := newMockServer(t, testPassword)
	require.NotNil(t, s)
	s.Start()
	defer s.Close()

	c, err := Dial(context.Background(), s.Addr, testPassword, Timeout(testTimeout))
	require.NoError(t, err)

	assert.NoError(t, c.Close())
	assert.NotPanics(t, func() { assert.NoError(t, c.Close()) })
}

func TestRunUTF8LossyReplacesInvalidBytes(t *testing.T) {
	s := newMockServer(t, testPassword)
	require.NotNil(t, s)
	s.Start()
	defer s.Close()

	c, err := Dial(context.Background(), s.Addr, testPassword, Timeout(testTimeout))
	require.NoError(t, err)
	defer c.Close() // nolint: errcheck

	reply, err := c.RunUTF8Lossy(context.Background(), "multi:\xff\xfe")
	require.NoError(t, err)
	assert.NotContains(t, reply, "\xff")
}

func TestNewClientRejectsNilOption(t *testing.T) {
	s := newMockServer(t, testPassword)
	require.NotNil(t, s)
	s.Start()
	defer s.Close()

	conn, err := net.Dial("tcp", s.Addr)
	require.NoError(t, err)

	_, err = NewClient(conn, nil)
	assert.ErrorIs(t, err, ErrNilOption)
}

func TestRunRespectsContextDeadline(t *testing.T) {
	s := newMockServer(t, testPassword)
	require.NotNil(t, s)
	s.Start()
	defer s.Close()

	c, err := Dial(context.Background(), s.Addr, testPassword, Timeout(testTimeout))
	require.NoError(t, err)
	defer c.Close() // nolint: errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	_, err = c.Run(ctx, []byte("status"))
	assert.Error(t, err)
}
