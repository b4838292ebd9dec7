package source

import (
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const (
	testTimeout  = time.Second
	testAddress  = "127.0.0.1:0"
	testPassword = "secret"
)

// mockServer is a minimal Source RCON server: one goroutine per accepted
// connection, handling AUTH and EXEC_COMMAND packets.
type mockServer struct {
	Addr string
	pwd  string
	ln   net.Listener
	t    *testing.T
	wg   sync.WaitGroup

	palworldQuirk bool
	execCounter   int64
}

func newMockServer(t *testing.T, pwd string) *mockServer {
	ln, err := net.Listen("tcp", testAddress)
	if !assert.NoError(t, err) {
		return nil
	}
	return &mockServer{Addr: ln.Addr().String(), pwd: pwd, ln: ln, t: t}
}

func (s *mockServer) Start() {
	s.wg.Add(1)
	go s.accept()
}

func (s *mockServer) Close() {
	s.ln.Close() // nolint: errcheck
	s.wg.Wait()
}

func (s *mockServer) execCount() int {
	return int(atomic.LoadInt64(&s.execCounter))
}

func (s *mockServer) accept() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *mockServer) handle(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close() // nolint: errcheck

	for {
		conn.SetDeadline(time.Now().Add(testTimeout)) // nolint: errcheck
		p, err := ReadPacket(conn)
		if err != nil {
			return
		}

		switch p.Type {
		case TypeAuth:
			id := p.ID
			if string(p.Payload) != s.pwd {
				id = -1
			}
			WritePacket(conn, Packet{ID: id, Type: TypeAuthResponse}) // nolint: errcheck
		case TypeExecCommand:
			atomic.AddInt64(&s.execCounter, 1)
			s.handleExec(conn, p)
		case TypeResponseValue:
			// the sentinel packet a client sends after EXEC_COMMAND; the
			// server mirrors it back verbatim (empty payload) to signal
			// end-of-response.
			WritePacket(conn, Packet{ID: p.ID, Type: TypeResponseValue}) // nolint: errcheck
		}
	}
}

func (s *mockServer) handleExec(conn net.Conn, p Packet) {
	cmd := string(p.Payload)

	if parts, ok := strings.CutPrefix(cmd, "multi:"); ok {
		for i, part := range strings.Split(parts, "*") {
			id := p.ID
			if s.palworldQuirk {
				id = 0
			}
			WritePacket(conn, Packet{ID: id, Type: TypeResponseValue, Payload: []byte(part)}) // nolint: errcheck
			_ = i
		}
		return
	}

	WritePacket(conn, Packet{ID: p.ID, Type: TypeResponseValue, Payload: []byte("Response to: " + cmd)}) // nolint: errcheck
}
