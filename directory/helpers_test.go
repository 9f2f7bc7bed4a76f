package directory

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
)

// fakeServer is an in-process directory server answering from a fixed map.
type fakeServer struct {
	ln      net.Listener
	answers map[string]string

	mu      sync.Mutex
	queries []string
}

func startFakeServer(t *testing.T, answers map[string]string) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := &fakeServer{ln: ln, answers: answers}
	t.Cleanup(func() { _ = ln.Close() })

	go s.serve()

	return s
}

func (s *fakeServer) Addr() string { return s.ln.Addr().String() }

func (s *fakeServer) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.queries...)
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}

		go func(conn net.Conn) {
			defer conn.Close()

			line, err := bufio.NewReader(conn).ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			number := strings.TrimPrefix(line, "q")

			s.mu.Lock()
			s.queries = append(s.queries, number)
			s.mu.Unlock()

			answer, ok := s.answers[number]
			if !ok {
				answer = "fail\r\nunknown\r\n+++\r\n"
			}
			_, _ = io.WriteString(conn, answer)
		}(conn)
	}
}

// tnsAnswer builds a successful directory server response.
func tnsAnswer(number, name, typeCode, host, port, ext string) string {
	return strings.Join([]string{"ok", number, name, typeCode, host, port, ext, "+++", ""}, "\r\n")
}

// emptyTable returns a table without rows.
func emptyTable() *Table {
	return NewTableFunc(func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("nick,tnum,extn,type,host,port,name\n")), nil
	}, nil)
}
