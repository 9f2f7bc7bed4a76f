package directory

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

const (
	// DefaultServerAddr is the public Telex Number Server.
	DefaultServerAddr = "sonnibs.no-ip.org:11811"

	// DefaultQueryTimeout bounds a whole directory server exchange.
	DefaultQueryTimeout = 3 * time.Second

	// maxResponseSize caps what is read from the directory server.
	maxResponseSize = 1024

	responseFields     = 7
	responseTerminator = "+++"
)

var (
	// ErrNotFound is returned when the server does not know the number.
	ErrNotFound = errors.New("directory: number not found")

	// ErrMalformedResponse is returned when the server answer cannot be parsed.
	ErrMalformedResponse = errors.New("directory: malformed server response")
)

// Query asks the directory server at addr for number.
//
// The whole exchange, connect included, is bounded by timeout.
func Query(ctx context.Context, addr string, number string, timeout time.Duration) (*Entry, error) {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("directory: connect %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if _, err := io.WriteString(conn, "q"+number+"\r\n"); err != nil {
		return nil, fmt.Errorf("directory: send query: %w", err)
	}

	fields, err := readResponse(io.LimitReader(conn, maxResponseSize))
	if err != nil && len(fields) < responseFields {
		return nil, fmt.Errorf("directory: read response: %w", err)
	}

	return parseResponse(fields)
}

// readResponse reads CRLF delimited fields until the terminator, EOF or the
// reader fails. Fields read before a failure are returned with the error.
func readResponse(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	dec := charmap.ISO8859_1.NewDecoder()

	var fields []string
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			if line == responseTerminator {
				return fields, nil
			}

			text, decErr := dec.String(line)
			if decErr != nil {
				text = line
			}
			fields = append(fields, text)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return fields, nil
			}

			return fields, err
		}
	}
}

func parseResponse(fields []string) (*Entry, error) {
	if len(fields) == 0 {
		return nil, ErrMalformedResponse
	}

	if status := strings.TrimSpace(fields[0]); status != "ok" {
		return nil, fmt.Errorf("%w: status %q", ErrNotFound, status)
	}

	if len(fields) < responseFields {
		return nil, fmt.Errorf("%w: %d fields", ErrMalformedResponse, len(fields))
	}

	typeCode, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil {
		return nil, fmt.Errorf("%w: type code %q", ErrMalformedResponse, fields[3])
	}

	port, err := strconv.Atoi(strings.TrimSpace(fields[5]))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: port %q", ErrMalformedResponse, fields[5])
	}

	ext := strings.TrimSpace(fields[6])
	if ext == "-" {
		ext = ""
	}

	return &Entry{
		Number:    strings.TrimSpace(fields[1]),
		Name:      strings.TrimSpace(fields[2]),
		Mode:      modeFromTypeCode(typeCode),
		Host:      strings.TrimSpace(fields[4]),
		Port:      port,
		Extension: ext,
	}, nil
}
