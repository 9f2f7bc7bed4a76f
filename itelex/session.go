package itelex

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/arloliu/go-telex/baudot"
	"github.com/arloliu/go-telex/directory"
	"github.com/arloliu/go-telex/logger"
	"github.com/arloliu/go-telex/telex"
)

// errNotResolved ends a connect task whose number could not be resolved.
var errNotResolved = errors.New("itelex: number not resolved")

// session is a single connect attempt and, once connected, the session loop.
//
// It runs on its own task goroutine and owns the socket. Shared with the poll
// loop are only the client queues and the connection state.
type session struct {
	c      *Client
	number string
	logger logger.Logger

	entry    *directory.Entry
	conn     net.Conn
	reader   *bufio.Reader
	answered bool

	txCodec    *baudot.Codec
	rxCodec    *baudot.Codec
	asciiCodec *baudot.Codec

	received int
	sent     int
}

func newSession(c *Client, number string) *session {
	return &session{
		c:          c,
		number:     number,
		logger:     c.logger.With("number", number),
		txCodec:    baudot.NewCodec(),
		rxCodec:    baudot.NewCodec(),
		asciiCodec: baudot.NewCodec(baudot.WithASCII(true)),
	}
}

// run resolves, connects and runs the session loop until the peer ends the
// session, a hang-up is requested, or ctx is done.
func (s *session) run(ctx context.Context) error {
	entry, ok := s.c.cfg.resolver.Resolve(ctx, s.number)
	if !ok {
		s.c.metrics.incResolveFailCount()
		return errNotResolved
	}
	s.entry = entry

	if s.c.state.Get() != DialingState {
		s.logger.Debug("hang-up while resolving")
		return nil
	}

	s.c.rx.Enqueue(telex.CmdAnswer)
	s.answered = true

	if err := s.connect(ctx); err != nil {
		return err
	}

	if !s.c.state.ToConnected() {
		s.logger.Debug("hang-up while connecting")
		return nil
	}
	s.c.metrics.incSessionCount()
	s.logger.Info("connected", "name", entry.Name, "addr", entry.Addr(), "mode", entry.Mode.String())

	if !entry.IsASCII() {
		if err := s.writePacket(VersionPacket()); err != nil {
			return err
		}

		if entry.HasNumericExtension() {
			if err := s.writePacket(DirectDialPacket(entry.Extension)); err != nil {
				return err
			}
		}
	}

	return s.loop(ctx)
}

func (s *session) connect(ctx context.Context) error {
	dialer := net.Dialer{Timeout: s.c.cfg.connectTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", s.entry.Addr())
	if err != nil {
		return fmt.Errorf("itelex: connect %s: %w", s.entry.Addr(), err)
	}

	s.conn = conn
	s.reader = bufio.NewReader(conn)

	return nil
}

func (s *session) loop(ctx context.Context) error {
	for s.c.state.IsConnected() {
		if ctx.Err() != nil {
			return nil
		}

		b, err := s.readByte(s.c.cfg.sessionTimeout)
		switch {
		case err == nil:
		case isTimeout(err):
			if err := s.transmit(); err != nil {
				return err
			}

			continue
		case errors.Is(err, io.EOF):
			s.logger.Info("connection closed by peer")
			return nil
		default:
			return fmt.Errorf("itelex: read: %w", err)
		}

		if !IsPacketType(b) {
			s.receiveASCII(b)
			continue
		}

		end, err := s.receivePacket(b)
		if err != nil {
			return err
		}
		if end {
			return nil
		}
	}

	return nil
}

// receivePacket reads and dispatches the packet started by typ. end is true
// if the peer ended the session.
func (s *session) receivePacket(typ byte) (end bool, err error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.c.cfg.sessionTimeout)); err != nil {
		return false, err
	}

	pkt, err := ReadPacket(s.reader, typ)
	if err != nil {
		if errors.Is(err, ErrMalformedPacket) {
			s.c.metrics.incMalformedPacketCount()
			s.logger.Warn("malformed packet", "error", err)
		}

		return false, err
	}
	s.c.metrics.incPacketRecvCount()

	switch pkt.Type {
	case HeartbeatType:

	case DirectDialType:
		s.logger.Debug("direct dial received", "payload", pkt.Payload)

	case BaudotDataType:
		if len(pkt.Payload) == 0 {
			break
		}

		for _, ch := range s.rxCodec.Decode(pkt.Payload) {
			s.enqueueReceived(string(ch))
		}
		s.received += len(pkt.Payload)
		s.c.metrics.addBaudotRecvBytes(len(pkt.Payload))

		return false, s.writePacket(AckPacket(s.received))

	case EndType:
		s.c.metrics.incPeerEndCount()
		s.logger.Info("session ended by peer")

		return true, nil

	case RejectType:
		s.c.metrics.incPeerEndCount()
		s.logger.Info("session rejected by peer", "reason", strings.TrimRight(string(pkt.Payload), "\x00"))

		return true, nil

	case AckType:
		if len(pkt.Payload) == 1 {
			s.logger.Debug("ack received", "acked", pkt.Payload[0], "sent", s.sent&0xff)
		}

	case VersionType:
		if len(pkt.Payload) >= 1 && pkt.Payload[0] != ProtocolVersion {
			s.logger.Debug("peer version differs", "version", pkt.Payload[0])
			return false, s.writePacket(VersionPacket())
		}

	case SelfTestType, RemoteConfigType:
		s.logger.Debug("packet ignored", "type", pkt.Type.String(), "payload", pkt.Payload)

	default:
		s.logger.Debug("unknown packet ignored", "type", pkt.Type.String())
	}

	return false, nil
}

func (s *session) receiveASCII(b byte) {
	for _, ch := range s.asciiCodec.Decode([]byte{b}) {
		s.enqueueReceived(string(ch))
		s.received++
	}
}

// enqueueReceived hands a received character to the poll loop. The WRU
// character arrives as '@' and is passed on as '#'.
func (s *session) enqueueReceived(ch string) {
	if ch == telex.CharWRU {
		ch = telex.CharWRUText
	}
	s.c.rx.Enqueue(ch)
}

// transmit uses a transmit opportunity.
func (s *session) transmit() error {
	ascii := s.entry.IsASCII()

	if s.received == 0 && !ascii {
		s.c.tx.Enqueue(telex.CharLetters)
	}

	if s.c.tx.IsEmpty() {
		return nil
	}

	if ascii {
		ch, ok := s.c.tx.Dequeue()
		if !ok {
			return nil
		}

		data := s.asciiCodec.Encode(ch)
		if len(data) == 0 {
			return nil
		}

		return s.writeAll(data)
	}

	limit := s.c.cfg.maxDataPayload
	codes := make([]byte, 0, limit)
	// a character encodes to at most a shift code plus its own code
	for len(codes)+2 <= limit {
		ch, ok := s.c.tx.Dequeue()
		if !ok {
			break
		}
		if ch == telex.CharWRUText {
			ch = telex.CharWRU
		}
		codes = append(codes, s.txCodec.Encode(ch)...)
	}

	if len(codes) == 0 {
		return nil
	}

	pkt, err := BaudotDataPacket(codes)
	if err != nil {
		return err
	}

	if err := s.writePacket(pkt); err != nil {
		return err
	}
	s.sent += len(codes)
	s.c.metrics.addBaudotSendBytes(len(codes))

	return nil
}

// finish tears the session down. It runs for every connect task, whatever the
// outcome, including a panic.
func (s *session) finish(err error) {
	switch {
	case err == nil:
	case errors.Is(err, errNotResolved):
		s.logger.Info("number not found")
	default:
		s.logger.Warn("session failed", "error", err)
	}

	if s.conn != nil {
		if s.entry != nil && !s.entry.IsASCII() {
			if err := s.writePacket(EndPacket()); err != nil {
				s.logger.Debug("failed to send end packet", "error", err)
			}
		}

		if err := s.conn.Close(); err != nil {
			s.logger.Debug("failed to close connection", "error", err)
		}
		s.logger.Info("connection ended")
	}

	// leftovers were meant for this station only
	s.c.tx.Reset()
	s.c.state.ToIdle()

	if s.answered {
		s.c.rx.Enqueue(telex.CmdHangUp)
	}
}

// --- Low-level I/O helpers ---

// readByte reads a single byte from the connection with the given timeout.
func (s *session) readByte(timeout time.Duration) (byte, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}

	return s.reader.ReadByte()
}

func (s *session) writePacket(pkt *Packet) error {
	if err := s.writeAll(pkt.Bytes()); err != nil {
		return fmt.Errorf("itelex: send %s: %w", pkt.Type, err)
	}
	s.c.metrics.incPacketSendCount()

	return nil
}

// writeAll writes all bytes in data to the connection.
func (s *session) writeAll(data []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.c.cfg.sendTimeout)); err != nil {
		return err
	}

	for written := 0; written < len(data); {
		n, err := s.conn.Write(data[written:])
		written += n

		if err != nil {
			return err
		}
	}

	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var ne net.Error

	return errors.As(err, &ne) && ne.Timeout()
}
