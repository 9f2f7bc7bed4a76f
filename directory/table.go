package directory

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/arloliu/go-telex/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultTableFile is the file the shared table is loaded from.
const DefaultTableFile = "userlist.csv"

// ErrMissingColumn is returned when the table header lacks a required column.
var ErrMissingColumn = errors.New("directory: missing column")

// OpenFunc opens the source of a Table.
type OpenFunc func() (io.ReadCloser, error)

// Table is a read-only, lazily loaded lookup table keyed by nickname and number.
//
// The source is read once, on the first lookup; a failed load leaves the table
// empty for the lifetime of the process.
type Table struct {
	once   sync.Once
	open   OpenFunc
	logger logger.Logger
	byKey  *xsync.MapOf[string, *Entry]
	size   int
}

var defaultTable = NewTable(DefaultTableFile, nil)

// DefaultTable returns the process wide table backed by DefaultTableFile.
func DefaultTable() *Table {
	return defaultTable
}

// NewTable creates a Table loading path on first use.
func NewTable(path string, l logger.Logger) *Table {
	return NewTableFunc(func() (io.ReadCloser, error) { return os.Open(path) }, l)
}

// NewTableFunc creates a Table loading from the reader returned by open on first use.
func NewTableFunc(open OpenFunc, l logger.Logger) *Table {
	return &Table{
		open:   open,
		logger: l,
		byKey:  xsync.NewMapOf[string, *Entry](),
	}
}

// Lookup returns the entry whose nickname or number equals key.
func (t *Table) Lookup(key string) (*Entry, bool) {
	t.once.Do(t.load)

	return t.byKey.Load(key)
}

// Len returns the number of rows loaded.
func (t *Table) Len() int {
	t.once.Do(t.load)

	return t.size
}

func (t *Table) getLogger() logger.Logger {
	if t.logger == nil {
		return logger.GetLogger()
	}

	return t.logger
}

func (t *Table) load() {
	rc, err := t.open()
	if err != nil {
		t.getLogger().Debug("directory: local table unavailable", "error", err)
		return
	}
	defer func() { _ = rc.Close() }()

	entries, err := ParseTable(rc)
	if err != nil {
		t.getLogger().Warn("directory: failed to parse local table", "error", err)
		return
	}

	// earlier rows win, for both keys
	for _, e := range entries {
		if e.Nick != "" {
			t.byKey.LoadOrStore(e.Nick, e)
		}
		if e.Number != "" {
			t.byKey.LoadOrStore(e.Number, e)
		}
	}
	t.size = len(entries)

	t.getLogger().Debug("directory: local table loaded", "entries", t.size)
}

// column indexes, -1 when absent
type tableColumns struct {
	nick, number, ext, typ, host, port, name int
}

func newTableColumns(header []string) (tableColumns, error) {
	cols := tableColumns{-1, -1, -1, -1, -1, -1, -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "nick", "nickname":
			cols.nick = i
		case "tnum", "number":
			cols.number = i
		case "extn", "extension":
			cols.ext = i
		case "type":
			cols.typ = i
		case "host":
			cols.host = i
		case "port":
			cols.port = i
		case "name":
			cols.name = i
		}
	}

	if cols.number < 0 {
		return cols, fmt.Errorf("%w: number", ErrMissingColumn)
	}
	if cols.host < 0 {
		return cols, fmt.Errorf("%w: host", ErrMissingColumn)
	}
	if cols.port < 0 {
		return cols, fmt.Errorf("%w: port", ErrMissingColumn)
	}

	return cols, nil
}

// ParseTable parses a delimited table with a header row. Rows with an invalid
// port are skipped.
func ParseTable(r io.Reader) ([]*Entry, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(1024)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(head)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("directory: read header: %w", err)
	}

	cols, err := newTableColumns(header)
	if err != nil {
		return nil, err
	}

	var entries []*Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return entries, fmt.Errorf("directory: read row: %w", err)
		}

		field := func(i int) string {
			if i < 0 || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		port, err := strconv.Atoi(field(cols.port))
		if err != nil || port <= 0 || port > 65535 {
			continue
		}

		ext := field(cols.ext)
		if ext == "-" {
			ext = ""
		}

		entries = append(entries, &Entry{
			Number:    field(cols.number),
			Nick:      field(cols.nick),
			Extension: ext,
			Name:      field(cols.name),
			Mode:      parseMode(field(cols.typ)),
			Host:      field(cols.host),
			Port:      port,
		})
	}

	return entries, nil
}

// sniffDelimiter picks the most frequent candidate delimiter of the first line.
func sniffDelimiter(head []byte) rune {
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}

	return best
}
