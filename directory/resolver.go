package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/arloliu/go-telex/logger"
)

// Resolver turns dialed numbers into destination entries.
//
// A Resolver is safe for concurrent use.
type Resolver struct {
	table        *Table
	serverAddr   string
	queryTimeout time.Duration
	logger       logger.Logger
}

// Option is a functional option for configuring a Resolver.
type Option interface {
	apply(*Resolver) error
}

type optFunc func(*Resolver) error

func (f optFunc) apply(r *Resolver) error { return f(r) }

// WithTable sets the local table. Defaults to DefaultTable().
func WithTable(t *Table) Option {
	return optFunc(func(r *Resolver) error {
		if t == nil {
			return errors.New("directory: table must not be nil")
		}
		r.table = t

		return nil
	})
}

// WithServer sets the directory server address ("host:port").
func WithServer(addr string) Option {
	return optFunc(func(r *Resolver) error {
		if strings.TrimSpace(addr) == "" {
			return errors.New("directory: server address must not be empty")
		}
		r.serverAddr = addr

		return nil
	})
}

// WithQueryTimeout sets the timeout of a directory server exchange.
func WithQueryTimeout(d time.Duration) Option {
	return optFunc(func(r *Resolver) error {
		if d <= 0 {
			return errors.New("directory: query timeout must be positive")
		}
		r.queryTimeout = d

		return nil
	})
}

// WithLogger sets the logger of the resolver.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(r *Resolver) error {
		if l == nil {
			return errors.New("directory: logger must not be nil")
		}
		r.logger = l

		return nil
	})
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		table:        DefaultTable(),
		serverAddr:   DefaultServerAddr,
		queryTimeout: DefaultQueryTimeout,
		logger:       logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// ServerAddr returns the directory server address.
func (r *Resolver) ServerAddr() string { return r.serverAddr }

// LookupLocal consults the local table only.
func (r *Resolver) LookupLocal(number string) (*Entry, bool) {
	e, ok := r.table.Lookup(number)
	if ok {
		r.logger.Debug("directory: found in local table", "number", number, "name", e.Name)
	}

	return e, ok
}

// QueryRemote consults the directory server only.
func (r *Resolver) QueryRemote(ctx context.Context, number string) (*Entry, bool) {
	e, err := Query(ctx, r.serverAddr, number, r.queryTimeout)
	if err != nil {
		r.logger.Debug("directory: server lookup failed", "number", number, "error", err)
		return nil, false
	}

	r.logger.Debug("directory: found on server", "number", number, "name", e.Name, "host", e.Host)

	return e, true
}

// Resolve looks number up in the local table, then on the directory server.
// If both fail and number has a leading zero, the server is asked once more
// with the zero stripped.
func (r *Resolver) Resolve(ctx context.Context, number string) (*Entry, bool) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, false
	}

	if e, ok := r.LookupLocal(number); ok {
		return e, true
	}

	if e, ok := r.QueryRemote(ctx, number); ok {
		return e, true
	}

	if len(number) > 1 && number[0] == '0' {
		return r.QueryRemote(ctx, number[1:])
	}

	return nil, false
}
