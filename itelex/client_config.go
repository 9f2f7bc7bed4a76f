package itelex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-telex/directory"
	"github.com/arloliu/go-telex/logger"
)

// Default configuration values.
const (
	DefaultSessionTimeout = 200 * time.Millisecond // Read deadline, one transmit opportunity each
	DefaultConnectTimeout = 5 * time.Second        // TCP dial timeout
	DefaultSendTimeout    = 3 * time.Second        // TCP write timeout
	DefaultMaxDataPayload = 100                    // Baudot codes per data packet
)

// Configuration limits.
const (
	MinSessionTimeout = 10 * time.Millisecond
	MaxSessionTimeout = 5 * time.Second
)

// Resolver finds the station record of a dialed number.
//
// *directory.Resolver implements Resolver.
type Resolver interface {
	Resolve(ctx context.Context, number string) (*directory.Entry, bool)
}

// QueryHandler receives the outcome of a directory query command. entry is
// nil if the number could not be resolved.
type QueryHandler func(number string, entry *directory.Entry)

// ClientConfig holds the configuration of a Client.
type ClientConfig struct {
	resolver       Resolver
	sessionTimeout time.Duration
	connectTimeout time.Duration
	sendTimeout    time.Duration
	maxDataPayload int
	queryHandler   QueryHandler

	logger logger.Logger
}

// NewClientConfig creates a client configuration. opts are applied in order.
//
// Without WithResolver the client resolves through a directory.Resolver with
// the shared local table and the public directory server.
func NewClientConfig(opts ...ClientOption) (*ClientConfig, error) {
	cfg := &ClientConfig{
		sessionTimeout: DefaultSessionTimeout,
		connectTimeout: DefaultConnectTimeout,
		sendTimeout:    DefaultSendTimeout,
		maxDataPayload: DefaultMaxDataPayload,
		logger:         logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.resolver == nil {
		r, err := directory.NewResolver(directory.WithLogger(cfg.logger))
		if err != nil {
			return nil, err
		}
		cfg.resolver = r
	}

	return cfg, nil
}

// SessionTimeout returns the read deadline of the session loop.
func (cfg *ClientConfig) SessionTimeout() time.Duration { return cfg.sessionTimeout }

// ConnectTimeout returns the TCP dial timeout.
func (cfg *ClientConfig) ConnectTimeout() time.Duration { return cfg.connectTimeout }

// SendTimeout returns the TCP write timeout.
func (cfg *ClientConfig) SendTimeout() time.Duration { return cfg.sendTimeout }

// MaxDataPayload returns the maximum payload of a Baudot Data packet.
func (cfg *ClientConfig) MaxDataPayload() int { return cfg.maxDataPayload }

// GetLogger returns the configured logger.
func (cfg *ClientConfig) GetLogger() logger.Logger { return cfg.logger }

// --- ClientOption ---

// ClientOption is a functional option for configuring a ClientConfig.
type ClientOption interface {
	apply(*ClientConfig) error
}

type clientOptFunc func(*ClientConfig) error

func (f clientOptFunc) apply(cfg *ClientConfig) error { return f(cfg) }

// WithResolver sets the resolver used for dial and query commands.
func WithResolver(r Resolver) ClientOption {
	return clientOptFunc(func(cfg *ClientConfig) error {
		if r == nil {
			return errors.New("itelex: resolver must not be nil")
		}
		cfg.resolver = r

		return nil
	})
}

// WithSessionTimeout sets the read deadline of the session loop. Every expired
// deadline is a transmit opportunity.
func WithSessionTimeout(d time.Duration) ClientOption {
	return clientOptFunc(func(cfg *ClientConfig) error {
		if d < MinSessionTimeout || d > MaxSessionTimeout {
			return fmt.Errorf("itelex: session timeout %v out of range [%v, %v]", d, MinSessionTimeout, MaxSessionTimeout)
		}
		cfg.sessionTimeout = d

		return nil
	})
}

// WithConnectTimeout sets the TCP dial timeout.
func WithConnectTimeout(d time.Duration) ClientOption {
	return clientOptFunc(func(cfg *ClientConfig) error {
		if d <= 0 {
			return errors.New("itelex: connect timeout must be positive")
		}
		cfg.connectTimeout = d

		return nil
	})
}

// WithSendTimeout sets the TCP write timeout.
func WithSendTimeout(d time.Duration) ClientOption {
	return clientOptFunc(func(cfg *ClientConfig) error {
		if d <= 0 {
			return errors.New("itelex: send timeout must be positive")
		}
		cfg.sendTimeout = d

		return nil
	})
}

// WithMaxDataPayload sets the maximum number of Baudot codes per data packet.
func WithMaxDataPayload(n int) ClientOption {
	return clientOptFunc(func(cfg *ClientConfig) error {
		if n < 2 || n > MaxPayloadSize {
			return fmt.Errorf("itelex: max data payload %d out of range [2, %d]", n, MaxPayloadSize)
		}
		cfg.maxDataPayload = n

		return nil
	})
}

// WithQueryHandler sets the handler receiving directory query results.
func WithQueryHandler(h QueryHandler) ClientOption {
	return clientOptFunc(func(cfg *ClientConfig) error {
		cfg.queryHandler = h
		return nil
	})
}

// WithLogger sets the logger for the client.
func WithLogger(l logger.Logger) ClientOption {
	return clientOptFunc(func(cfg *ClientConfig) error {
		if l == nil {
			return errors.New("itelex: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
