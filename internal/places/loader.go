// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/wneessen/propertyloc/internal/logger"
)

// ErrProviderLoad is returned when the places provider failed to initialize.
var ErrProviderLoad = errors.New("places provider failed to load")

// State is the lifecycle state of a Loader.
type State int32

const (
	Uninitialized State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// InitFunc creates the provider. It is called at most once per Loader.
type InitFunc func(ctx context.Context) (Provider, error)

// Loader initializes the places provider exactly once. Concurrent and later calls observe the
// result of the first initialization, a failed initialization is not retried.
type Loader struct {
	init   InitFunc
	logger *logger.Logger

	once     sync.Once
	done     chan struct{}
	state    atomic.Int32
	provider Provider
	err      error
}

func NewLoader(log *logger.Logger, init InitFunc) *Loader {
	return &Loader{
		init:   init,
		logger: log,
		done:   make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (l *Loader) State() State {
	return State(l.state.Load())
}

// Start triggers the initialization in the background, if it has not been started yet.
func (l *Loader) Start(ctx context.Context) {
	l.once.Do(func() {
		l.state.Store(int32(Loading))
		go l.run(context.WithoutCancel(ctx))
	})
}

// Load starts the initialization if needed and waits for its result or for ctx to end.
func (l *Loader) Load(ctx context.Context) (Provider, error) {
	l.Start(ctx)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return l.provider, l.err
	}
}

// Provider returns the provider without blocking. The boolean is false unless the loader is Ready.
func (l *Loader) Provider() (Provider, bool) {
	if l.State() != Ready {
		return nil, false
	}
	return l.provider, true
}

// Err returns the initialization error once the loader has Failed.
func (l *Loader) Err() error {
	if l.State() != Failed {
		return nil
	}
	return l.err
}

func (l *Loader) run(ctx context.Context) {
	defer close(l.done)
	provider, err := l.init(ctx)
	if err == nil && provider == nil {
		err = errors.New("no provider returned")
	}
	if err != nil {
		l.err = fmt.Errorf("%w: %w", ErrProviderLoad, err)
		l.state.Store(int32(Failed))
		l.logger.Error("failed to initialize places provider", logger.Err(err))
		return
	}
	l.provider = provider
	l.state.Store(int32(Ready))
	l.logger.Info("places provider ready", slog.String("provider", provider.Name()))
}
