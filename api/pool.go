package api

import (
	"context"
	"fmt"

	"github.com/XapioBroke/aichessbot/engine"
)

// SessionPool hands out a fixed number of engines. A request that cannot get
// one before its context ends is turned away as busy.
type SessionPool struct {
	free       chan *engine.Engine
	newSession func() *engine.Engine
}

// NewSessionPool creates size engines with factory. factory is also used for
// websocket connections, which own their engine for their lifetime.
func NewSessionPool(size int, factory func() *engine.Engine) *SessionPool {
	if size < 1 {
		size = 1
	}
	p := &SessionPool{
		free:       make(chan *engine.Engine, size),
		newSession: factory,
	}
	for i := 0; i < size; i++ {
		p.free <- factory()
	}
	return p
}

func (p *SessionPool) Acquire(ctx context.Context) (*engine.Engine, error) {
	select {
	case s := <-p.free:
		return s, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: no free engine: %v", engine.ErrBusy, ctx.Err())
	}
}

func (p *SessionPool) Release(s *engine.Engine) {
	p.free <- s
}

// Size is the number of engines owned by the pool.
func (p *SessionPool) Size() int {
	return cap(p.free)
}
