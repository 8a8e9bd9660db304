package handler

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	"github.com/panjf2000/gnet"
	"github.com/sirupsen/logrus"

	"rand2m/model"
)

const stopPollInterval = 50 * time.Millisecond

// ArenaServer accepts bot connections and decodes their command lines.
type ArenaServer struct {
	*gnet.EventServer

	cfg    model.ArenaConfig
	filter *vm.Program
	sink   chan<- model.Event
	log    *logrus.Entry

	sessions sync.Map // remote addr -> *arenaSession
	stopping int32
	stop     chan struct{}
	stopOnce sync.Once

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
}

type arenaSession struct {
	id      uuid.UUID
	player  string
	pending []byte
}

// NewArenaServer prepares a server; decoded events go to sink when it is not nil.
func NewArenaServer(cfg model.ArenaConfig, sink chan<- model.Event) (*ArenaServer, error) {
	a := &ArenaServer{
		cfg:   cfg,
		sink:  sink,
		log:   logrus.WithField("component", "receiver"),
		stop:  make(chan struct{}),
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}

	if cfg.Filter != "" {
		program, err := expr.Compile(cfg.Filter, expr.Env(filterEnv(model.Instruction{}, "")), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compiling filter %q: %w", cfg.Filter, err)
		}
		a.filter = program
	}
	return a, nil
}

func filterEnv(in model.Instruction, player string) map[string]interface{} {
	return map[string]interface{}{
		"command": in.Keyword,
		"player":  player,
		"x":       in.Message.X,
		"y":       in.Message.Y,
	}
}

// Serve blocks until the server shuts down.
func (a *ArenaServer) Serve() error {
	defer close(a.done)

	addr := "tcp://" + a.cfg.Address()
	a.log.Infof("listening on %s", addr)
	err := gnet.Serve(a, addr, gnet.WithMulticore(a.cfg.Multicore), gnet.WithTicker(true))
	if err != nil {
		// Unblock anyone waiting on Ready when listen failed.
		a.readyOnce.Do(func() { close(a.ready) })
		return fmt.Errorf("serving %s: %w", addr, err)
	}
	return nil
}

func (a *ArenaServer) Ready() <-chan struct{} { return a.ready }
func (a *ArenaServer) Done() <-chan struct{}  { return a.done }

// Stop asks the event loops to shut down on the next tick.
func (a *ArenaServer) Stop() {
	atomic.StoreInt32(&a.stopping, 1)
	a.stopOnce.Do(func() { close(a.stop) })
}

func (a *ArenaServer) OnInitComplete(srv gnet.Server) (action gnet.Action) {
	a.log.Infof("accepting bots (loops=%d)", srv.NumEventLoop)
	a.readyOnce.Do(func() { close(a.ready) })
	return
}

func (a *ArenaServer) OnShutdown(srv gnet.Server) {
	a.log.Info("shut down")
}

func (a *ArenaServer) Tick() (delay time.Duration, action gnet.Action) {
	delay = stopPollInterval
	if atomic.LoadInt32(&a.stopping) == 1 {
		action = gnet.Shutdown
	}
	return
}

func (a *ArenaServer) OnOpened(c gnet.Conn) (out []byte, action gnet.Action) {
	s := &arenaSession{id: uuid.New()}
	c.SetContext(s)
	a.sessions.Store(c.RemoteAddr().String(), s)
	a.log.WithField("session", s.id).Infof("[%s] connected", c.RemoteAddr())
	return
}

func (a *ArenaServer) OnClosed(c gnet.Conn, err error) (action gnet.Action) {
	a.sessions.Delete(c.RemoteAddr().String())
	entry := a.log
	if s, ok := c.Context().(*arenaSession); ok {
		entry = entry.WithFields(logrus.Fields{"session": s.id, "player": s.player})
		if len(s.pending) > 0 {
			entry.Warnf("dropping %d bytes without newline", len(s.pending))
		}
	}
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Infof("[%s] disconnected", c.RemoteAddr())
	return
}

func (a *ArenaServer) React(data []byte, c gnet.Conn) (out []byte, action gnet.Action) {
	s, ok := c.Context().(*arenaSession)
	if !ok {
		return nil, gnet.Close
	}
	s.pending = append(s.pending, data...)
	c.ResetBuffer()

	for {
		idx := bytes.IndexByte(s.pending, '\n')
		if idx < 0 {
			break
		}
		line := string(s.pending[:idx])
		s.pending = s.pending[idx+1:]
		a.handleLine(s, line)
	}
	if len(s.pending) == 0 {
		s.pending = nil
	}
	return
}

func (a *ArenaServer) handleLine(s *arenaSession, line string) {
	entry := a.log.WithFields(logrus.Fields{"session": s.id, "player": s.player})

	in, err := model.ParseLine(line)
	if err != nil {
		entry.WithError(err).Warnf("invalid line %q", line)
		return
	}

	if in.IsName() {
		s.player = in.Name
	} else if a.filter != nil {
		pass, err := expr.Run(a.filter, filterEnv(in, s.player))
		if err != nil {
			entry.WithError(err).Warn("filter failed")
			return
		}
		if b, _ := pass.(bool); !b {
			return
		}
	}

	entry.Debugf("received %s", line)
	if a.sink == nil {
		return
	}
	// A stalled sink must not hold the event loop once Stop is called.
	select {
	case a.sink <- model.Event{Session: s.id, Player: s.player, Instruction: in, At: time.Now()}:
	case <-a.stop:
		entry.Warnf("stopping, dropped %q", line)
	}
}

// Sessions returns the number of connected bots.
func (a *ArenaServer) Sessions() int {
	n := 0
	a.sessions.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}
