package rpcserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/macmcp/macmcp/internal/logging"
	"github.com/macmcp/macmcp/internal/session"
)

// maxLineSize bounds one JSON-RPC request line. 10MB accommodates large
// tool-call payloads without unbounded growth.
const maxLineSize = 10 * 1024 * 1024

// Server owns the line-framed stdio transport loop and its concurrency
// gate: interactive requests run one at a time, read-only requests may
// run concurrently with each other but never alongside an interactive one.
type Server struct {
	Dispatcher *Dispatcher
	Emitter *Emitter
	Logger *logging.Logger

	ioGate sync.RWMutex
	wg sync.WaitGroup
}

func NewServer(d *Dispatcher, e *Emitter, log *logging.Logger) *Server {
	return &Server{Dispatcher: d, Emitter: e, Logger: log}
}

// Run reads line-framed requests from in until EOF or ctx is cancelled,
// dispatching each under the appropriate concurrency gate, and blocks
// until every in-flight request has finished before returning.
func (s *Server) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scanner := bufio.NewScanner(in)
	buf := make([]byte, maxLineSize)
	scanner.Buffer(buf, maxLineSize)

	s.Logger.Lifecycle("server_start", nil)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		// Copy: scanner.Bytes is only valid until the next Scan call, but
		// the request is dispatched on its own goroutine.
		lineCopy := append([]byte(nil), line...)

		var req Request
		if err := json.Unmarshal(lineCopy, &req); err != nil {
			s.Emitter.Write(errorResponse(nil, codeParseError, "parse error: "+err.Error()))
			continue
		}

		// Lifecycle-class requests (initialize, shutdown, ping, ...) run
		// inline once every earlier request has finished, so the session
		// state they read or change follows arrival order.
		if s.Dispatcher.Classify(req) == ClassLifecycle {
			s.wg.Wait()
			s.wg.Add(1)
			s.dispatch(ctx, req)
			continue
		}

		s.wg.Add(1)
		go s.dispatch(ctx, req)
	}

	s.wg.Wait()
	cancel()
	if s.Dispatcher.Session.State() == session.ShuttingDown {
		s.Dispatcher.Session.Terminate()
	}
	s.Logger.Lifecycle("server_stop", nil)
	return scanner.Err()
}

// dispatch runs one request under its concurrency class's gate.
func (s *Server) dispatch(ctx context.Context, req Request) {
	defer s.wg.Done()

	switch s.Dispatcher.Classify(req) {
	case ClassInteractive:
		s.ioGate.Lock()
		defer s.ioGate.Unlock()
	case ClassReadOnly:
		s.ioGate.RLock()
		defer s.ioGate.RUnlock()
	}

	resp := s.Dispatcher.HandleRequest(ctx, req)
	if resp != nil {
		s.Emitter.Write(*resp)
	}
}
