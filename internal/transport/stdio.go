// file: internal/transport/stdio.go
package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/fsm"
	"github.com/dkoosis/headlines/internal/logging"
	"github.com/dkoosis/headlines/internal/mcp"
	"github.com/dkoosis/headlines/internal/mcp/mcperrors"
	"github.com/google/uuid"
)

// errLineTooLong marks an input line over MaxMessageSize. The rest of the
// line has been discarded.
var errLineTooLong = errors.New("message exceeds maximum size")

// StdioServer serves newline-delimited JSON requests from in and writes one
// response line per request to out.
type StdioServer struct {
	proc      *processor
	reader    *bufio.Reader
	input     io.Closer
	writer    io.Writer
	writeMu   sync.Mutex
	lifecycle fsm.FSM
	logger    logging.Logger
}

// NewStdioServer creates a stdio transport for d.
func NewStdioServer(d Dispatcher, in io.Reader, out io.Writer, requestTimeout time.Duration, logger logging.Logger) (*StdioServer, error) {
	if d == nil {
		return nil, errors.New("stdio transport requires a dispatcher")
	}
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	logger = logger.WithField("component", "stdio_transport")

	lifecycle, err := fsm.NewLifecycle(logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build server lifecycle")
	}
	input, _ := in.(io.Closer)
	return &StdioServer{
		proc: &processor{
			dispatcher: d,
			timeout:    requestTimeout,
			logger:     logger,
		},
		reader:    bufio.NewReader(in),
		input:     input,
		writer:    out,
		lifecycle: lifecycle,
		logger:    logger,
	}, nil
}

// State reports the lifecycle state.
func (s *StdioServer) State() fsm.State {
	return s.lifecycle.CurrentState()
}

type lineResult struct {
	line []byte
	err  error
}

// Serve processes requests until in reaches EOF or ctx is cancelled. Requests
// are handled in arrival order. On cancellation in is closed when it is an
// io.Closer so the reader goroutine exits; other readers keep that goroutine
// blocked until they return.
func (s *StdioServer) Serve(ctx context.Context) error {
	if err := s.lifecycle.Transition(ctx, fsm.EventStart, nil); err != nil {
		return errors.Wrap(err, "stdio transport cannot start")
	}
	if err := s.lifecycle.Transition(ctx, fsm.EventReady, nil); err != nil {
		return errors.Wrap(err, "stdio transport cannot become ready")
	}
	s.logger.Info("Stdio transport serving.")

	lines := make(chan lineResult)
	go s.readLoop(ctx, lines)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stdio transport cancelled.", "reason", ctx.Err())
			if s.input != nil {
				if err := s.input.Close(); err != nil {
					s.logger.Debug("Closing stdin failed.", "error", err)
				}
			}
			return s.stop(context.Background())
		case res, ok := <-lines:
			if !ok {
				s.logger.Info("Stdin closed.")
				return s.stop(ctx)
			}
			if res.err != nil {
				if errors.Is(res.err, errLineTooLong) {
					s.write(ctx, mcp.ErrorResponse(nil,
						mcperrors.NewInvalidRequestError("Invalid Request: message exceeds 1 MiB", nil)))
					continue
				}
				_ = s.lifecycle.Transition(ctx, fsm.EventFail, nil)
				return errors.Wrap(res.err, "failed to read from stdin")
			}
			s.handleLine(ctx, res.line)
		}
	}
}

func (s *StdioServer) handleLine(ctx context.Context, line []byte) {
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}
	ctx = logging.ContextWithRequestID(ctx, uuid.NewString())
	resp, _, reply := s.proc.process(ctx, line)
	if reply {
		s.write(ctx, resp)
	}
}

func (s *StdioServer) write(ctx context.Context, resp mcp.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to encode response.", "error", err)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.writer.Write(append(data, '\n')); err != nil {
		s.logger.WithContext(ctx).Error("Failed to write response.", "error", err)
	}
}

func (s *StdioServer) stop(ctx context.Context) error {
	if err := s.lifecycle.Transition(ctx, fsm.EventDrain, nil); err != nil {
		return err
	}
	return s.lifecycle.Transition(ctx, fsm.EventStop, nil)
}

// readLoop sends each input line to out and closes it at EOF.
func (s *StdioServer) readLoop(ctx context.Context, out chan<- lineResult) {
	defer close(out)
	for {
		line, err := s.readLine()
		if err == io.EOF && len(line) == 0 {
			return
		}
		if err != nil && err != io.EOF {
			select {
			case out <- lineResult{err: err}:
			case <-ctx.Done():
				return
			}
			if errors.Is(err, errLineTooLong) {
				continue
			}
			return
		}
		select {
		case out <- lineResult{line: line}:
		case <-ctx.Done():
			return
		}
		if err == io.EOF {
			return
		}
	}
}

// readLine reads one line of at most MaxMessageSize bytes. Longer lines are
// consumed and reported as errLineTooLong.
func (s *StdioServer) readLine() ([]byte, error) {
	var buf bytes.Buffer
	tooLong := false
	for {
		chunk, isPrefix, err := s.reader.ReadLine()
		if err != nil {
			if tooLong {
				return nil, errLineTooLong
			}
			return buf.Bytes(), err
		}
		if !tooLong {
			buf.Write(chunk)
			if buf.Len() > MaxMessageSize {
				tooLong = true
				buf.Reset()
			}
		}
		if !isPrefix {
			break
		}
	}
	if tooLong {
		return nil, errLineTooLong
	}
	return buf.Bytes(), nil
}
