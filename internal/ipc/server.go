package ipc

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/darkawower/walld/internal/daemon"
)

// connDeadline bounds a misbehaving client; normal exchanges finish in
// well under a second.
const connDeadline = 5 * time.Second

// Server exposes a daemon's operations on a unix socket.
type Server struct {
	d    *daemon.Daemon
	path string

	ln     net.Listener
	wg     sync.WaitGroup
	closed chan struct{}
}

// NewServer creates a server for the daemon on the given socket path.
func NewServer(d *daemon.Daemon, path string) *Server {
	return &Server{d: d, path: path, closed: make(chan struct{})}
}

// Serve binds the socket and starts accepting connections. A stale
// socket file from a previous run is removed first.
func (s *Server) Serve() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.path, err)
	}
	s.ln = ln

	s.wg.Add(1)
	go s.acceptLoop()

	slog.Info("rpc server listening", "socket", s.path)
	return nil
}

// Stop closes the listener, waits for in-flight connections and
// removes the socket file.
func (s *Server) Stop() {
	close(s.closed)
	if s.ln != nil {
		s.ln.Close()
	}
	s.wg.Wait()
	os.Remove(s.path)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Warn("accept failed", "error", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

// handle serves one request/response exchange and closes the
// connection.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connDeadline))

	var req Request
	if err := jsoniter.NewDecoder(conn).Decode(&req); err != nil {
		slog.Warn("malformed request", "error", err)
		return
	}

	resp := s.dispatch(&req)
	if err := jsoniter.NewEncoder(conn).Encode(resp); err != nil {
		slog.Warn("failed to write response", "method", req.Method, "error", err)
	}
}

func (s *Server) dispatch(req *Request) *Response {
	result, err := s.call(req)
	if err != nil {
		return &Response{Error: &CallError{
			Name:    daemon.ErrorName(err),
			Message: err.Error(),
		}}
	}

	raw, err := jsoniter.Marshal(result)
	if err != nil {
		return &Response{Error: &CallError{
			Name:    "InternalError",
			Message: err.Error(),
		}}
	}
	return &Response{Result: raw}
}

func (s *Server) call(req *Request) (any, error) {
	switch req.Method {
	case MethodSetSchedule:
		var p scheduleParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return s.d.SetSchedule(p.Schedule, p.Units)

	case MethodSetFiles:
		var p filesParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return s.d.SetFiles(p.Files)

	case MethodSetShuffle:
		var p shuffleParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return s.d.SetShuffle(p.Shuffle)

	case MethodGetInterfaces:
		return s.d.GetInterfaces()

	case MethodGetActiveInterfaces:
		return s.d.GetActiveInterfaces()

	case MethodSetVariableValue:
		var p variableParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return s.d.SetVariableValue(p.Interface, p.Variable, p.Value)

	case MethodActivateInterface:
		var p interfaceParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return s.d.ActivateInterface(p.Interface)

	case MethodDeactivateInterface:
		var p interfaceParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return s.d.DeactivateInterface(p.Interface)

	case MethodGetCurrentWallpaper:
		return s.d.GetCurrentWallpaperFilename()

	case MethodForceWallpaperChange:
		var p changeParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return s.d.ForceWallpaperChange(p.NoReset)

	case MethodPause:
		var p scheduleParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return s.d.Pause(p.Schedule, p.Units)

	case MethodResume:
		return s.d.Resume()
	}

	return nil, fmt.Errorf("unknown method %q", req.Method)
}

func unmarshalParams(req *Request, out any) error {
	if len(req.Params) == 0 {
		return nil
	}
	if err := jsoniter.Unmarshal(req.Params, out); err != nil {
		return fmt.Errorf("invalid params for %s: %w", req.Method, err)
	}
	return nil
}
