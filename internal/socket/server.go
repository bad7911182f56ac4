package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net"

	"github.com/charmbracelet/log"
)

// RequestHandler answers a decoded request with JSON data, or nil for requests
// without a result.
type RequestHandler interface {
	Handle(ctx context.Context, req *Request) ([]byte, error)
}

// HandlerFunc adapts a function to [RequestHandler].
type HandlerFunc func(ctx context.Context, req *Request) ([]byte, error)

func (f HandlerFunc) Handle(ctx context.Context, req *Request) ([]byte, error) {
	return f(ctx, req)
}

// Server receives requests on a loopback UDP socket.
type Server struct {
	conn    *net.UDPConn
	handler RequestHandler
	logger  *log.Logger
}

// Listen binds 127.0.0.1:port. Port 0 picks a free port; see [Server.Addr].
func Listen(port int, handler RequestHandler, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to bind client socket: %w", err)
	}
	logger.Info("started client socket", "addr", conn.LocalAddr())
	return &Server{conn: conn, handler: handler, logger: logger}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Port returns the bound port.
func (s *Server) Port() int {
	return s.Addr().Port
}

// Close closes the socket, stopping [Server.Serve].
func (s *Server) Close() error {
	return s.conn.Close()
}

// Serve handles requests one at a time until ctx is cancelled or the socket is
// closed. Requests that cannot be decoded are logged and dropped.
func (s *Server) Serve(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-done:
		}
	}()

	buf := make([]byte, MaxPacketSize)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Debug("client socket stopped")
				return nil
			}
			s.logger.Warn("failed to receive from the socket", "error", err)
			continue
		}

		var req Request
		if err := json.Unmarshal(buf[:n], &req); err != nil {
			s.logger.Error("cannot decode socket request", "from", addr, "error", err)
			continue
		}

		resp := s.handle(ctx, &req)
		if err := s.send(resp, addr); err != nil {
			s.logger.Warn("failed to send socket response", "to", addr, "error", err)
		}
	}
}

func (s *Server) handle(ctx context.Context, req *Request) *Response {
	s.logger.Info("handling socket request", "id", req.ID, "kind", req.Kind())

	resp := &Response{ID: req.ID}
	data, err := s.handler.Handle(ctx, req)
	if err != nil {
		s.logger.Error("failed to handle socket request", "id", req.ID, "error", err)
		resp.Err = fmt.Sprintf("Bad request: %v", err)
		return resp
	}
	resp.Ok = data
	return resp
}

// send writes the response in chunks of [MaxPacketSize] bytes followed by an
// empty datagram marking the end.
func (s *Server) send(resp *Response, addr *net.UDPAddr) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	for chunk := range Chunks(data) {
		if _, err := s.conn.WriteToUDP(chunk, addr); err != nil {
			return err
		}
	}
	_, err = s.conn.WriteToUDP(nil, addr)
	return err
}

// Chunks splits data into slices of at most [MaxPacketSize] bytes.
func Chunks(data []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for len(data) > 0 {
			n := min(len(data), MaxPacketSize)
			if !yield(data[:n]) {
				return
			}
			data = data[n:]
		}
	}
}
