package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/desertthunder/spx/internal/shared"
)

// DefaultTimeout bounds the wait for each response datagram.
const DefaultTimeout = 10 * time.Second

// Send sends req to the instance listening on 127.0.0.1:port and waits for the
// complete response. It fails with [shared.ErrSocketTimeout] when nothing answers
// within timeout.
func Send(ctx context.Context, port int, req *Request, timeout time.Duration) (*Response, error) {
	if req.Kind() == "" {
		return nil, fmt.Errorf("%w: request must set exactly one variant", shared.ErrInvalidInput)
	}
	if req.ID == "" {
		req.ID = shared.GenerateID()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	if len(data) > MaxPacketSize {
		return nil, fmt.Errorf("%w: request exceeds %d bytes", shared.ErrInvalidInput, MaxPacketSize)
	}

	conn, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to client socket: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var body []byte
	buf := make([]byte, MaxPacketSize)
	for {
		deadline := time.Now().Add(timeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}

		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w on port %d: %v", shared.ErrSocketTimeout, port, err)
		}
		if n == 0 {
			break
		}
		body = append(body, buf[:n]...)
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}
