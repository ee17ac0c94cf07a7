package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// Handler answers one control request from a ptt client process.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// connTimeout bounds one request/response exchange so a stalled client
// cannot hold a daemon goroutine open.
const connTimeout = 5 * time.Second

// Serve answers control clients on the daemon's runtime socket until the
// context is cancelled or the listener closes. Each connection carries
// exactly one newline-delimited JSON request and one JSON response.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept control connection: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			serveConn(ctx, conn, handler)
		}()
	}
}

// serveConn runs one exchange. Malformed input gets an error response rather
// than a dropped connection, so clients always see a decodable reply.
func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	reply := func(resp Response) {
		_ = json.NewEncoder(conn).Encode(resp)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		reply(Response{OK: false, Error: fmt.Sprintf("read request: %v", err)})
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		reply(Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)})
		return
	}

	reply(handler.Handle(ctx, req))
}
