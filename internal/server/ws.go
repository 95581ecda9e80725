// internal/server/ws.go
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// WSHandler upgrades HTTP connections and serves the line protocol over
// WebSocket. One text frame carries exactly one protocol line, without a
// trailing newline.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"asgard"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			s.Log.Warnf("websocket accept error from %s: %v", r.RemoteAddr, err)
			return
		}
		s.Log.Infof("websocket connection established from %s", r.RemoteAddr)
		s.serveWS(r.Context(), c)
	}
}

func (s *Server) serveWS(ctx context.Context, conn *websocket.Conn) {
	c := NewClient()
	s.addClient(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Write pump.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for line := range c.Out {
			wctx, wcancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Write(wctx, websocket.MessageText, []byte(line))
			wcancel()
			if err != nil {
				return
			}
		}
	}()

	go s.keepalive(c, ctx.Done())

	for {
		rctx, rcancel := context.WithTimeout(ctx, s.IdleTimeout)
		typ, data, err := conn.Read(rctx)
		rcancel()
		if err != nil {
			break
		}
		if typ != websocket.MessageText {
			continue
		}
		if s.handleLine(c, string(data)) {
			break
		}
	}

	s.dropClient(c)
	c.CloseSend()
	<-done
	conn.Close(websocket.StatusNormalClosure, "bye")
	s.Log.Infof("websocket client %s disconnected", c.ID)
}
