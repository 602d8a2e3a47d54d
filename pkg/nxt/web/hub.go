// Package web serves the daemon HTTP endpoints: metrics, statistics and a
// websocket stream of connection status.
package web

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/nxt.go/pkg/nxt/comm"
)

// StatusMessage is sent to websocket clients on every status change.
type StatusMessage struct {
	Connected bool      `json:"connected"`
	Port      string    `json:"port,omitempty"`
	Type      string    `json:"type,omitempty"`
	Time      time.Time `json:"time"`
}

// Hub fans out status changes to websocket clients. A client receives the
// latest status right after connecting.
type Hub struct {
	lock    sync.Mutex
	current *StatusMessage
	clients map[*websocket.Conn]chan StatusMessage
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]chan StatusMessage)}
}

// StatusChanged implements comm.StatusNotifier. Slow clients miss updates
// rather than blocking the caller.
func (h *Hub) StatusChanged(_ context.Context, s comm.Status) {
	msg := StatusMessage{Connected: s.Connected, Port: s.Port, Type: s.Type.String(), Time: time.Now()}
	h.lock.Lock()
	defer h.lock.Unlock()
	h.current = &msg
	for ws, ch := range h.clients {
		select {
		case ch <- msg:
		default:
			glog.Warningf("status client %s: update dropped", ws.Request().RemoteAddr)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// Handler returns the websocket handler.
func (h *Hub) Handler() websocket.Handler {
	return websocket.Handler(h.serve)
}

func (h *Hub) serve(ws *websocket.Conn) {
	defer ws.Close()
	ch := make(chan StatusMessage, 8)
	h.lock.Lock()
	h.clients[ws] = ch
	if h.current != nil {
		ch <- *h.current
	}
	h.lock.Unlock()
	defer func() {
		h.lock.Lock()
		delete(h.clients, ws)
		h.lock.Unlock()
	}()

	closedCh := make(chan struct{})
	go func() {
		defer close(closedCh)
		var discard []byte
		for websocket.Message.Receive(ws, &discard) == nil {
		}
	}()
	glog.V(1).Infof("status client %s connected", ws.Request().RemoteAddr)
	for {
		select {
		case msg := <-ch:
			if err := websocket.JSON.Send(ws, msg); err != nil {
				glog.V(1).Infof("status client %s: %v", ws.Request().RemoteAddr, err)
				return
			}
		case <-closedCh:
			glog.V(1).Infof("status client %s disconnected", ws.Request().RemoteAddr)
			return
		}
	}
}
