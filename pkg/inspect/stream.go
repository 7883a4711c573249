package inspect

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/bloc/pkg/dom"
)

// SameOriginCheck accepts requests without an Origin header and requests
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && u.Host == r.Host
}

// client is one WebSocket subscriber.
type client struct {
	conn  *websocket.Conn
	codec codec
	send  chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// enqueue must run on the loop goroutine. It reports false when the
// client's buffer is full.
func (c *client) enqueue(msg *Message) bool {
	data, err := c.codec.marshal(msg)
	if err != nil {
		return false
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *client) writePump(timeout time.Duration) {
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(timeout))
			if err := c.conn.WriteMessage(c.codec.frameType, data); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (i *Inspector) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := i.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{
		conn:  conn,
		codec: codecFor(r.URL.Query().Get("format")),
		send:  make(chan []byte, i.sendBuffer),
		done:  make(chan struct{}),
	}

	// The snapshot is queued in the same loop task that subscribes the
	// client, so no mutation falls between the two.
	if err := i.loop.Submit(func() { i.subscribe(c) }); err != nil {
		conn.Close()
		return
	}
	go c.writePump(i.writeTimeout)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	c.close()
	i.loop.Submit(func() { i.unsubscribe(c) })
}

func (i *Inspector) subscribe(c *client) {
	if !c.enqueue(&Message{Type: MessageSnapshot, State: i.state()}) {
		c.close()
		return
	}
	i.clients[c] = struct{}{}
	if i.unobserve == nil {
		i.unobserve = i.doc.Observe(dom.ObserverFunc(i.broadcast))
	}
	i.logger.Debug("inspector client connected", "clients", len(i.clients), "format", c.codec.name)
}

func (i *Inspector) unsubscribe(c *client) {
	if _, ok := i.clients[c]; !ok {
		return
	}
	delete(i.clients, c)
	if len(i.clients) == 0 && i.unobserve != nil {
		i.unobserve()
		i.unobserve = nil
	}
	i.logger.Debug("inspector client disconnected", "clients", len(i.clients))
}

// broadcast runs on the loop goroutine for every document mutation.
func (i *Inspector) broadcast(m dom.Mutation) {
	i.seq++
	msg := &Message{Type: MessageMutation, Mutation: newRecord(i.seq, m)}
	for c := range i.clients {
		if !c.enqueue(msg) {
			i.logger.Warn("dropping slow inspector client")
			c.close()
			i.unsubscribe(c)
		}
	}
}

// ClientCount returns the number of subscribed clients. It must be called
// on the loop goroutine.
func (i *Inspector) ClientCount() int {
	return len(i.clients)
}
