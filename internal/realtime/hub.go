package realtime

import "github.com/gofiber/websocket/v2"

// Hub fans a broadcast out to every connected display client. One hub
// per process; Run owns the client map, so no locking is needed.
type Hub struct {
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	clients    map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, 16),
		clients:    make(map[*websocket.Conn]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.Register:
			h.clients[c] = true
		case c := <-h.Unregister:
			delete(h.clients, c)
			c.Close()
		case msg := <-h.Broadcast:
			for c := range h.clients {
				c.WriteMessage(websocket.TextMessage, msg)
			}
		}
	}
}
