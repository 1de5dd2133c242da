// Command gridflow-ws exposes a gridflow engine over a websocket, relaying
// set_cell requests in and rebroadcasting the engine's events as JSON
// frames to every connected client.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/closeread/gridflow"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans out engine events to every connected client and relays
// inbound update requests into the engine.
type hub struct {
	engine  *gridflow.Engine
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

func newHub() *hub {
	h := &hub{
		engine:  gridflow.NewEngine(gridflow.DefaultLimits()),
		clients: make(map[*websocket.Conn]bool),
	}
	h.engine.Subscribe(h.onEvent)
	return h
}

// updateRequest is the inbound frame shape: set a cell's raw text.
type updateRequest struct {
	Type  string `json:"type"`
	Cell  string `json:"cell"`
	Value string `json:"value"`
}

// cellUpdate is the outbound frame shape for a single changed cell.
type cellUpdate struct {
	Type    string `json:"type"`
	Cell    string `json:"cell"`
	Display string `json:"display"`
	Error   string `json:"error,omitempty"`
}

func (h *hub) onEvent(e gridflow.Event) {
	switch e.Kind {
	case gridflow.EventCellChanged:
		h.broadcast(cellUpdate{Type: "cell_updated", Cell: e.Address.ToLabel(), Display: displayValue(e.After)})
	case gridflow.EventCellsRecomputed:
		for _, addr := range e.Addresses {
			h.broadcast(cellUpdate{Type: "cell_updated", Cell: addr.ToLabel(), Display: displayValue(h.engine.GetValue(addr))})
		}
	case gridflow.EventError:
		h.broadcast(cellUpdate{Type: "error", Error: e.Message})
	}
}

func displayValue(v gridflow.ComputedValue) string {
	if v.IsError() {
		return v.Err.Kind.String()
	}
	switch v.Kind {
	case gridflow.KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case gridflow.KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case gridflow.KindText:
		return v.Text
	default:
		return ""
	}
}

func (h *hub) broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("write failed: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade error:", err)
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var req updateRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			log.Println("bad request:", err)
			continue
		}
		if req.Type != "set_cell" {
			continue
		}
		ref, err := gridflow.FromLabel(req.Cell)
		if err != nil {
			h.broadcast(cellUpdate{Type: "error", Error: err.Error()})
			continue
		}
		if err := h.engine.SetCell(ref.Address, req.Value); err != nil {
			h.broadcast(cellUpdate{Type: "error", Error: err.Error()})
		}
	}
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	h := newHub()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)

	log.Printf("gridflow-ws listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}
