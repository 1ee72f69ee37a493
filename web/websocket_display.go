package web

import (
	"encoding/binary"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guslan/chip8"
)

const writeWait = time.Second

// Tone edges are sent as text messages
const (
	TonePlay = "play"
	ToneStop = "stop"
)

var upgrader = websocket.Upgrader{} // use default options

func (server *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		server.logger.Warn("upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	server.logger.Info("connecting to display", slog.String("remote", r.RemoteAddr))
	server.setWs(conn)
	defer server.unsetWs(conn)

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			server.logger.Info("disconnecting from display", slog.String("remote", r.RemoteAddr))
			return
		}

		// the keypad arrives as a big endian bitmask, bit k set while key k is down
		if kind == websocket.BinaryMessage && len(msg) == 2 {
			server.keys.Store(uint32(binary.BigEndian.Uint16(msg)))
		}
	}
}

// IsConnected reports whether a browser is attached to the display
func (server *Server) IsConnected() bool {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	return server.socket != nil
}

func (server *Server) setWs(conn *websocket.Conn) {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	// a newer tab takes over the display
	if server.socket != nil {
		server.socket.Close()
	}
	server.socket = conn
}

func (server *Server) unsetWs(conn *websocket.Conn) {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	// a replaced socket leaves the keys of its successor alone
	if server.socket == conn {
		server.socket = nil
		server.keys.Store(0)
	}
}

// send drops the socket instead of failing, a closed tab must not stop the machine
func (server *Server) send(kind int, data []byte) {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	if server.socket == nil {
		return
	}

	server.socket.SetWriteDeadline(time.Now().Add(writeWait))
	if err := server.socket.WriteMessage(kind, data); err != nil {
		server.logger.Warn("dropping display socket", slog.Any("error", err))
		server.socket.Close()
		server.socket = nil
	}
}

// Render implements chip8.Display.
func (server *Server) Render(fb chip8.FrameBuffer) error {
	server.send(websocket.BinaryMessage, fb[:])

	return nil
}

// Play implements chip8.Buzzer.
func (server *Server) Play() {
	server.send(websocket.TextMessage, []byte(TonePlay))
}

// Stop implements chip8.Buzzer.
func (server *Server) Stop() {
	server.send(websocket.TextMessage, []byte(ToneStop))
}
