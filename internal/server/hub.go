package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hyperkey/internal/config"
)

const (
	writeDeadline      = 5 * time.Second
	readDeadline       = 90 * time.Second
	pingInterval       = 30 * time.Second
	maxReadMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	// CheckOrigin не задан: gorilla по умолчанию требует Origin, совпадающий с Host.
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// hub держит одно websocket-соединение страницы настроек.
// Новое соединение заменяет старое (перезагрузка страницы).
//
// Порядок блокировок: writeMu -> mu.
type hub struct {
	current func() config.Snapshot

	mu     sync.RWMutex
	conn   *websocket.Conn
	closed bool

	// gorilla/websocket не допускает конкурентной записи
	writeMu sync.Mutex
}

func newHub(current func() config.Snapshot) *hub {
	return &hub{current: current}
}

func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket: не удалось установить соединение: %v", err)
		return
	}
	conn.SetReadLimit(maxReadMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	old := h.conn
	h.conn = conn
	h.mu.Unlock()
	if old != nil {
		old.Close()
	}

	// новая страница сразу получает текущие настройки
	h.send(conn, h.current())

	pingDone := make(chan struct{})
	go h.pingLoop(conn, pingDone)

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("websocket: паника в обработчике: %v", rec)
		}
		close(pingDone)
		h.clearIfCurrent(conn)
		conn.Close()
	}()

	// входящие сообщения не ожидаются, читаем ради close и pong
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket: ошибка чтения: %v", err)
			}
			return
		}
	}
}

func (h *hub) publish(snap config.Snapshot) {
	h.mu.RLock()
	conn := h.conn
	h.mu.RUnlock()
	if conn == nil {
		return
	}
	h.send(conn, snap)
}

func (h *hub) send(conn *websocket.Conn, snap config.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("websocket: не удалось сериализовать настройки: %v", err)
		return
	}

	h.writeMu.Lock()
	err = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err == nil {
		err = conn.WriteMessage(websocket.TextMessage, data)
	}
	h.writeMu.Unlock()

	if err != nil {
		log.Printf("websocket: запись не удалась, соединение закрыто: %v", err)
		h.clearIfCurrent(conn)
		conn.Close()
	}
}

func (h *hub) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			h.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline))
			h.writeMu.Unlock()
			if err != nil {
				h.clearIfCurrent(conn)
				conn.Close()
				return
			}
		}
	}
}

func (h *hub) clearIfCurrent(conn *websocket.Conn) {
	h.mu.Lock()
	if h.conn == conn {
		h.conn = nil
	}
	h.mu.Unlock()
}

func (h *hub) close() {
	h.mu.Lock()
	conn := h.conn
	h.conn = nil
	h.closed = true
	h.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
