package dev

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/overlay/pkg/middleware"
)

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	ReloadTypeReport ReloadMessageType = "report"
	ReloadTypeError  ReloadMessageType = "error"
	ReloadTypeClear  ReloadMessageType = "clear"
)

const writeTimeout = 5 * time.Second

// ReloadMessage is sent to browsers via WebSocket.
type ReloadMessage struct {
	Type    ReloadMessageType `json:"type"`
	HTML    string            `json:"html,omitempty"`
	ShowAll bool              `json:"showAll,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// reloadClient serializes writes to one connection.
type reloadClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *reloadClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ReloadServer manages WebSocket connections of open report pages.
type ReloadServer struct {
	clients  map[*websocket.Conn]*reloadClient
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *middleware.Metrics

	// onConnect returns the message a new client starts from.
	onConnect func() (ReloadMessage, bool)
}

// NewReloadServer creates a new reload server. metrics may be nil.
func NewReloadServer(logger *slog.Logger, metrics *middleware.Metrics) *ReloadServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadServer{
		clients: make(map[*websocket.Conn]*reloadClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in dev
			},
		},
		logger:  logger,
		metrics: metrics,
	}
}

// HandleWebSocket upgrades the connection and holds it until the client
// goes away.
func (r *ReloadServer) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.metrics.RecordWebSocketError("upgrade")
		r.logger.Debug("reload upgrade failed", "error", err)
		return
	}

	client := &reloadClient{conn: conn}
	r.mu.Lock()
	r.clients[conn] = client
	r.mu.Unlock()
	r.metrics.RecordClientConnect()
	r.logger.Debug("reload client connected", "remote", req.RemoteAddr)

	if r.onConnect != nil {
		if msg, ok := r.onConnect(); ok {
			if data, err := json.Marshal(msg); err == nil {
				client.write(data)
			}
		}
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.metrics.RecordWebSocketError("read")
			}
			break
		}
	}

	r.remove(conn)
	r.logger.Debug("reload client disconnected", "remote", req.RemoteAddr)
}

// NotifyReport sends new report markup to all clients.
func (r *ReloadServer) NotifyReport(html string, showAll bool) {
	r.broadcast(ReloadMessage{Type: ReloadTypeReport, HTML: html, ShowAll: showAll})
	r.metrics.RecordReload()
}

// NotifyError sends an error message to all clients.
func (r *ReloadServer) NotifyError(errMsg string) {
	r.broadcast(ReloadMessage{Type: ReloadTypeError, Error: errMsg})
}

// broadcast sends a message to all connected clients. Clients that fail
// to receive it are dropped.
func (r *ReloadServer) broadcast(msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	r.mu.RLock()
	clients := make([]*reloadClient, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	r.mu.RUnlock()

	for _, client := range clients {
		if err := client.write(data); err != nil {
			r.metrics.RecordWebSocketError("write")
			r.remove(client.conn)
		}
	}
}

func (r *ReloadServer) remove(conn *websocket.Conn) {
	r.mu.Lock()
	_, ok := r.clients[conn]
	delete(r.clients, conn)
	r.mu.Unlock()

	if ok {
		r.metrics.RecordClientDisconnect()
	}
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (r *ReloadServer) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close closes all client connections.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(r.clients))
	for conn := range r.clients {
		conns = append(conns, conn)
	}
	r.mu.Unlock()

	for _, conn := range conns {
		r.remove(conn)
	}
}

// ClientScript keeps the report root in sync with the server. The root
// container's content is replaced wholesale on every report message.
const ClientScript = `(function() {
    'use strict';

    var rootID = '` + RootID + `';
    var toggleSelector = '[data-overlay-runtime-error-collapsed-action]';
    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;

    function root() {
        return document.getElementById(rootID);
    }

    function replaceReport(html) {
        var el = root();
        if (el) {
            el.innerHTML = html;
        }
    }

    function showError(message) {
        clearError();
        var banner = document.createElement('pre');
        banner.id = 'overlay-load-error';
        banner.textContent = message;
        document.body.insertBefore(banner, document.body.firstChild);
    }

    function clearError() {
        var banner = document.getElementById('overlay-load-error');
        if (banner) {
            banner.remove();
        }
    }

    document.addEventListener('click', function(e) {
        var button = e.target.closest(toggleSelector);
        if (!button) {
            return;
        }
        e.preventDefault();
        fetch('/_overlay/toggle', {method: 'POST'})
            .then(function(res) { return res.text(); })
            .then(replaceReport);
    });

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(protocol + '//' + location.host + '/_overlay/reload');

        ws.onopen = function() {
            reconnectDelay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }

            switch (msg.type) {
                case 'report':
                    clearError();
                    replaceReport(msg.html || '');
                    break;
                case 'error':
                    showError(msg.error);
                    break;
                case 'clear':
                    clearError();
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    if (document.readyState === 'loading') {
        document.addEventListener('DOMContentLoaded', connect);
    } else {
        connect();
    }
})();
`
