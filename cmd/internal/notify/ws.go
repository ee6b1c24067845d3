package notify

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	authapi "minder/cmd/internal/auth/api"
)

const wsMaxPingFailures = 3

// GatewayConfig controls the WebSocket notification endpoint.
type GatewayConfig struct {
	// AllowedOrigins lists origins permitted to open a connection, as
	// host[:port] or full origin URLs. Empty means same-origin only.
	AllowedOrigins []string

	WriteTimeout time.Duration
	PingInterval time.Duration
	ReadLimit    int64
}

// LoadGatewayConfigFromEnv builds a GatewayConfig from MINDER_WS_* variables,
// falling back to safe defaults.
func LoadGatewayConfigFromEnv() GatewayConfig {
	return GatewayConfig{
		AllowedOrigins: envCSV("MINDER_WS_ALLOWED_ORIGINS", nil),
		WriteTimeout:   envDuration("MINDER_WS_WRITE_TIMEOUT", 5*time.Second),
		PingInterval:   envDuration("MINDER_WS_PING_INTERVAL", 30*time.Second),
		ReadLimit:      envInt64("MINDER_WS_READ_LIMIT", 4096),
	}
}

// Gateway serves /ws/notifications. Each authenticated connection subscribes
// the caller to their own notification stream; frames flow server to client
// only.
type Gateway struct {
	log *slog.Logger
	hub *Hub
	cfg GatewayConfig
}

func NewGateway(log *slog.Logger, hub *Hub, cfg GatewayConfig) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{log: log, hub: hub, cfg: cfg}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := authapi.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if !g.originAllowed(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(g.cfg.AllowedOrigins),
	})
	if err != nil {
		g.log.WarnContext(r.Context(), "ws.accept.failed", "err", err.Error())
		return
	}
	if g.cfg.ReadLimit > 0 {
		conn.SetReadLimit(g.cfg.ReadLimit)
	}

	sub, cancel := g.hub.Subscribe(p.UserID)
	defer cancel()

	// Clients never send application frames; CloseRead drains control frames
	// and cancels the context when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	g.log.InfoContext(ctx, "ws.client.connected", "user_id", p.UserID, "session_id", p.SessionID)
	defer g.log.InfoContext(context.WithoutCancel(ctx), "ws.client.disconnected", "user_id", p.UserID)

	g.writeLoop(ctx, conn, sub)
}

func (g *Gateway) writeLoop(ctx context.Context, conn *websocket.Conn, sub <-chan Notification) {
	ticker := time.NewTicker(g.cfg.PingInterval)
	defer ticker.Stop()

	pingFailures := 0
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case n, ok := <-sub:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "shutting down")
				return
			}
			if err := g.writeNotification(ctx, conn, n); err != nil {
				_ = conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-ticker.C:
			if err := g.ping(ctx, conn); err != nil {
				pingFailures++
				if pingFailures >= wsMaxPingFailures {
					_ = conn.Close(websocket.StatusPolicyViolation, "ping timeout")
					return
				}
				continue
			}
			pingFailures = 0
		}
	}
}

func (g *Gateway) writeNotification(ctx context.Context, conn *websocket.Conn, n Notification) error {
	wctx, cancel := context.WithTimeout(ctx, g.cfg.WriteTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, n)
}

func (g *Gateway) ping(ctx context.Context, conn *websocket.Conn) error {
	pctx, cancel := context.WithTimeout(ctx, g.cfg.WriteTimeout)
	defer cancel()
	return conn.Ping(pctx)
}

// originAllowed applies the allowlist before the handshake. Same-origin
// requests, and requests without an Origin header, always pass.
func (g *Gateway) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	host := originHostOnly(origin)
	if host == "" {
		return false
	}
	if strings.EqualFold(host, r.Host) {
		return true
	}
	for _, allowed := range g.cfg.AllowedOrigins {
		if strings.EqualFold(host, originHostOnly(allowed)) {
			return true
		}
	}
	return false
}

// originHostOnly reduces a full origin or bare host value to host[:port].
func originHostOnly(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if strings.Contains(v, "://") {
		u, err := url.Parse(v)
		if err != nil || u.Host == "" {
			return ""
		}
		return u.Host
	}
	return v
}

func originPatterns(allowed []string) []string {
	out := make([]string, 0, len(allowed))
	for _, a := range allowed {
		if h := originHostOnly(a); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func envCSV(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}
