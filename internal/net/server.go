package net

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"pixelcraft/internal/state"

	"github.com/gorilla/websocket"
)

//go:embed static
var static embed.FS

// maxMessage bounds a single client frame; imported files travel inline.
const maxMessage = 32 << 20

// Hub tracks the live browser sessions.
type Hub struct {
	sessions map[string]*session
	mu       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*session)}
}

func (h *Hub) add(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID()] = s
	log.Printf("[WS] session %s connected from %s", s.ID(), s.conn.RemoteAddr())
}

func (h *Hub) remove(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s.ID())
	log.Printf("[WS] session %s closed", s.ID())
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Server serves the browser front end and one editor per websocket.
type Server struct {
	canvas   state.Config
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewServer(canvas state.Config) *Server {
	return &Server{
		canvas: canvas,
		hub:    NewHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 64 << 10,
		},
	}
}

func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Handler() http.Handler {
	root, err := fs.Sub(static, "static")
	if err != nil {
		panic(err) // embedded at build time
	}
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(root)))
	mux.HandleFunc("/ws", s.serveWS)
	return mux
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessage)

	sess, err := newSession(conn, s.canvas)
	if err != nil {
		log.Printf("[WS] new session: %v", err)
		return
	}
	s.hub.add(sess)
	defer s.hub.remove(sess)
	sess.run()
}

// ListenAndServe serves on addr until ctx is done. ready, if not nil,
// receives the bound address once listening.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if ready != nil {
		ready(ln.Addr())
	}

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	log.Printf("[WS] listening on %s", ln.Addr())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
