// Package server отдаёт страницу настроек и JSON API на localhost.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"hyperkey/embedded"
	"hyperkey/internal/config"
	"hyperkey/internal/keys"
)

// DefaultAddr - адрес по умолчанию, на нём же ждёт страница настроек.
const DefaultAddr = "127.0.0.1:19456"

const (
	maxBodyBytes    = 64 << 10
	shutdownTimeout = 5 * time.Second
)

// requiredFields должны присутствовать в теле /set-conf.
var requiredFields = []string{"mode", "hyperKeyCode", "useAlternateChord"}

// Store - то, что сервер читает и меняет в конфигурации.
type Store interface {
	Current() config.Snapshot
	Update(next config.Snapshot) error
}

// Server обслуживает страницу настроек, API и websocket с обновлениями.
type Server struct {
	addr  string
	store Store
	hub   *hub
	web   fs.FS

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	stopOnce sync.Once
}

// New создаёт сервер. Пустой addr означает DefaultAddr.
func New(addr string, store Store) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	web, err := fs.Sub(embedded.Web, "web")
	if err != nil {
		// embed.FS с известной структурой, ошибки быть не может
		panic(err)
	}
	s := &Server{addr: addr, store: store, web: web}
	s.hub = newHub(store.Current)
	return s
}

// Start открывает порт и начинает обслуживание в фоне.
// Ошибка прослушивания обычно означает, что порт занят другим экземпляром.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.New("сервер уже запущен")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("не удалось открыть %s: %w", s.addr, err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	s.listener = ln
	s.srv = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Ошибка HTTP сервера: %v", err)
		}
	}()

	// URL берёт s.mu, поэтому логируем после разблокировки
	log.Printf("Страница настроек: %s", s.URL())
	return nil
}

// URL возвращает адрес страницы настроек.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr := s.addr
	if s.listener != nil {
		addr = s.listener.Addr().String()
	}
	return "http://" + addr + "/"
}

// Stop закрывает websocket и останавливает сервер. Повторный вызов безопасен.
func (s *Server) Stop() error {
	var stopErr error
	s.stopOnce.Do(func() {
		s.hub.close()

		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()
		if srv == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			stopErr = fmt.Errorf("остановка HTTP сервера: %w", err)
		}
	})
	return stopErr
}

// Publish отправляет снимок открытой странице.
func (s *Server) Publish(snap config.Snapshot) {
	s.hub.publish(snap)
}

// Handler возвращает корневой обработчик. POST разрешён только для /set-conf,
// остальные методы кроме GET и HEAD отклоняются.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /config", s.handlePage)
	mux.HandleFunc("GET /static/{file}", s.handleStatic)
	mux.HandleFunc("GET /favicon.ico", s.handleFavicon)
	mux.HandleFunc("GET /get-conf", s.handleGetConf)
	mux.HandleFunc("GET /keys", s.handleKeys)
	mux.HandleFunc("GET /ws", s.hub.handleWS)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			mux.ServeHTTP(w, r)
		case http.MethodPost:
			if r.URL.Path == "/set-conf" {
				s.handleSetConf(w, r)
				return
			}
			http.NotFound(w, r)
		default:
			w.Header().Set("Allow", "GET, HEAD, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, "index.html")
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, path.Join("static", r.PathValue("file")))
}

func (s *Server) serveFile(w http.ResponseWriter, name string) {
	data, err := fs.ReadFile(s.web, name)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(embedded.IconActive)
}

func (s *Server) handleGetConf(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Current())
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, keys.Candidates())
}

func (s *Server) handleSetConf(w http.ResponseWriter, r *http.Request) {
	if !sameOrigin(r) {
		http.Error(w, "cross-origin request", http.StatusForbidden)
		return
	}
	// text/plain и формы браузер отправляет без preflight
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		http.Error(w, "body must be a JSON object", http.StatusBadRequest)
		return
	}
	for i, res := range gjson.GetManyBytes(body, requiredFields...) {
		if !res.Exists() {
			http.Error(w, "missing field "+requiredFields[i], http.StatusBadRequest)
			return
		}
	}

	next, err := config.Decode(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.Update(next); err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Не удалось сохранить настройки: %v", err)
		http.Error(w, "cannot save config", http.StatusInternalServerError)
		return
	}

	log.Printf("Настройки обновлены со страницы: режим %s, клавиша %s", next.Mode, next.HyperKeyCode)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// sameOrigin пропускает запросы без Origin (не из браузера) и запросы со
// страницы, открытой с этого же адреса.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && strings.EqualFold(u.Host, r.Host)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}
