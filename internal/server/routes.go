package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"gameroom-server/internal/engine"
	"gameroom-server/internal/history"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	qrSize              = 320
	readLimit           = 16 << 10
)

func (s *Server) RegisterRoutes() http.Handler {
	mux := httprouter.New()

	mux.GET("/", s.bannerHandler)
	mux.GET("/health", s.healthHandler)
	mux.GET("/api/rooms", s.roomsHandler)
	mux.GET("/api/history", s.historyHandler)
	mux.GET("/rooms/:code/qr", s.qrHandler)
	mux.GET("/ws/:kind", s.websocketHandler)

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		s.logger.Error().Interface("panic", i).Str("path", r.URL.Path).Msg("Handler panicked")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}

	return s.corsMiddleware(mux)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) bannerHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, BannerResponse{
		Message: "gameroom-server",
		Version: s.version,
		Kinds:   s.engine.Kinds(),
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Stats:  s.engine.Stats(),
	})
}

func (s *Server) roomsHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, RoomsResponse{Rooms: s.engine.Rooms()})
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	resp := HistoryResponse{Entries: []history.Entry{}}
	if s.history != nil {
		entries, err := s.history.Recent(r.Context(), limit)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to read match history")
			http.Error(w, "history unavailable", http.StatusServiceUnavailable)
			return
		}
		resp.Entries = append(resp.Entries, entries...)
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// qrHandler renders a PNG QR code of the join link for a live room.
func (s *Server) qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := strings.ToUpper(ps.ByName("code"))

	room, ok := s.engine.Room(code)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	png, err := qrcode.Encode(joinLink(r, room.Kind, room.Code), qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// joinLink points at the client page for kind with the room code filled in.
func joinLink(r *http.Request, kind, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     "/" + kind,
		RawQuery: url.Values{"room": {code}}.Encode(),
	}
	return u.String()
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	kind := ps.ByName("kind")
	if !s.engine.HasKind(kind) {
		http.NotFound(w, r)
		return
	}

	patterns := s.allowedOrigins
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: patterns,
	})
	if err != nil {
		s.logger.Debug().Err(err).Str("origin", r.Header.Get("Origin")).Msg("Websocket upgrade failed")
		return
	}
	defer socket.CloseNow()
	socket.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := newClient(uuid.NewString(), kind, socket)
	log := s.logger.With().Str("connection", client.ID).Str("kind", kind).Logger()

	s.connectionManager.AddConnection(client)
	if err := s.engine.Connect(client.ID, kind); err != nil {
		s.connectionManager.RemoveConnection(client.ID)
		log.Error().Err(err).Msg("Engine refused connection")
		socket.Close(websocket.StatusTryAgainLater, "server unavailable")
		return
	}
	s.connectionHealth.UpdateActivity(client.ID)
	log.Info().Msg("New connection")

	go func() {
		if err := client.writePump(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Debug().Err(err).Msg("Write pump stopped")
		}
		cancel()
	}()

	defer func() {
		if err := s.engine.Disconnect(client.ID); err != nil && !errors.Is(err, engine.ErrStopped) {
			log.Warn().Err(err).Msg("Disconnect failed")
		}
		s.connectionManager.RemoveConnection(client.ID)
		s.rateLimiter.RemoveConnection(client.ID)
		s.connectionHealth.RemoveConnection(client.ID)
		log.Info().Msg("Connection closed")
	}()

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("Read ended")
			return
		}

		if msgType != websocket.MessageText {
			log.Debug().Msg("Non-text input")
			continue
		}

		s.connectionHealth.UpdateActivity(client.ID)

		if !s.rateLimiter.Allow(client.ID) {
			client.enqueue(errorMessage(CodeRateLimited, "Too many messages, slow down."))
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			client.enqueue(errorMessage(CodeInvalidJSON, "Invalid JSON"))
			continue
		}

		s.handleMessage(log, client, msg)
	}
}
