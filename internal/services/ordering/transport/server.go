// Package transport exposes the ordering core to a chat gateway over HTTP
// and WebSocket. The gateway posts one update per request and gets back the
// localized text and buttons to show the sender.
package transport

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"

	apperrors "github.com/louisbranch/restobot/internal/platform/errors"
	errori18n "github.com/louisbranch/restobot/internal/platform/errors/i18n"
	"github.com/louisbranch/restobot/internal/platform/requestctx"
	"github.com/louisbranch/restobot/internal/platform/timeouts"
	"github.com/louisbranch/restobot/internal/services/ordering/app"
)

const (
	// TokenHeader carries the shared secret the gateway presents.
	TokenHeader = "X-Bot-Token"

	maxUpdateBytes         = 64 * 1024
	maxDecodeErrorsPerConn = 3
)

// UpdateHandler is the slice of app.Service the transport drives.
type UpdateHandler interface {
	Handle(ctx context.Context, upd app.Update) (app.View, error)
}

// Config wires the HTTP surface.
type Config struct {
	HTTPAddr string
	// Token must match the X-Bot-Token header on every update.
	Token    string
	Service  UpdateHandler
	Renderer *Renderer
	// DefaultLocale applies to updates that carry no locale.
	DefaultLocale string
	// Metrics is served on /metrics when set.
	Metrics http.Handler
	// RateLimit is the per-sender update rate. Zero disables limiting.
	RateLimit         rate.Limit
	RateBurst         int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the bot gateway endpoint.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
}

type updateRequest struct {
	Sender   senderPayload `json:"sender"`
	Locale   string        `json:"locale,omitempty"`
	Command  string        `json:"command,omitempty"`
	Callback string        `json:"callback,omitempty"`
	Text     string        `json:"text,omitempty"`
}

type senderPayload struct {
	ID        senderID `json:"id"`
	FirstName string   `json:"first_name,omitempty"`
}

// senderID accepts chat platform ids sent either as JSON numbers or strings.
type senderID string

func (s *senderID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*s = senderID(strings.TrimSpace(value))
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return fmt.Errorf("sender id: %w", err)
	}
	*s = senderID(number.String())
	return nil
}

type replyBody struct {
	Rendered
	Error *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type streamReply struct {
	Status int `json:"status"`
	replyBody
}

type handler struct {
	token         string
	defaultLocale string
	service       UpdateHandler
	renderer      *Renderer
	limiter       *senderLimiter
}

// NewHandler builds the gateway routes.
func NewHandler(config Config) (http.Handler, error) {
	if config.Service == nil {
		return nil, errors.New("update handler is required")
	}
	if strings.TrimSpace(config.Token) == "" {
		return nil, errors.New("bot token is required")
	}
	if config.Renderer == nil {
		config.Renderer = NewRenderer(nil, nil)
	}
	limit := config.RateLimit
	if limit <= 0 {
		limit = rate.Inf
	}
	h := &handler{
		token:         config.Token,
		defaultLocale: strings.TrimSpace(config.DefaultLocale),
		service:       config.Service,
		renderer:      config.Renderer,
		limiter:       newSenderLimiter(limit, config.RateBurst),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if config.Metrics != nil {
		mux.Handle("/metrics", config.Metrics)
	}
	mux.HandleFunc("/v1/updates", h.serveUpdate)

	stream := websocket.Handler(h.serveStream)
	mux.HandleFunc("/v1/stream", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		token := r.Header.Get(TokenHeader)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if !h.authorized(token) {
			log.Printf("bot: stream unauthorized remote=%s", r.RemoteAddr)
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		stream.ServeHTTP(w, r)
	})
	return mux, nil
}

func (h *handler) authorized(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) == 1
}

func (h *handler) serveUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(r.Header.Get(TokenHeader)) {
		log.Printf("bot: update unauthorized remote=%s", r.RemoteAddr)
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req updateRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	if err := decoder.Decode(&req); err != nil {
		ctx := requestctx.WithLocale(r.Context(), h.locale(""))
		status, body := h.failure(ctx, apperrors.Wrap(apperrors.CodeActionInvalid, "decode update", err))
		writeJSON(w, status, body)
		return
	}
	status, body := h.dispatch(r.Context(), req)
	writeJSON(w, status, body)
}

func (h *handler) serveStream(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()
	ctx := context.Background()
	if request := conn.Request(); request != nil {
		ctx = request.Context()
	}

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)
	decodeErrors := 0
	for {
		var req updateRequest
		if err := decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			status, body := h.failure(requestctx.WithLocale(ctx, h.locale("")), apperrors.Wrap(apperrors.CodeActionInvalid, "decode update", err))
			_ = encoder.Encode(streamReply{Status: status, replyBody: body})
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			decoder = json.NewDecoder(conn)
			continue
		}
		decodeErrors = 0
		status, body := h.dispatch(ctx, req)
		if err := encoder.Encode(streamReply{Status: status, replyBody: body}); err != nil {
			log.Printf("bot: stream write: %v", err)
			return
		}
	}
}

func (h *handler) dispatch(ctx context.Context, req updateRequest) (int, replyBody) {
	ctx = requestctx.WithLocale(ctx, h.locale(req.Locale))
	id := strings.TrimSpace(string(req.Sender.ID))
	if id == "" {
		return h.failure(ctx, apperrors.New(apperrors.CodeActionInvalid, "sender id is required"))
	}
	ctx = requestctx.WithUserID(ctx, id)
	if !h.limiter.Allow(id) {
		return h.failure(ctx, apperrors.New(apperrors.CodeRateLimited, "sender rate limited"))
	}

	view, err := h.service.Handle(ctx, app.Update{
		Caller:   app.Caller{ID: id, DisplayName: strings.TrimSpace(req.Sender.FirstName)},
		Command:  req.Command,
		Callback: req.Callback,
		Text:     req.Text,
	})
	if err != nil {
		return h.failure(ctx, err)
	}
	rendered, err := h.renderer.Render(requestctx.LocaleFromContext(ctx), view)
	if err != nil {
		return h.failure(ctx, apperrors.Wrap(apperrors.CodeUnknown, "render view "+string(view.Kind), err))
	}
	return http.StatusOK, replyBody{Rendered: rendered}
}

func (h *handler) locale(requested string) string {
	if strings.TrimSpace(requested) == "" {
		requested = h.defaultLocale
	}
	return h.renderer.ResolveLocale(requested)
}

func (h *handler) failure(ctx context.Context, err error) (int, replyBody) {
	code := apperrors.CodeOf(err)
	var metadata map[string]string
	if domainErr, ok := apperrors.As(err); ok {
		metadata = domainErr.Metadata
	}
	if code == apperrors.CodeUnknown || code == apperrors.CodePersistenceFailure {
		log.Printf("bot: update from %q failed: %v", requestctx.UserIDFromContext(ctx), err)
	}
	return code.HTTPStatus(), replyBody{Error: &errorBody{
		Code:    string(code),
		Message: errori18n.GetCatalog(requestctx.LocaleFromContext(ctx)).Format(string(code), metadata),
	}}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(body); err != nil {
		log.Printf("bot: write reply: %v", err)
	}
}

// NewServer builds a gateway server bound to config.HTTPAddr.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}
	routes, err := NewHandler(config)
	if err != nil {
		return nil, err
	}
	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           routes,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
		},
	}, nil
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("bot server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("bot server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close stops the server immediately.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	if err := s.httpServer.Close(); err != nil {
		log.Printf("close bot server: %v", err)
	}
}
