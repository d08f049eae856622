package bot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbot/internal/domain"
	logpkg "github.com/kailas-cloud/searchbot/internal/logger"
	chatuc "github.com/kailas-cloud/searchbot/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/searchbot/internal/usecase/health"
)

// Reply prefixes announcing the response provenance.
const (
	PrefixGenerated = "AI-generated response:\n"
	PrefixRetrieved = "Here is the information you requested:\n"
)

// FailureMessage is sent to the user when retrieval or generation fails.
const FailureMessage = "Sorry, I could not find an answer right now. Please try again later."

// maxActivityBytes bounds the inbound activity body.
const maxActivityBytes = 1 << 20

// Error codes for non-activity error bodies.
const (
	codeBadRequest   = "bad_request"
	codeUnauthorized = "unauthorized"
	codeInternal     = "internal_error"
)

// Responder answers one user turn.
type Responder interface {
	Respond(ctx context.Context, input string) (chatuc.Response, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server is the bot application shell: one inbound message, one reply.
type Server struct {
	chat   Responder
	health HealthChecker
	logger *zap.Logger
	now    func() time.Time
}

// NewServer creates the bot HTTP server.
func NewServer(chat Responder, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{chat: chat, health: health, logger: logger, now: time.Now}
}

// Routes registers the bot endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/messages", s.Messages)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// CORS returns the CORS middleware for web chat clients.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}).Handler
}

// Messages handles POST /api/messages.
func (s *Server) Messages(w http.ResponseWriter, r *http.Request) {
	var in Activity
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActivityBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid activity: "+err.Error())
		return
	}

	if in.Type != ActivityMessage {
		// Conversation updates and typing indicators get no reply.
		writeJSON(w, http.StatusOK, RepliesResponse{Activities: []Activity{}})
		return
	}

	ctx := logpkg.WithConversation(r.Context(), in.Conversation.ID)
	log := logpkg.FromContext(ctx)

	resp, err := s.chat.Respond(ctx, in.Text)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrInvalidQuery):
			status = http.StatusBadRequest
		case errors.Is(err, domain.ErrRetrieval), errors.Is(err, domain.ErrGeneration):
			status = http.StatusBadGateway
		}
		log.Error("Failed to answer message", zap.Int("status", status), zap.Error(err))
		writeJSON(w, status, RepliesResponse{Activities: []Activity{s.reply(&in, FailureMessage)}})
		return
	}

	log.Info("Answered message", zap.String("source", string(resp.Source)))
	writeJSON(w, http.StatusOK, RepliesResponse{
		Activities: []Activity{s.reply(&in, prefix(resp.Source)+resp.Output)},
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// reply addresses a message activity back to the sender of in.
func (s *Server) reply(in *Activity, text string) Activity {
	now := s.now().UTC()
	return Activity{
		Type:         ActivityMessage,
		ID:           uuid.NewString(),
		Timestamp:    &now,
		ChannelID:    in.ChannelID,
		ServiceURL:   in.ServiceURL,
		From:         in.Recipient,
		Recipient:    in.From,
		Conversation: in.Conversation,
		Text:         text,
		TextFormat:   "markdown",
		ReplyToID:    in.ID,
	}
}

func prefix(src chatuc.Source) string {
	if src == chatuc.SourceLLM {
		return PrefixGenerated
	}
	return PrefixRetrieved
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
