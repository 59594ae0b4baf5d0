package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"kinetic/internal/api"
	"kinetic/internal/catalog"
	"kinetic/internal/config"
	"kinetic/internal/logging"
	"kinetic/internal/services"
	"kinetic/internal/services/identity"
	"kinetic/internal/session"
)

type apiServer struct {
	bind      string
	logger    *slog.Logger
	daemon    *Daemon
	maxUpload int64

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:      bind,
		logger:    logger,
		daemon:    d,
		maxUpload: int64(cfg.Workflow.MaxUploadMiB) << 20,
	}

	token := cfg.Paths.APIToken
	route := func(handler http.HandlerFunc) http.HandlerFunc {
		return requestIDMiddleware(authMiddleware(token, handler))
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", route(srv.handleStatus))
	mux.HandleFunc("/api/categories", route(srv.handleCategories))
	mux.HandleFunc("/api/upload", route(srv.handleUpload))
	mux.HandleFunc("/api/upload/metadata", route(srv.handleUploadMetadata))
	mux.HandleFunc("/api/verify-worldid", route(srv.handleVerify))
	mux.HandleFunc("/api/videos", route(srv.handleVideos))
	mux.HandleFunc("/api/videos/", route(srv.handleVideo))
	mux.HandleFunc("/api/sessions", route(srv.handleSessions))
	mux.HandleFunc("/api/sessions/", route(srv.handleSession))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func requestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		next(w, r.WithContext(services.WithRequestID(r.Context(), requestID)))
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Running:            status.Running,
		PID:                status.PID,
		CatalogDBPath:      status.CatalogDBPath,
		LockFilePath:       status.LockFilePath,
		LiveSessions:       status.LiveSessions,
		VideosByCategory:   status.VideosByCategory,
		PinningConfigured:  status.PinningConfigured,
		IdentityConfigured: status.IdentityConfigured,
		ChainConfigured:    status.ChainConfigured,
	})
}

func (s *apiServer) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.CategoriesResponse{Categories: catalog.SkillCategories})
}

func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.daemon.pins.Configured() {
		s.writeError(w, http.StatusInternalServerError, "pinning service not configured")
		return
	}

	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+(1<<20))
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported content type %q, expected video", contentType))
		return
	}
	if s.maxUpload > 0 && header.Size > s.maxUpload {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("file exceeds the %d MiB upload limit", s.maxUpload>>20))
		return
	}

	keyvalues := map[string]string{"app": "kinetic"}
	if owner := strings.TrimSpace(r.FormValue("walletAddress")); owner != "" {
		keyvalues["owner"] = catalog.NormalizeAddress(owner)
	}
	result, err := s.daemon.pins.PinFile(r.Context(), header.Filename, file, keyvalues)
	if err != nil {
		s.log().Error("pin upload failed", logging.Error(err))
		s.writeError(w, services.HTTPStatus(err), "failed to pin file")
		return
	}

	if err := s.daemon.notifier.NotifyUploadPinned(r.Context(), header.Filename, result.IPFSHash); err != nil {
		s.log().Warn("upload notification failed", logging.Error(err))
	}

	s.writeJSON(w, http.StatusOK, api.UploadResponse{
		Success:    true,
		IPFSHash:   result.IPFSHash,
		PinSize:    result.PinSize,
		Timestamp:  result.Timestamp,
		GatewayURL: s.daemon.pins.GatewayURL(result.IPFSHash),
	})
}

func (s *apiServer) handleUploadMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.daemon.pins.Configured() {
		s.writeError(w, http.StatusInternalServerError, "pinning service not configured")
		return
	}

	var metadata map[string]any
	if err := json.NewDecoder(r.Body).Decode(&metadata); err != nil || metadata == nil {
		s.writeError(w, http.StatusBadRequest, "metadata must be a JSON object")
		return
	}

	name, _ := metadata["name"].(string)
	if name == "" {
		name = "metadata.json"
	}
	result, err := s.daemon.pins.PinJSON(r.Context(), name, metadata)
	if err != nil {
		s.log().Error("pin metadata failed", logging.Error(err))
		s.writeError(w, services.HTTPStatus(err), "failed to pin metadata")
		return
	}

	s.writeJSON(w, http.StatusOK, api.MetadataUploadResponse{Success: true, IPFSHash: result.IPFSHash})
}

func (s *apiServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.daemon.verifier == nil {
		s.writeError(w, http.StatusInternalServerError, "identity provider not configured")
		return
	}

	var req api.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.daemon.verifier.Verify(r.Context(), identity.Proof{
		Proof:             req.Proof,
		MerkleRoot:        req.MerkleRoot,
		NullifierHash:     req.NullifierHash,
		VerificationLevel: req.VerificationLevel,
	})
	if err != nil {
		detail := ""
		if result != nil {
			detail = result.Detail
		}
		status := services.HTTPStatus(err)
		if status == http.StatusBadRequest {
			s.writeJSON(w, status, api.VerifyResponse{Success: false, Verified: false, Detail: detail})
			return
		}
		s.log().Error("identity verification failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "verification provider unavailable")
		return
	}

	if result.Verified && strings.TrimSpace(req.WalletAddress) != "" {
		address := catalog.NormalizeAddress(req.WalletAddress)
		if err := s.daemon.store.EnsureAccount(r.Context(), address, false); err != nil {
			s.log().Warn("ensure account failed", logging.Error(err))
		} else if err := s.daemon.store.MarkAccountVerified(r.Context(), address, result.NullifierHash); err != nil {
			s.log().Warn("mark account verified failed", logging.Error(err))
		}
		if err := s.daemon.notifier.NotifyHumanVerified(r.Context(), address); err != nil {
			s.log().Warn("verify notification failed", logging.Error(err))
		}
	}

	s.writeJSON(w, http.StatusOK, api.VerifyResponse{
		Success:           true,
		Verified:          result.Verified,
		NullifierHash:     result.NullifierHash,
		VerificationLevel: req.VerificationLevel,
		Detail:            result.Detail,
	})
}

func (s *apiServer) handleVideos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		filter := catalog.Filter{
			Category: strings.TrimSpace(query.Get("category")),
			Search:   strings.TrimSpace(query.Get("search")),
			Owner:    strings.TrimSpace(query.Get("owner")),
		}
		videos, err := s.daemon.videos.List(r.Context(), filter)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.VideoListResponse{Videos: videos})
	case http.MethodPost:
		var req api.CreateVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		view, err := s.daemon.videos.Create(r.Context(), req)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.VideoResponse{Success: true, Video: view})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleVideo(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/videos/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "video not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		view, err := s.daemon.videos.Describe(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.VideoResponse{Video: view})
	case http.MethodPut:
		var req api.UpdateVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		view, err := s.daemon.videos.Update(r.Context(), id, req)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.VideoResponse{Success: true, Video: view})
	case http.MethodDelete:
		owner := strings.TrimSpace(r.URL.Query().Get("ownerAddress"))
		if owner == "" && r.Body != nil {
			var req api.DeleteVideoRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			owner = req.OwnerAddress
		}
		if err := s.daemon.videos.Delete(r.Context(), id, owner); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.DeleteResponse{Success: true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := s.daemon.sessions.Create(req.WalletAddress)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.SessionResponse{Session: api.FromSession(*sess)})
}

func (s *apiServer) handleSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if action == "" {
		switch r.Method {
		case http.MethodGet:
			sess, err := s.daemon.sessions.Get(id)
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(sess)})
		case http.MethodDelete:
			s.daemon.sessions.Discard(id)
			s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		default:
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.handleSessionAction(w, r, id, action)
}

func (s *apiServer) handleSessionAction(w http.ResponseWriter, r *http.Request, id, action string) {
	r = r.WithContext(services.WithSessionID(r.Context(), id))
	var (
		snapshot session.Session
		err      error
	)
	switch action {
	case "upload":
		var req api.AttachUploadRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		snapshot, err = s.daemon.sessions.AttachUpload(id, req.ContentID, req.FileName)
		if err == nil && req.ThumbnailCID != "" {
			snapshot, err = s.daemon.sessions.AttachThumbnail(id, req.ThumbnailCID)
		}
	case "verify":
		var req api.VerifyRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if s.daemon.verifier == nil {
			s.writeError(w, http.StatusInternalServerError, "identity provider not configured")
			return
		}
		result, verifyErr := s.daemon.verifier.Verify(r.Context(), identity.Proof{
			Proof:             req.Proof,
			MerkleRoot:        req.MerkleRoot,
			NullifierHash:     req.NullifierHash,
			VerificationLevel: req.VerificationLevel,
		})
		if verifyErr != nil {
			s.writeServiceError(w, r, verifyErr)
			return
		}
		if !result.Verified {
			s.writeError(w, http.StatusBadRequest, "personhood proof rejected")
			return
		}
		snapshot, err = s.daemon.sessions.SetVerified(id, result.NullifierHash)
	case "advance":
		snapshot, err = s.daemon.sessions.AdvanceToDetails(id)
	case "details":
		var req api.SetDetailsRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		snapshot, err = s.daemon.sessions.SetDetails(id, req.Title, req.Description, req.SkillCategory)
	case "mint":
		snapshot, err = s.daemon.sessions.Mint(r.Context(), id)
	case "register":
		snapshot, err = s.daemon.sessions.RegisterIP(r.Context(), id)
	case "license":
		var req api.AttachLicenseRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		snapshot, err = s.daemon.sessions.AttachLicense(r.Context(), id, req.Terms)
	case "back":
		snapshot, err = s.daemon.sessions.Back(id)
	default:
		s.writeError(w, http.StatusNotFound, "unknown session action")
		return
	}

	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(snapshot)})
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		attrs := []any{logging.Error(err)}
		if requestID, ok := services.RequestIDFromContext(r.Context()); ok {
			attrs = append(attrs, logging.String("request_id", requestID))
		}
		if sessionID, ok := services.SessionIDFromContext(r.Context()); ok {
			attrs = append(attrs, logging.String("session_id", sessionID))
		}
		s.log().Error("request failed", attrs...)
		s.writeError(w, status, "internal error")
		return
	}
	s.writeError(w, status, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
