package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

// StatusResponse is a simple status payload
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// TurnRequest is the body of a turn submission
type TurnRequest struct {
	Message string `json:"message"`
}

// TurnResponse is what the agent runtime receives for a turn
type TurnResponse struct {
	TurnID            string   `json:"turn_id"`
	ShouldInvokeModel bool     `json:"should_invoke_model"`
	Prompt            string   `json:"prompt,omitempty"`
	Tools             []string `json:"tools,omitempty"`
	Instructions      []string `json:"instructions,omitempty"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns readiness, checking database and cache connectivity
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A dependency is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Agent endpoints

// handleListAgents godoc
// @Summary      List registered agents
// @Tags         Agents
// @Produce      json
// @Success      200  {object}  map[string][]string
// @Router       /api/v1/agents [get]
func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"agents": s.agents.Names()})
}

// handleTurn godoc
// @Summary      Submit a chat turn to an agent
// @Description  Evaluates toolkit configuration for the turn and returns either a configuration prompt or the model go-ahead with bound tools
// @Tags         Agents
// @Accept       json
// @Produce      json
// @Param        agent    path      string       true  "Agent name"
// @Param        request  body      TurnRequest  true  "User message"
// @Success      200      {object}  TurnResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      404      {object}  ErrorResponse  "Unknown agent"
// @Router       /api/v1/agents/{agent}/turns [post]
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	agentName := r.PathValue("agent")
	configurator, err := s.agents.Configurator(agentName)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown agent")
		return
	}

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	decision, err := configurator.HandleTurn(r.Context(), authCtx.UserID, req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "turn evaluation failed")
		return
	}

	resp := TurnResponse{
		TurnID:            decision.TurnID,
		ShouldInvokeModel: decision.ShouldInvokeModel,
		Prompt:            decision.Prompt,
		Instructions:      decision.Instructions,
	}
	for _, tk := range decision.BoundTools {
		resp.Tools = append(resp.Tools, tk.Name())
	}
	writeJSON(w, http.StatusOK, resp)
}

// OAuth endpoints

// handleOAuthCallback godoc
// @Summary      OAuth provider callback
// @Description  Completes a pending authorization: resolves state, exchanges the code and stores the tokens
// @Tags         OAuth
// @Produce      json
// @Param        state  query     string  true  "CSRF state issued with the authorization URL"
// @Param        code   query     string  true  "Authorization code"
// @Success      200    {object}  StatusResponse
// @Failure      400    {object}  ErrorResponse  "Missing parameters"
// @Failure      401    {object}  ErrorResponse  "Unknown, expired or rejected authorization"
// @Router       /api/v1/oauth/callback [get]
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		writeError(w, http.StatusBadRequest, "state and code are required")
		return
	}

	// Try each provider until one recognizes the state. A config only
	// consumes its own pending records, so trying the wrong one leaves
	// the owning provider's flow intact.
	for _, cfg := range s.oauthConfigs {
		userID, err := cfg.HandleCallback(r.Context(), state, code)
		if err == nil {
			writeJSON(w, http.StatusOK, map[string]string{
				"status":  "authorized",
				"service": cfg.Service(),
				"user_id": userID,
			})
			return
		}
		if !errors.Is(err, domain.ErrAuthorization) {
			writeError(w, http.StatusInternalServerError, "authorization failed")
			return
		}
	}
	writeError(w, http.StatusUnauthorized, "unknown or expired authorization")
}

// Token administration endpoints

// handleListTokens godoc
// @Summary      List stored tokens for a service
// @Description  Returns non-secret metadata per record; secret values are never included
// @Tags         Tokens
// @Produce      json
// @Param        service  path      string  true  "Service name"
// @Success      200      {array}   domain.TokenSummary
// @Failure      404      {object}  ErrorResponse  "Unknown service"
// @Router       /api/v1/tokens/{service} [get]
func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")
	summaries, err := s.tokenAdmin.ListTokens(r.Context(), service)
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			writeError(w, http.StatusNotFound, "unknown service")
			return
		}
		writeError(w, http.StatusInternalServerError, "listing tokens failed")
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleUserTokens godoc
// @Summary      List a user's stored tokens across services
// @Tags         Tokens
// @Produce      json
// @Param        user_id  path      string  true  "User ID"
// @Success      200      {array}   domain.TokenSummary
// @Router       /api/v1/users/{user_id}/tokens [get]
func (s *Server) handleUserTokens(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	details, err := s.tokenAdmin.UserDetails(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading user tokens failed")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// handleDeleteUserTokens godoc
// @Summary      Delete all of a user's stored tokens
// @Tags         Tokens
// @Produce      json
// @Param        user_id  path      string  true  "User ID"
// @Success      200      {object}  map[string][]string
// @Router       /api/v1/users/{user_id}/tokens [delete]
func (s *Server) handleDeleteUserTokens(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	deleted, err := s.tokenAdmin.DeleteUserTokens(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "deleting user tokens failed")
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"deleted": deleted})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
