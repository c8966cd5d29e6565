package registrar

import (
	"encoding/json"
	"net/http"

	"regassist-backend/lib/scrapers/portal"

	"go.opentelemetry.io/otel/codes"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Session portal.Session `json:"session"`
}

type validResponse struct {
	Valid bool `json:"valid"`
}

type keepAliveResponse struct {
	Alive bool `json:"alive"`
}

type nameResponse struct {
	Name string `json:"name"`
}

func (s Service) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "registrar:Login")
	defer span.End()

	var req loginRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.Username == "" || req.Password == "" {
		writeError(ctx, w, http.StatusBadRequest, "username and password are required")
		return
	}

	session, err := s.portal.Login(ctx, req.Username, req.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to login")
		writeError(ctx, w, http.StatusBadGateway, "failed to reach the portal")
		return
	}
	if session == portal.NoSession {
		writeError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJson(ctx, w, http.StatusOK, loginResponse{Session: session})
}

func (s Service) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "registrar:Logout")
	defer span.End()

	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	s.keepAlive.Unregister(session)
	s.names.Forget(session)

	err := s.portal.Logout(ctx, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to logout")
		writeError(ctx, w, http.StatusBadGateway, "failed to reach the portal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s Service) IsValidSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "registrar:IsValidSession")
	defer span.End()

	session := sessionFromRequest(r)
	valid, err := s.portal.IsValidSession(ctx, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to validate session")
		writeError(ctx, w, http.StatusBadGateway, "failed to reach the portal")
		return
	}
	if !valid {
		s.names.Forget(session)
	}
	writeJson(ctx, w, http.StatusOK, validResponse{Valid: valid})
}

// KeepAlive extends the caller's session and keeps extending it in the
// background until the portal stops accepting it.
func (s Service) KeepAlive(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "registrar:KeepAlive")
	defer span.End()

	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	alive, err := s.keepAlive.KeepAlive(ctx, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to keep session alive")
		writeError(ctx, w, http.StatusBadGateway, "failed to reach the portal")
		return
	}
	// rejected sessions are dropped from the name cache by the daemon
	if alive {
		s.keepAlive.Register(session)
	}
	writeJson(ctx, w, http.StatusOK, keepAliveResponse{Alive: alive})
}

func (s Service) GetName(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "registrar:GetName")
	defer span.End()

	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	// the criteria page is the authority on whether a session is authenticated
	name, ok, err := s.names.Resolve(ctx, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve name")
		writeError(ctx, w, http.StatusBadGateway, "failed to reach the portal")
		return
	}
	if !ok {
		writeError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJson(ctx, w, http.StatusOK, nameResponse{Name: name})
}
