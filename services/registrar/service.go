// Package registrar serves course data and portal session management over
// http for the browser frontend.
package registrar

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"regassist-backend/lib/scrapers/portal"
	"regassist-backend/services/enrollment"
)

// Portal is the subset of *portal.Client the service depends on.
type Portal interface {
	Login(ctx context.Context, username, password string) (portal.Session, error)
	Logout(ctx context.Context, session portal.Session) error
	KeepAlive(ctx context.Context, session portal.Session) (bool, error)
	IsValidSession(ctx context.Context, session portal.Session) (bool, error)
	GetName(ctx context.Context, session portal.Session) (string, bool, error)
	FetchCourseXml(ctx context.Context, courseName string) ([]byte, error)
	FetchCourse(ctx context.Context, courseName string) (portal.Course, error)
}

// SessionHeader carries the portal session of the caller.
const SessionHeader = "X-Session"

type Options struct {
	// StaticDir is served at the root, nothing is served when empty.
	StaticDir string
	// PortalBaseUrl is handed out to clients that answer the prompt.
	PortalBaseUrl string
	// PromptResponse is compared by prefix with the lowercased answer, the
	// base url is never handed out when it is empty.
	PromptResponse string
	NameCacheSize  int
	NameCacheTTL   time.Duration
}

type Service struct {
	portal    Portal
	store     enrollment.Store
	keepAlive *KeepAliveDaemon
	names     nameCache
	options   Options
}

func NewService(p Portal, store enrollment.Store, keepAlive *KeepAliveDaemon, options Options) Service {
	names := newNameCache(p, options.NameCacheSize, options.NameCacheTTL)
	keepAlive.OnRejected(names.Forget)

	return Service{
		portal:    p,
		store:     store,
		keepAlive: keepAlive,
		names:     names,
		options:   options,
	}
}

func (s Service) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/course/{name}", s.GetCourse)
	mux.HandleFunc("GET /api/course/{name}/raw", s.GetCourseRaw)

	mux.HandleFunc("POST /api/session", s.Login)
	mux.HandleFunc("DELETE /api/session", s.Logout)
	mux.HandleFunc("GET /api/session/valid", s.IsValidSession)
	mux.HandleFunc("POST /api/session/keepalive", s.KeepAlive)
	mux.HandleFunc("GET /api/session/name", s.GetName)

	mux.HandleFunc("POST /api/enrollments", s.RecordEnrollment)
	mux.HandleFunc("GET /api/enrollments", s.ListEnrollments)
	mux.HandleFunc("GET /api/enrollments/{course}/{timeBlock}", s.GetEnrollment)
	mux.HandleFunc("DELETE /api/enrollments/{course}/{timeBlock}", s.DeleteEnrollment)

	mux.HandleFunc("GET /api/portal", s.GetPortalBaseUrl)

	if s.options.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.options.StaticDir)))
	}
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJson(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.WarnContext(ctx, "failed to write response", "err", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJson(ctx, w, status, errorResponse{Error: message})
}

func sessionFromRequest(r *http.Request) portal.Session {
	return portal.Session(strings.TrimSpace(r.Header.Get(SessionHeader)))
}

// requireSession writes a 401 and returns false when the request carries no
// session.
func requireSession(w http.ResponseWriter, r *http.Request) (portal.Session, bool) {
	session := sessionFromRequest(r)
	if session == portal.NoSession {
		writeError(r.Context(), w, http.StatusUnauthorized, "missing "+SessionHeader+" header")
		return portal.NoSession, false
	}
	return session, true
}

type portalResponse struct {
	BaseUrl string `json:"baseUrl"`
}

// basePortalUrl returns the portal base url if `answer` starts with the
// configured prompt response, ignoring case.
func (s Service) basePortalUrl(answer string) string {
	if s.options.PromptResponse == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(answer), strings.ToLower(s.options.PromptResponse)) {
		return s.options.PortalBaseUrl
	}
	return ""
}

func (s Service) GetPortalBaseUrl(w http.ResponseWriter, r *http.Request) {
	writeJson(r.Context(), w, http.StatusOK, portalResponse{
		BaseUrl: s.basePortalUrl(r.URL.Query().Get("response")),
	})
}
