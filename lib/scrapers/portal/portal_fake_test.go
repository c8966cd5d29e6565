package portal

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakePortal mimics the endpoints of the registration portal closely enough
// to exercise the client.
type fakePortal struct {
	username string
	password string

	mu       sync.Mutex
	sessions map[string]bool
	counter  int
	hits     map[string]int
	// keepAliveCookie is sent as Set-Cookie by realtime.jsp when non-empty
	keepAliveCookie string
	lastQuery       map[string]string
	classData       []byte
	name            string
}

func newFakePortal(t *testing.T) (*fakePortal, *httptest.Server) {
	p := &fakePortal{
		username:  "student",
		password:  "correct horse",
		sessions:  map[string]bool{},
		hits:      map[string]int{},
		lastQuery: map[string]string{},
		name:      "Jane Doe",
	}
	server := httptest.NewServer(p)
	t.Cleanup(server.Close)
	return p, server
}

func (p *fakePortal) session(r *http.Request) (string, bool) {
	cookie, err := r.Cookie("JSESSIONID")
	if err != nil {
		return "", false
	}
	return cookie.Value, p.sessions[cookie.Value]
}

func (p *fakePortal) Hits(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[path]
}

func (p *fakePortal) LastQuery(path string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastQuery[path]
}

func (p *fakePortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hits[r.URL.Path]++
	p.lastQuery[r.URL.Path] = r.URL.RawQuery

	switch r.URL.Path {
	case "/login.jsp":
		if r.URL.Query().Get("logout") == "link" {
			id, _ := p.session(r)
			delete(p.sessions, id)
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		err := r.ParseForm()
		if err != nil || r.PostForm.Get("word1") != p.username || r.PostForm.Get("word2") != p.password {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "<html>Invalid login</html>")
			return
		}
		if _, ok := r.PostForm["login"]; !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.counter++
		id := fmt.Sprintf("SESSION%04dABC", p.counter)
		p.sessions[id] = true
		w.Header().Add("Set-Cookie", fmt.Sprintf("JSESSIONID=%s; Path=/; HttpOnly", id))
		w.Header().Add("Set-Cookie", "tracking=1; Path=/")
		w.Header().Set("Location", "/home.jsp")
		w.WriteHeader(http.StatusFound)
	case "/home.jsp":
		w.WriteHeader(http.StatusOK)
	case "/realtime.jsp":
		if p.keepAliveCookie != "" {
			w.Header().Set("Set-Cookie", p.keepAliveCookie)
		}
		w.WriteHeader(http.StatusOK)
	case "/api/getAcademicPlans":
		w.Header().Set("Content-Type", "application/json")
		if _, ok := p.session(r); ok && r.URL.Query().Get("term") != "" {
			fmt.Fprint(w, `[{"planId": 1, "name": "Computer Science"}]`)
			return
		}
		fmt.Fprint(w, `[]`)
	case "/criteria.jsp":
		if _, ok := p.session(r); !ok {
			fmt.Fprint(w, "<html><body><div>Not Authenticated</div></body></html>")
			return
		}
		fmt.Fprintf(
			w,
			"<html><body><span class=\"autho_text header_invader_text_top\">\n  %s  \n</span></body></html>",
			p.name,
		)
	case "/getclassdata.jsp":
		w.Header().Set("Content-Type", "text/xml")
		w.Write(p.classData)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (p *fakePortal) SetKeepAliveCookie(cookie string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keepAliveCookie = cookie
}

func (p *fakePortal) SetClassData(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.classData = data
}

func (p *fakePortal) Expire(session Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, string(session))
}

func (p *fakePortal) sessionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

func lowerSession(s Session) string {
	return strings.ToLower(string(s))
}
