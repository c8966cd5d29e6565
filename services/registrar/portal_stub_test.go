package registrar

import (
	"context"
	"errors"
	"sync"

	"regassist-backend/lib/scrapers/portal"
)

var errPortalDown = errors.New("dial tcp: connection refused")

// stubPortal is an in-memory Portal. Sessions map to the name of the user
// that owns them.
type stubPortal struct {
	lock sync.Mutex

	username string
	password string
	name     string
	sessions map[portal.Session]string
	// sessions the portal hands a new identifier for on keep-alive
	rotated map[portal.Session]bool
	// sessions whose keep-alive fails at the transport level
	unreachable map[portal.Session]bool

	// KeepAlive blocks on gate when it is set
	gate           chan struct{}
	keepAliveCalls int
	nameCalls      int

	course     portal.Course
	courseXml  []byte
	courseErr  error
	lastCourse string
}

func newStubPortal() *stubPortal {
	return &stubPortal{
		username:    "student",
		password:    "hunter2",
		name:        "Jane Doe",
		sessions:    map[portal.Session]string{},
		rotated:     map[portal.Session]bool{},
		unreachable: map[portal.Session]bool{},
	}
}

func (p *stubPortal) Login(ctx context.Context, username, password string) (portal.Session, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if username != p.username || password != p.password {
		return portal.NoSession, nil
	}
	session := portal.Session("SESSION" + username)
	p.sessions[session] = p.name
	return session, nil
}

func (p *stubPortal) Logout(ctx context.Context, session portal.Session) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.sessions, session)
	return nil
}

func (p *stubPortal) KeepAlive(ctx context.Context, session portal.Session) (bool, error) {
	p.lock.Lock()
	p.keepAliveCalls++
	gate := p.gate
	p.lock.Unlock()

	if gate != nil {
		<-gate
	}

	p.lock.Lock()
	defer p.lock.Unlock()
	if p.unreachable[session] {
		return false, errPortalDown
	}
	return !p.rotated[session], nil
}

func (p *stubPortal) IsValidSession(ctx context.Context, session portal.Session) (bool, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	_, ok := p.sessions[session]
	return ok, nil
}

func (p *stubPortal) GetName(ctx context.Context, session portal.Session) (string, bool, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.nameCalls++
	name, ok := p.sessions[session]
	return name, ok, nil
}

func (p *stubPortal) FetchCourseXml(ctx context.Context, courseName string) ([]byte, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.lastCourse = courseName
	return p.courseXml, p.courseErr
}

func (p *stubPortal) FetchCourse(ctx context.Context, courseName string) (portal.Course, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.lastCourse = courseName
	if p.courseErr != nil {
		return portal.Course{}, p.courseErr
	}
	return p.course, nil
}

// Expire ends a session on the portal's side.
func (p *stubPortal) Expire(session portal.Session) {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.sessions, session)
}

func (p *stubPortal) KeepAliveCalls() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.keepAliveCalls
}

func (p *stubPortal) NameCalls() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.nameCalls
}
