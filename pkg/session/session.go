// Package session keeps one display controller per browser session in a
// bounded LRU table. An evicted session starts over with an empty selection.
package session

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yumyai/genepanel/pkg/controller"
)

const CookieName = "genepanel_session"

// Factory builds the controller for a new session.
type Factory func() *controller.Controller

type Manager struct {
	mu       sync.Mutex
	sessions *lru.Cache[string, *controller.Controller]
	factory  Factory
	secure   bool
}

// NewManager creates a table holding at most size sessions.
func NewManager(size int, factory Factory) (*Manager, error) {
	sessions, err := lru.New[string, *controller.Controller](size)
	if err != nil {
		return nil, err
	}
	return &Manager{sessions: sessions, factory: factory}, nil
}

// SetSecureCookie marks session cookies Secure, for deployments behind TLS.
func (m *Manager) SetSecureCookie(secure bool) {
	m.secure = secure
}

// Get returns the session id and controller for id, creating a fresh
// session when id is empty or unknown.
func (m *Manager) Get(id string) (string, *controller.Controller) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if c, ok := m.sessions.Get(id); ok {
			return id, c
		}
	}

	id = uuid.NewString()
	c := m.factory()
	m.sessions.Add(id, c)
	return id, c
}

// ForRequest resolves the session of r and (re)sets its cookie on w.
func (m *Manager) ForRequest(w http.ResponseWriter, r *http.Request) *controller.Controller {
	var id string
	if cookie, err := r.Cookie(CookieName); err == nil {
		id = cookie.Value
	}

	newID, c := m.Get(id)
	if newID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    newID,
			Path:     "/",
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return c
}

func (m *Manager) Len() int {
	return m.sessions.Len()
}
