package route

import (
	"sync"

	"github.com/fardannozami/crimewatch/internal/domain"
)

type View string

// Decision is the outcome of one navigation attempt. When Allowed is false the
// caller should show Redirect; From is the view that was asked for.
type Decision struct {
	Allowed  bool
	Redirect View
	From     View
}

// Guard decides which views need an identity. It does no I/O.
type Guard struct {
	login     View
	protected map[View]bool
}

func NewGuard(login View, protected ...View) *Guard {
	g := &Guard{login: login, protected: make(map[View]bool, len(protected))}
	for _, v := range protected {
		g.protected[v] = true
	}
	return g
}

func (g *Guard) LoginView() View { return g.login }

func (g *Guard) Protected(view View) bool { return g.protected[view] }

func (g *Guard) CanEnter(view View, sess domain.Session) Decision {
	if !g.protected[view] || sess.Authenticated() {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: g.login, From: view}
}

// SessionSource is the read side of the session store.
type SessionSource interface {
	Current() domain.Session
	Subscribe(fn func(domain.Session)) func()
}

// Navigator tracks the active view and re-checks it on every navigation and on
// every session transition.
type Navigator struct {
	guard    *Guard
	sessions SessionSource
	unsub    func()

	mu         sync.Mutex
	current    View
	intended   View
	onRedirect func(from, to View)
}

func NewNavigator(guard *Guard, sessions SessionSource, start View) *Navigator {
	n := &Navigator{guard: guard, sessions: sessions, current: start}
	n.unsub = sessions.Subscribe(n.sessionChanged)
	return n
}

// OnRedirect registers fn to run whenever the navigator forces a redirect.
func (n *Navigator) OnRedirect(fn func(from, to View)) {
	n.mu.Lock()
	n.onRedirect = fn
	n.mu.Unlock()
}

func (n *Navigator) Navigate(view View) Decision {
	d := n.guard.CanEnter(view, n.sessions.Current())

	n.mu.Lock()
	if d.Allowed {
		n.current = view
		if view == n.intended {
			n.intended = ""
		}
	} else {
		n.current = d.Redirect
		n.intended = d.From
	}
	n.mu.Unlock()
	return d
}

func (n *Navigator) Current() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// IntendedDestination is the protected view the last denied navigation asked for.
func (n *Navigator) IntendedDestination() (View, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.intended, n.intended != ""
}

// Resume navigates to the intended destination, if one is pending.
func (n *Navigator) Resume() (Decision, bool) {
	view, ok := n.IntendedDestination()
	if !ok {
		return Decision{}, false
	}
	return n.Navigate(view), true
}

func (n *Navigator) Close() {
	if n.unsub != nil {
		n.unsub()
	}
}

func (n *Navigator) sessionChanged(sess domain.Session) {
	n.mu.Lock()
	from := n.current
	d := n.guard.CanEnter(from, sess)
	if d.Allowed {
		n.mu.Unlock()
		return
	}
	n.current = d.Redirect
	n.intended = from
	fn := n.onRedirect
	n.mu.Unlock()

	if fn != nil {
		fn(from, d.Redirect)
	}
}
