package client

// Gate answers "should this element be rendered" from the session store.
// Navigation entries, buttons and table actions all go through it, so a user
// without the permission never sees the control.
type Gate struct {
	store *Store
}

func NewGate(store *Store) *Gate {
	return &Gate{store: store}
}

// Visible reports whether the current user holds at least one of the
// permission codes. Logged out means nothing is visible.
func (g *Gate) Visible(permissions ...string) bool {
	session := g.store.Get()
	if session == nil || session.User == nil {
		return false
	}
	if len(permissions) == 0 {
		return true
	}
	return session.User.HasAnyPermission(permissions...)
}

// OnChange re-runs fn on every session change so gated UI can re-render.
// Returns the subscription's cancel function.
func (g *Gate) OnChange(fn func()) func() {
	return g.store.Subscribe(func(*Session) { fn() })
}
