package game

import "context"

// Manager owns both engines over one shared Registry, so a channel can
// run either game but never both at once.
type Manager struct {
	Registry  Registry
	Shiritori *Shiritori
	WordBomb  *WordBomb
}

// NewManager wires both engines to the same registry.
func NewManager(d Deps, sc ShiritoriConfig, wc WordBombConfig) *Manager {
	if d.Registry == nil {
		d.Registry = NewMemoryRegistry()
	}
	return &Manager{
		Registry:  d.Registry,
		Shiritori: NewShiritori(d, sc),
		WordBomb:  NewWordBomb(d, wc),
	}
}

// HandleMessage routes msg to the engine running in its channel.
func (m *Manager) HandleMessage(ctx context.Context, msg Message) (Feedback, bool) {
	s, ok := m.Registry.Get(msg.ChannelID)
	if !ok {
		return Feedback{}, false
	}
	switch s.Kind {
	case KindShiritori:
		return m.Shiritori.HandleMessage(ctx, msg)
	case KindWordBomb:
		return m.WordBomb.HandleMessage(ctx, msg)
	}
	return Feedback{}, false
}

// Stop ends whichever game is running in channelID.
func (m *Manager) Stop(ctx context.Context, channelID string) (Summary, error) {
	s, ok := m.Registry.Get(channelID)
	if !ok {
		return Summary{}, ErrNoGame
	}
	switch s.Kind {
	case KindShiritori:
		return m.Shiritori.Stop(ctx, channelID)
	case KindWordBomb:
		return m.WordBomb.Stop(ctx, channelID)
	}
	return Summary{}, ErrNoGame
}

// StopKind ends the game in channelID only if it is of the given kind.
func (m *Manager) StopKind(ctx context.Context, channelID string, kind Kind) (Summary, error) {
	switch kind {
	case KindShiritori:
		return m.Shiritori.Stop(ctx, channelID)
	case KindWordBomb:
		return m.WordBomb.Stop(ctx, channelID)
	}
	return Summary{}, ErrNoGame
}

// Active returns snapshots of every live session.
func (m *Manager) Active() []Info {
	list := m.Registry.List()
	out := make([]Info, 0, len(list))
	for _, s := range list {
		out = append(out, s.Snapshot())
	}
	return out
}

// Lookup returns a snapshot of the session in channelID.
func (m *Manager) Lookup(channelID string) (Info, bool) {
	s, ok := m.Registry.Get(channelID)
	if !ok {
		return Info{}, false
	}
	return s.Snapshot(), true
}
