package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"showdown-battle/game"
	"showdown-battle/parser"
)

var (
	ErrSessionClosed   = errors.New("battle session closed")
	ErrSessionNotFound = errors.New("battle session not found")
	ErrTooManySessions = errors.New("too many battle sessions")
	ErrSideNotPlayable = errors.New("side is played by the ai")
)

// subscriberBuffer is how many updates a subscriber may lag before it is
// dropped.
const subscriberBuffer = 64

// Update carries the protocol lines a command produced and the state after it.
type Update struct {
	Lines []string
	State game.BattleState
}

// Session owns one battle. Every read and write of the battle runs on the
// session goroutine, in the order the commands arrived.
type Session struct {
	ID      string
	Created time.Time

	// VersusAI is set when side two is driven by the battle's own chooser.
	VersusAI bool

	cmds      chan func()
	quit      chan struct{}
	closeOnce sync.Once
	lastUsed  atomic.Int64

	// Owned by the session goroutine.
	battle  *game.Battle
	logSent int
	subs    map[int]chan Update
	nextSub int
	onEnd   func(id string, state game.BattleState)
	ended   bool
}

func newSession(id string, b *game.Battle, versusAI bool, onEnd func(string, game.BattleState)) *Session {
	s := &Session{
		ID:       id,
		Created:  time.Now(),
		VersusAI: versusAI,
		cmds:     make(chan func()),
		quit:     make(chan struct{}),
		battle:   b,
		subs:     make(map[int]chan Update),
		onEnd:    onEnd,
	}
	s.touch()
	go s.run()
	return s
}

func (s *Session) run() {
	for {
		select {
		case fn := <-s.cmds:
			fn()
			s.publish()
		case <-s.quit:
			for id, ch := range s.subs {
				close(ch)
				delete(s.subs, id)
			}
			return
		}
	}
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// do runs fn on the session goroutine and waits for it.
func (s *Session) do(ctx context.Context, fn func()) error {
	s.touch()
	done := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(done) }:
	case <-s.quit:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-s.quit:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publish fans out log entries added since the last publish and saves the
// replay once the battle has ended.
func (s *Session) publish() {
	state := s.battle.State()
	if len(state.Log) == s.logSent {
		return
	}
	u := Update{State: state}
	for _, e := range state.Log[s.logSent:] {
		u.Lines = append(u.Lines, parser.FormatEntry(e))
	}
	s.logSent = len(state.Log)
	for id, ch := range s.subs {
		select {
		case ch <- u:
		default:
			sessionLogger().Warn().Str("battle", s.ID).Int("subscriber", id).Msg("dropping slow subscriber")
			close(ch)
			delete(s.subs, id)
		}
	}
	if state.Phase == game.PhaseEnded && !s.ended {
		s.ended = true
		if s.onEnd != nil {
			s.onEnd(s.ID, state)
		}
	}
}

func (s *Session) State(ctx context.Context) (game.BattleState, error) {
	var state game.BattleState
	err := s.do(ctx, func() { state = s.battle.State() })
	return state, err
}

// SubmitResult is the outcome of one submitted action. Legal is what the
// side may submit next.
type SubmitResult struct {
	Accepted bool
	State    game.BattleState
	Legal    []game.Action
}

// Submit hands a to the battle for side. Rejected actions leave the
// battle untouched and report Accepted false.
func (s *Session) Submit(ctx context.Context, side game.Side, a game.Action) (SubmitResult, error) {
	if s.VersusAI && side != game.SideOne {
		return SubmitResult{}, ErrSideNotPlayable
	}
	var res SubmitResult
	err := s.do(ctx, func() {
		if side == game.SideOne {
			res.Accepted = s.battle.SubmitAction(a)
		} else {
			res.Accepted = s.battle.Submit(side, a)
		}
		res.State = s.battle.State()
		res.Legal = s.battle.LegalActions(side)
	})
	return res, err
}

// Legal is empty while side waits for the other side to act.
func (s *Session) Legal(ctx context.Context, side game.Side) ([]game.Action, error) {
	var legal []game.Action
	err := s.do(ctx, func() { legal = s.battle.LegalActions(side) })
	return legal, err
}

// Subscribe returns a channel of updates, starting with the whole log so
// far. The channel is closed when the session closes or the subscriber
// falls too far behind.
func (s *Session) Subscribe(ctx context.Context) (<-chan Update, func(), error) {
	ch := make(chan Update, subscriberBuffer)
	var id int
	err := s.do(ctx, func() {
		id = s.nextSub
		s.nextSub++
		state := s.battle.State()
		u := Update{State: state}
		for _, e := range state.Log {
			u.Lines = append(u.Lines, parser.FormatEntry(e))
		}
		ch <- u
		s.subs[id] = ch
	})
	if err != nil {
		return nil, nil, err
	}
	cancel := func() {
		_ = s.do(context.Background(), func() {
			if sub, ok := s.subs[id]; ok {
				close(sub)
				delete(s.subs, id)
			}
		})
	}
	return ch, cancel, nil
}

func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
}

func (s *Session) Closed() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

// Manager is the registry of live sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	max      int
	ttl      time.Duration
}

func NewManager(max int, ttl time.Duration) *Manager {
	return &Manager{sessions: make(map[string]*Session), max: max, ttl: ttl}
}

func (m *Manager) Create(b *game.Battle, versusAI bool, onEnd func(string, game.BattleState)) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.max > 0 && len(m.sessions) >= m.max {
		return nil, ErrTooManySessions
	}
	s := newSession(uuid.NewString(), b, versusAI, onEnd)
	m.sessions[s.ID] = s
	sessionLogger().Info().Str("battle", s.ID).Int("live", len(m.sessions)).Msg("battle session started")
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Closed() {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reap closes sessions idle for longer than the TTL and returns how many.
func (m *Manager) Reap(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.Closed() || (m.ttl > 0 && now.Sub(s.idleSince()) > m.ttl) {
			s.Close()
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// StartReaper reaps idle sessions every interval until ctx is done.
func (m *Manager) StartReaper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := m.Reap(now); n > 0 {
					sessionLogger().Info().Int("closed", n).Msg("idle battle sessions closed")
				}
			}
		}
	}()
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
}
