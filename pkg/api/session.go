package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	mrand "math/rand"
	"sync"
	"time"

	"github.com/yourusername/bgsim/pkg/game"
)

var (
	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the store is at capacity.
	ErrTooManySessions = errors.New("too many sessions")
)

// Session binds one game to one ID. The mutex serializes REST and
// WebSocket access to the same session.
type Session struct {
	ID string

	mu    sync.Mutex
	state *game.State
	rng   *mrand.Rand
	opts  game.Options
}

// Do runs fn with the session locked.
func (sess *Session) Do(fn func(s *game.State, rng *mrand.Rand) error) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.state, sess.rng)
}

// Restart resets the session's game with its original options.
func (sess *Session) Restart() error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state.Reset(sess.opts, sess.rng)
}

// SessionStore holds live sessions keyed by ID.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	max      int
}

// NewSessionStore creates a store holding at most max sessions.
func NewSessionStore(max int) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		max:      max,
	}
}

// Create starts a new game session from a request.
func (st *SessionStore) Create(req NewGameRequest) (*Session, error) {
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := mrand.New(mrand.NewSource(seed))

	opts := game.Options{
		FirstPlayer:  req.FirstPlayer,
		ShortGame:    req.ShortGame,
		DoublesOnly:  req.DoublesOnly,
		EnableCube:   req.EnableCube,
		Jacoby:       req.Jacoby,
		Away:         req.Away,
		Crawford:     req.Crawford,
		PostCrawford: req.PostCrawford,
	}
	s, err := game.New(opts, rng)
	if err != nil {
		return nil, err
	}

	sess := &Session{ID: newSessionID(), state: s, rng: rng, opts: opts}

	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.sessions) >= st.max {
		return nil, ErrTooManySessions
	}
	st.sessions[sess.ID] = sess
	return sess, nil
}

// Get looks a session up by ID.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session. Deleting an unknown ID is not an error.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len reports the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func newSessionID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return hex.EncodeToString(b[:])
}

// snapshotState builds the full observable response for a session. The
// caller must hold the session lock.
func snapshotState(id string, s *game.State) StateResponse {
	resp := StateResponse{
		SessionID:        id,
		Turn:             s.Turn(),
		Phase:            s.Phase().String(),
		RemainingActions: s.RemainingActions(),
		CubeValue:        s.CubeValue(),
		CubeOwner:        s.CubeOwner(),
		IsChanceNode:     s.IsChanceNode(),
		Terminated:       s.Terminated(),
		Winner:           s.Winner(),
		Reward:           s.Reward(),
		PositionID:       s.PositionID(),
		Plies:            len(s.History()),
	}
	for i := 0; i < 28; i++ {
		resp.Board[i] = s.Board(i + 1)
	}
	resp.Dice[0], resp.Dice[1] = s.Dice()
	resp.PipCount[0] = s.PipCount(game.Player0)
	resp.PipCount[1] = s.PipCount(game.Player1)
	if !s.Terminated() && !s.IsChanceNode() {
		resp.LegalActions = append([]int(nil), s.LegalActions()...)
	}
	return resp
}
