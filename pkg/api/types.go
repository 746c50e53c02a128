// Package api exposes the simulation engine as a JSON environment service
// for out-of-process trainers: sessions are created over REST or
// WebSocket, and each session wraps one game that the client drives
// through the legal-actions / apply / roll cycle.
package api

// NewGameRequest configures a new game session. The zero value is a
// standard money game with player 0 on roll first.
type NewGameRequest struct {
	FirstPlayer  int    `json:"first_player"`            // 0, 1 or -1 for random
	ShortGame    bool   `json:"short_game,omitempty"`    // Contact-free training layout
	DoublesOnly  bool   `json:"doubles_only,omitempty"`  // Restrict chance to doubles
	EnableCube   bool   `json:"enable_cube,omitempty"`   // Allow doubling
	Jacoby       bool   `json:"jacoby,omitempty"`        // Jacoby rule (money play)
	Away         [2]int `json:"away,omitempty"`          // Match away scores; 0,0 = money
	Crawford     bool   `json:"crawford,omitempty"`      // Crawford game
	PostCrawford bool   `json:"post_crawford,omitempty"` // Game after Crawford
	Seed         int64  `json:"seed,omitempty"`          // RNG seed (0 = random)
}

// ActionRequest carries one encoded action.
type ActionRequest struct {
	Action int `json:"action"`
}

// StateResponse is the full observable state of a session, sent after
// every mutating call.
type StateResponse struct {
	SessionID        string  `json:"session_id"`
	Board            [28]int `json:"board"` // Canonical signed board, index i = Board(i+1)
	Turn             int     `json:"turn"`
	Phase            string  `json:"phase"`
	Dice             [2]int  `json:"dice"` // (high, low); zero at a chance node
	RemainingActions int     `json:"remaining_actions"`
	CubeValue        int     `json:"cube_value"`
	CubeOwner        int     `json:"cube_owner"`
	IsChanceNode     bool    `json:"is_chance_node"`
	Terminated       bool    `json:"terminated"`
	Winner           int     `json:"winner"`
	Reward           float64 `json:"reward"`
	LegalActions     []int   `json:"legal_actions"`
	PositionID       string  `json:"position_id"`
	PipCount         [2]int  `json:"pip_count"`
	Plies            int     `json:"plies"` // Applied actions so far
}

// FeaturesResponse carries one encoded observation vector.
type FeaturesResponse struct {
	SessionID string    `json:"session_id"`
	Variant   string    `json:"variant"`
	Size      int       `json:"size"`
	Vector    []float64 `json:"vector"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is the health-check payload.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
}
