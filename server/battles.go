package server

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"showdown-battle/ai"
	"showdown-battle/game"
	"showdown-battle/parser"
	"showdown-battle/store"
)

const (
	replaySaveTimeout = 5 * time.Second
	wsWriteWait       = 10 * time.Second
	wsReadWait        = 60 * time.Second
	defaultReplayList = 50
)

// battleRequest starts a battle. An empty team or opponent gets a rental
// team; Versus is "ai" (the default) or "human".
type battleRequest struct {
	Team       TeamRequest `json:"team"`
	Opponent   TeamRequest `json:"opponent"`
	Difficulty string      `json:"difficulty,omitempty"`
	Versus     string      `json:"versus,omitempty"`
	Seed       *uint64     `json:"seed,omitempty"`
}

type battleResponse struct {
	ID       string           `json:"id"`
	VersusAI bool             `json:"versusAi"`
	State    game.BattleState `json:"state"`
	Legal    []game.Action    `json:"legal"`
	Warnings []string         `json:"warnings,omitempty"`
}

// parseSide accepts "p1" and "p2".
func parseSide(s string) (game.Side, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p1", "":
		return game.SideOne, true
	case "p2":
		return game.SideTwo, true
	}
	return game.SideOne, false
}

func (s *Server) rental(rng game.RNG, name string, size int) (game.TeamConfig, error) {
	slots, err := game.GenerateTeam(s.dex, rng, size)
	if err != nil {
		return game.TeamConfig{}, err
	}
	return game.TeamConfig{Name: name, Slots: slots}, nil
}

func (s *Server) createBattle(c *gin.Context) {
	var req battleRequest
	if !bindJSON(c, &req) {
		return
	}
	difficulty := s.opts.Difficulty
	if req.Difficulty != "" {
		d, ok := ai.ParseDifficulty(strings.ToLower(req.Difficulty))
		if !ok {
			abort(c, fmt.Errorf("%w: unknown difficulty %q", ErrBadRequest, req.Difficulty))
			return
		}
		difficulty = d
	}
	versusAI := true
	switch req.Versus {
	case "", "ai":
	case "human":
		versusAI = false
	default:
		abort(c, fmt.Errorf("%w: versus must be ai or human", ErrBadRequest))
		return
	}
	rng, err := seededRNG(req.Seed)
	if err != nil {
		abort(c, err)
		return
	}

	var (
		one, two game.TeamConfig
		warnings []string
	)
	if req.Team.empty() {
		one, err = s.rental(rng, "Player", game.MaxTeamSize)
	} else {
		one, warnings, err = req.Team.config(s.dex, "Player")
	}
	if err != nil {
		abort(c, err)
		return
	}
	if req.Opponent.empty() {
		two, err = s.rental(rng, "Rival", len(one.Slots))
		two.Mechanic = one.Mechanic
	} else {
		var more []string
		two, more, err = req.Opponent.config(s.dex, "Rival")
		warnings = append(warnings, more...)
	}
	if err != nil {
		abort(c, err)
		return
	}

	opts := game.Options{RNG: rng}
	if versusAI {
		engine, err := ai.New(difficulty, game.NewRNG(uint64(rng.IntN(math.MaxInt))))
		if err != nil {
			abort(c, err)
			return
		}
		opts.Opponent = engine
	}
	b, err := game.NewBattle(one, two, opts)
	if err != nil {
		abort(c, err)
		return
	}
	sess, err := s.sessions.Create(b, versusAI, s.saveReplay)
	if err != nil {
		abort(c, err)
		return
	}
	state, err := sess.State(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	serverLogger().Info().Str("battle", sess.ID).Bool("versusAi", versusAI).
		Str("difficulty", string(difficulty)).Msg("battle created")
	c.JSON(http.StatusCreated, battleResponse{
		ID:       sess.ID,
		VersusAI: versusAI,
		State:    state,
		Legal:    state.LegalActions(game.SideOne),
		Warnings: warnings,
	})
}

// saveReplay runs on the session goroutine once a battle ends.
func (s *Server) saveReplay(id string, state game.BattleState) {
	if s.replays == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), replaySaveTimeout)
	defer cancel()
	if err := s.replays.SaveReplay(ctx, store.NewReplay(id, state, time.Now())); err != nil {
		serverLogger().Error().Err(err).Str("battle", id).Msg("save replay")
		return
	}
	serverLogger().Info().Str("battle", id).Int("turns", state.Turn).Msg("replay saved")
}

func (s *Server) session(c *gin.Context) (*Session, bool) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		abort(c, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) getBattle(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	state, err := sess.State(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	legal, err := sess.Legal(c.Request.Context(), game.SideOne)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, battleResponse{
		ID:       sess.ID,
		VersusAI: sess.VersusAI,
		State:    state,
		Legal:    legal,
	})
}

func (s *Server) legalActions(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	side, ok := parseSide(c.Query("side"))
	if !ok {
		abort(c, fmt.Errorf("%w: side %q", ErrBadRequest, c.Query("side")))
		return
	}
	legal, err := sess.Legal(c.Request.Context(), side)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"side": side.String(), "legal": legal})
}

type actionRequest struct {
	Side   string      `json:"side,omitempty"`
	Action game.Action `json:"action"`
}

type actionResponse struct {
	Accepted bool             `json:"accepted"`
	State    game.BattleState `json:"state"`
	Legal    []game.Action    `json:"legal"`
}

// submit runs one action through the session. A rejected action is not
// an error; the caller gets the legal list back instead.
func (s *Server) submit(ctx context.Context, sess *Session, req actionRequest) (actionResponse, error) {
	side, ok := parseSide(req.Side)
	if !ok {
		return actionResponse{}, fmt.Errorf("%w: side %q", ErrBadRequest, req.Side)
	}
	res, err := sess.Submit(ctx, side, req.Action)
	if err != nil {
		return actionResponse{}, err
	}
	return actionResponse{Accepted: res.Accepted, State: res.State, Legal: res.Legal}, nil
}

func (s *Server) submitAction(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req actionRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := s.submit(c.Request.Context(), sess, req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) battleSummary(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	state, err := sess.State(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(parser.RenderBattleState(&state)))
}

// writeEvent writes one server-sent event, splitting data over as many
// data lines as it needs.
func writeEvent(w io.Writer, event, data string) {
	fmt.Fprintf(w, "event: %s\n", event)
	for _, l := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", l)
	}
	fmt.Fprint(w, "\n")
}

// battleEvents streams protocol lines and an HTML summary after every
// update until the battle ends or the client goes away.
func (s *Server) battleEvents(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	updates, cancel, err := sess.Subscribe(ctx)
	if err != nil {
		abort(c, err)
		return
	}
	defer cancel()

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		serverLogger().Debug().Err(err).Msg("stream keeps the server write timeout")
	}
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ping := time.NewTicker(s.opts.PingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			serverLogger().Debug().Str("battle", sess.ID).Msg("event stream client left")
			return
		case <-ping.C:
			fmt.Fprint(w, ": ping\n\n")
			w.Flush()
		case u, ok := <-updates:
			if !ok {
				return
			}
			for _, l := range u.Lines {
				writeEvent(w, "line", l)
			}
			writeEvent(w, "summary", parser.RenderBattleState(&u.State))
			if u.State.Phase == game.PhaseEnded {
				writeEvent(w, "end", resultText(u.State))
				w.Flush()
				return
			}
			w.Flush()
		}
	}
}

func resultText(state game.BattleState) string {
	switch {
	case state.Winner != nil:
		return state.Teams[*state.Winner].Name + " won"
	case state.Draw:
		return "draw"
	}
	return ""
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsMessage is every frame on the battle socket. Clients send
// {"type":"action"}; the server sends update, result and error frames.
type wsMessage struct {
	Type     string            `json:"type"`
	Side     string            `json:"side,omitempty"`
	Action   *game.Action      `json:"action,omitempty"`
	Lines    []string          `json:"lines,omitempty"`
	State    *game.BattleState `json:"state,omitempty"`
	Accepted *bool             `json:"accepted,omitempty"`
	Legal    []game.Action     `json:"legal,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func (s *Server) battleSocket(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		serverLogger().Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	updates, cancel, err := sess.Subscribe(ctx)
	if err != nil {
		_ = conn.WriteJSON(wsMessage{Type: "error", Error: err.Error()})
		return
	}
	defer cancel()

	replies := make(chan wsMessage, 8)
	writerDone := make(chan struct{})
	go s.socketWriter(conn, updates, replies, writerDone)

	_ = conn.SetReadDeadline(time.Now().Add(wsReadWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadWait))
	})

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				serverLogger().Debug().Err(err).Str("battle", sess.ID).Msg("websocket read")
			}
			break
		}
		reply := s.handleSocketMessage(ctx, sess, msg)
		select {
		case replies <- reply:
		case <-writerDone:
			return
		}
	}
	close(replies)
	<-writerDone
}

func (s *Server) handleSocketMessage(ctx context.Context, sess *Session, msg wsMessage) wsMessage {
	if msg.Type != "action" || msg.Action == nil {
		return wsMessage{Type: "error", Error: "expected an action message"}
	}
	res, err := s.submit(ctx, sess, actionRequest{Side: msg.Side, Action: *msg.Action})
	if err != nil {
		return wsMessage{Type: "error", Error: err.Error()}
	}
	return wsMessage{Type: "result", Side: msg.Side, Accepted: &res.Accepted, Legal: res.Legal}
}

// socketWriter is the only goroutine that writes to conn.
// Closing conn on exit unblocks the reader.
func (s *Server) socketWriter(conn *websocket.Conn, updates <-chan Update, replies <-chan wsMessage, done chan<- struct{}) {
	defer close(done)
	defer conn.Close()
	ping := time.NewTicker(s.opts.PingInterval)
	defer ping.Stop()
	write := func(m wsMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(m); err != nil {
			serverLogger().Debug().Err(err).Msg("websocket write")
			return false
		}
		return true
	}
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "battle closed"),
					time.Now().Add(wsWriteWait))
				return
			}
			state := u.State
			if !write(wsMessage{Type: "update", Lines: u.Lines, State: &state}) {
				return
			}
		case m, ok := <-replies:
			if !ok {
				return
			}
			if !write(m) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) listReplays(c *gin.Context) {
	if s.replays == nil {
		c.JSON(http.StatusOK, gin.H{"replays": []store.Summary{}})
		return
	}
	limit := defaultReplayList
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			abort(c, fmt.Errorf("%w: limit %q", ErrBadRequest, raw))
			return
		}
		limit = n
	}
	list, err := s.replays.ListReplays(c.Request.Context(), limit)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"replays": list})
}

func (s *Server) getReplay(c *gin.Context) {
	if s.replays == nil {
		abort(c, store.ErrNotFound)
		return
	}
	r, err := s.replays.GetReplay(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"replay": r, "protocol": parser.FormatLog(r.State.Log)})
}
