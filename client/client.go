// Package client talks to a showdown-battle server: it starts battles over
// HTTP and plays them over the battle websocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"showdown-battle/game"
)

var clientLogger = func() *zerolog.Logger {
	logger := log.With().Str("location", "client").Logger()
	return &logger
}

var ErrNotConnected = errors.New("battle socket not connected")

// Team is a team as Showdown text.
type Team struct {
	Name     string            `json:"name,omitempty"`
	Text     string            `json:"text,omitempty"`
	Mechanic game.MechanicKind `json:"mechanic,omitempty"`
}

type BattleRequest struct {
	Team       Team    `json:"team"`
	Opponent   Team    `json:"opponent"`
	Difficulty string  `json:"difficulty,omitempty"`
	Versus     string  `json:"versus,omitempty"`
	Seed       *uint64 `json:"seed,omitempty"`
}

type Battle struct {
	ID       string           `json:"id"`
	VersusAI bool             `json:"versusAi"`
	State    game.BattleState `json:"state"`
	Legal    []game.Action    `json:"legal"`
	Warnings []string         `json:"warnings,omitempty"`
}

// Message is one battle socket frame.
type Message struct {
	Type     string            `json:"type"`
	Side     string            `json:"side,omitempty"`
	Action   *game.Action      `json:"action,omitempty"`
	Lines    []string          `json:"lines,omitempty"`
	State    *game.BattleState `json:"state,omitempty"`
	Accepted *bool             `json:"accepted,omitempty"`
	Legal    []game.Action     `json:"legal,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type BattleClient struct {
	baseURL string
	http    *http.Client

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewBattleClient returns a client for the server at baseURL, e.g.
// "http://localhost:42069".
func NewBattleClient(baseURL string) (*BattleClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	return &BattleClient{baseURL: strings.TrimRight(u.String(), "/"), http: http.DefaultClient}, nil
}

func (bc *BattleClient) CreateBattle(ctx context.Context, req BattleRequest) (Battle, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Battle{}, fmt.Errorf("encode battle request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, bc.baseURL+"/api/battles", bytes.NewReader(body))
	if err != nil {
		return Battle{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := bc.http.Do(httpReq)
	if err != nil {
		return Battle{}, fmt.Errorf("create battle: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return Battle{}, fmt.Errorf("create battle: %s: %s", resp.Status, e.Error)
	}
	var b Battle
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return Battle{}, fmt.Errorf("decode battle: %w", err)
	}
	clientLogger().Info().Str("battle", b.ID).Msg("battle created")
	return b, nil
}

// Connect opens the websocket for battle id.
func (bc *BattleClient) Connect(ctx context.Context, id string) error {
	wsURL := "ws" + strings.TrimPrefix(bc.baseURL, "http") + "/api/battles/" + url.PathEscape(id) + "/ws"
	clientLogger().Debug().Str("url", wsURL).Msg("connecting")
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial battle socket: %w", err)
	}
	bc.mu.Lock()
	bc.conn = conn
	bc.mu.Unlock()
	return nil
}

// Listen reads frames until the socket closes. The channel is closed when
// reading stops.
func (bc *BattleClient) Listen() (<-chan Message, error) {
	bc.mu.Lock()
	conn := bc.conn
	bc.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConnected
	}
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					clientLogger().Debug().Err(err).Msg("read")
				}
				return
			}
			out <- msg
		}
	}()
	return out, nil
}

func (bc *BattleClient) Send(msg Message) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if bc.conn == nil {
		return ErrNotConnected
	}
	return bc.conn.WriteJSON(msg)
}

func (bc *BattleClient) SubmitAction(side game.Side, a game.Action) error {
	return bc.Send(Message{Type: "action", Side: side.String(), Action: &a})
}

func (bc *BattleClient) Close() error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if bc.conn == nil {
		return nil
	}
	_ = bc.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := bc.conn.Close()
	bc.conn = nil
	return err
}
