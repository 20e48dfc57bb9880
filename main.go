package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"showdown-battle/client"
	"showdown-battle/config"
	"showdown-battle/data"
	"showdown-battle/game"
	"showdown-battle/parser"
	"showdown-battle/server"
	"showdown-battle/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("load config: %v", err)
	}
	cfg.SetupLogging(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "play" {
		if err := play(ctx, cfg, os.Args[2:], os.Stdin, os.Stdout); err != nil {
			config.Exitf("play: %v", err)
		}
		return
	}
	if err := serve(ctx, cfg); err != nil {
		config.Exitf("serve: %v", err)
	}
}

func loadDex(ctx context.Context, cfg config.Config) (*data.Dex, error) {
	if cfg.DataDir == "" {
		return data.Default()
	}
	return data.Load(ctx, os.DirFS(cfg.DataDir), "pokedex.json", "moves.json")
}

func serve(ctx context.Context, cfg config.Config) error {
	dex, err := loadDex(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load dex: %w", err)
	}
	replays, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer replays.Close()

	srv := server.New(dex, replays, server.Options{
		Difficulty:   cfg.AIDifficulty(),
		PingInterval: cfg.PingInterval,
		SessionTTL:   cfg.SessionTTL,
		MaxSessions:  cfg.MaxSessions,
		GinMode:      cfg.GinMode,
	})
	log.Info().Str("db", cfg.DBPath).Str("difficulty", string(cfg.AIDifficulty())).Msg("starting battle server")
	return srv.Run(ctx, cfg.Addr, cfg.ReadTimeout, cfg.WriteTimeout)
}

// play runs a terminal battle against the server's AI.
func play(ctx context.Context, cfg config.Config, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	serverURL := fs.String("server", "http://localhost"+cfg.Addr, "server base url")
	teamPath := fs.String("team", "", "Showdown team file; empty plays a rental team")
	difficulty := fs.String("difficulty", cfg.Difficulty, "easy, normal or hard")
	mechanic := fs.String("mechanic", "", "mega, tera or dynamax")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := client.BattleRequest{
		Team:       client.Team{Name: "Player", Mechanic: game.MechanicKind(*mechanic)},
		Opponent:   client.Team{Mechanic: game.MechanicKind(*mechanic)},
		Difficulty: *difficulty,
	}
	if *teamPath != "" {
		text, err := os.ReadFile(*teamPath)
		if err != nil {
			return fmt.Errorf("read team: %w", err)
		}
		req.Team.Text = string(text)
	}

	bc, err := client.NewBattleClient(*serverURL)
	if err != nil {
		return err
	}
	b, err := bc.CreateBattle(ctx, req)
	if err != nil {
		return err
	}
	for _, w := range b.Warnings {
		fmt.Fprintln(out, "warning:", w)
	}
	if err := bc.Connect(ctx, b.ID); err != nil {
		return err
	}
	defer bc.Close()
	msgs, err := bc.Listen()
	if err != nil {
		return err
	}

	input := bufio.NewScanner(in)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("connection closed")
			}
			switch msg.Type {
			case "error":
				fmt.Fprintln(out, "error:", msg.Error)
			case "result":
				if msg.Accepted != nil && !*msg.Accepted {
					fmt.Fprintln(out, "that action is not legal right now")
				}
			case "update":
				for _, l := range msg.Lines {
					fmt.Fprintln(out, l)
				}
				if msg.State.Phase == game.PhaseEnded {
					return nil
				}
				a, ok, err := prompt(input, out, msg.State)
				if err != nil {
					return err
				}
				if ok {
					if err := bc.SubmitAction(game.SideOne, a); err != nil {
						return err
					}
				}
			}
		}
	}
}

// prompt asks for one of side one's legal actions. ok is false when side
// one has nothing to choose this update.
func prompt(input *bufio.Scanner, out io.Writer, state *game.BattleState) (game.Action, bool, error) {
	legal := state.LegalActions(game.SideOne)
	if len(legal) == 0 {
		return game.Action{}, false, nil
	}
	for {
		for i, a := range legal {
			fmt.Fprintf(out, "  %d) %s\n", i+1, parser.DescribeAction(state, game.SideOne, a))
		}
		fmt.Fprint(out, "> ")
		if !input.Scan() {
			if err := input.Err(); err != nil {
				return game.Action{}, false, err
			}
			return game.Action{}, false, io.EOF
		}
		n, err := strconv.Atoi(strings.TrimSpace(input.Text()))
		if err == nil && n >= 1 && n <= len(legal) {
			return legal[n-1], true, nil
		}
		fmt.Fprintln(out, "pick a number from the list")
	}
}
