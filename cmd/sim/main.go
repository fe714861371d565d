// cmd/sim/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/bot"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/config"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/database"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/game"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/models"
	log "github.com/sirupsen/logrus"
)

func main() {
	rounds := flag.Int("rounds", 100, "rounds to play")
	seats := flag.Int("seats", 3, "bots at the table (3 or 4)")
	seed := flag.Uint64("seed", 1, "deal and bot seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	logger := cfg.NewLogger()
	if *seats < game.MinSeats || *seats > game.MaxSeats {
		logger.Fatalf("seats must be %d or %d", game.MinSeats, game.MaxSeats)
	}

	opts := cfg.TableOptions()
	opts.Seed = *seed
	tbl, err := game.NewTable(opts, logger)
	if err != nil {
		logger.WithError(err).Fatal("creating table")
	}
	defer tbl.Close()

	if cfg.DBDriver != "" {
		store, err := database.Open(context.Background(), cfg.DBDriver, cfg.DBDSN, logger)
		if err != nil {
			logger.WithError(err).Fatal("opening analytics database")
		}
		defer store.Close()
		tbl.Analytics = store
	}

	ended := make(chan game.ResultView, 1)
	tbl.OnRoundEnd = func(_ uuid.UUID, res game.ResultView, _ map[uuid.UUID]int) { ended <- res }

	names := make(map[uuid.UUID]string, *seats)
	for i := 0; i < *seats; i++ {
		p := models.NewPlayer(uuid.New(), fmt.Sprintf("bot%d", i+1), true)
		names[p.ID] = p.Name
		if err := tbl.Seat(p, bot.NewRandom(*seed+uint64(i)+1)); err != nil {
			logger.WithError(err).Fatal("seating bot")
		}
	}

	counts := map[string]int{}
	insured := 0
	start := time.Now()
	for i := 0; i < *rounds; i++ {
		if err := tbl.StartRound(); err != nil {
			logger.WithError(err).Fatal("starting round")
		}
		res := <-ended
		counts[res.Outcome]++
		if res.InsuranceExecuted {
			insured++
		}
	}

	fmt.Printf("%d rounds in %s: %d settled (%d by insurance), %d thrown in, %d aborted\n",
		*rounds, time.Since(start).Round(time.Millisecond),
		counts[game.OutcomeSettled], insured, counts[game.OutcomeThrownIn], counts[game.OutcomeAborted])

	players := tbl.Players()
	sort.Slice(players, func(i, j int) bool { return players[i].Score > players[j].Score })
	for _, p := range players {
		fmt.Printf("  %-6s %6d\n", names[p.ID], p.Score)
	}
	if counts[game.OutcomeAborted] > 0 {
		logger.WithField("aborted", counts[game.OutcomeAborted]).Warn("some rounds aborted")
	}
}
