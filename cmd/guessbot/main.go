package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/curbz/planeguess/internal/airspace"
	"github.com/curbz/planeguess/internal/client"
	"github.com/curbz/planeguess/internal/protocol"
	"github.com/curbz/planeguess/pkg/util"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// guessbot plays the game: it watches snapshots and guesses a random airport
// for a random unresolved plane at a fixed rate.
func main() {
	url := flag.String("url", "ws://localhost:8000/ws", "planeguess websocket url")
	player := flag.String("player", fmt.Sprintf("bot-%d", os.Getpid()), "display name")
	perSecond := flag.Float64("rate", 1, "guesses per second")
	start := flag.Bool("start", false, "start the game if it is idle")
	msgpack := flag.Bool("msgpack", false, "use the msgpack encoding")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	log, err := util.NewLogger(*logLevel, "text")
	if err != nil {
		logrus.Fatalf("Error creating logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := client.Options{Acks: true}
	if *msgpack {
		opts.Encoding = protocol.MsgPack
	}
	c, err := client.Dial(ctx, *url, opts)
	if err != nil {
		log.Fatalf("Could not connect to planeguess: %v", err)
	}
	defer c.Close()
	log.Infof("connected to %s as %s", *url, *player)

	b := &bot{
		player:  *player,
		client:  c,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		limiter: rate.NewLimiter(rate.Limit(*perSecond), 1),
		log:     log,
		start:   *start,
	}
	if err := b.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("bot stopped: %v", err)
	}
}

type bot struct {
	player  string
	client  client.ClientInterface
	rng     *rand.Rand
	limiter *rate.Limiter
	log     logrus.FieldLogger
	start   bool

	mu        sync.Mutex
	planes    []string
	gameMode  bool
	startSent bool
}

func (b *bot) run(ctx context.Context) error {
	readErr := make(chan error, 1)
	go func() {
		readErr <- b.readLoop()
	}()

	for {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		select {
		case err := <-readErr:
			return err
		default:
		}
		if err := b.act(); err != nil {
			return err
		}
	}
}

func (b *bot) readLoop() error {
	for {
		msg, err := b.client.Read()
		if err != nil {
			return err
		}
		switch {
		case msg.Snapshot != nil:
			b.observe(*msg.Snapshot)
		case msg.Result != nil && msg.Result.Correct:
			util.LogWithLabel(b.log, b.player, "correct on %s, +%d (score %d)", msg.Result.PlaneID, msg.Result.Points, msg.Result.Score)
		case msg.Result != nil:
			b.log.Debugf("wrong on %s", msg.Result.PlaneID)
		case msg.Error != nil:
			b.log.Debugf("rejected: %s (%s)", msg.Error.Code, msg.Error.Message)
		}
	}
}

func (b *bot) observe(snap protocol.Snapshot) {
	planes := make([]string, 0, len(snap.ActivePlanes))
	for id, p := range snap.ActivePlanes {
		if !p.Resolved {
			planes = append(planes, id)
		}
	}
	b.mu.Lock()
	b.planes = planes
	b.gameMode = snap.GameMode
	b.mu.Unlock()
}

func (b *bot) act() error {
	b.mu.Lock()
	running := b.gameMode
	planes := b.planes
	sendStart := b.start && !running && !b.startSent
	if sendStart {
		b.startSent = true
	}
	b.mu.Unlock()

	if sendStart {
		b.log.Info("game idle, starting it")
		return b.client.Start()
	}
	if !running || len(planes) == 0 {
		return nil
	}

	plane := planes[b.rng.Intn(len(planes))]
	airport := airspace.DefaultAirports[b.rng.Intn(len(airspace.DefaultAirports))].Code
	b.log.WithFields(logrus.Fields{"aircraft": plane, "airport": airport}).Debug("guessing")
	return b.client.Guess(b.player, plane, airport)
}
