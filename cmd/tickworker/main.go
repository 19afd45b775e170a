// The tick worker is the disposable half of the trader: it owns the broker
// websocket, builds live candles and keeps the merged per-symbol files fresh.
// It exits on any fatal condition and relies on the trader's supervisor to
// respawn it; exit code 1 means no usable session was available.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/broker"
	"github.com/mitin111/stock-dashboard-sub000/internal/candles"
	"github.com/mitin111/stock-dashboard-sub000/internal/config"
	"github.com/mitin111/stock-dashboard-sub000/internal/metrics"
	"github.com/mitin111/stock-dashboard-sub000/internal/models"
	"github.com/mitin111/stock-dashboard-sub000/internal/pipeline"
	"github.com/mitin111/stock-dashboard-sub000/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := logger.Init("tickworker"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Error("tickworker: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	sess, err := fetchSession(cfg.BackendURL)
	if err != nil {
		return err
	}
	if !sess.Valid() {
		return fmt.Errorf("no session available at %s", cfg.BackendURL)
	}
	logger.Info("session for %s, %d symbols", sess.UserID, len(sess.TokensMap))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := broker.NewNorenClient(cfg.BaseURL, cfg.WSURL, cfg.RestTimeout)
	client.AttachSession(sess)

	store, err := pipeline.NewStore(cfg.SavePath)
	if err != nil {
		return err
	}
	builder := candles.NewBuilder()
	pipe := pipeline.New(client, builder, store, sess.TokensMap, cfg.BackfillDays, cfg.MergeEvery)
	pipe.Backfill(ctx)

	go pipe.Run(ctx)

	pub := newPublisher(cfg.BackendURL, cfg.TickBuffer)
	go pub.run(ctx)

	if err := client.Subscribe(subKeys(sess.TokensMap)); err != nil {
		return err
	}

	return client.Stream(ctx, broker.StreamHandlers{
		OnOpen: func() {
			logger.Info("tick stream open")
		},
		OnClose: func(err error) {
			logger.Warn("tick stream closed: %v", err)
		},
		OnTick: func(t models.Tick) {
			if err := builder.Update(t); err != nil {
				logger.Debug("tick rejected: %v", err)
				return
			}
			pub.offer(t)
		},
	})
}

// subKeys turns the session watchlist into subscribe keys "EXCH|TOKEN".
func subKeys(tokensMap map[string]string) []string {
	keys := make([]string, 0, len(tokensMap))
	for tsym, token := range tokensMap {
		exch := "NSE"
		if i := strings.IndexByte(tsym, ':'); i > 0 {
			exch = tsym[:i]
		}
		keys = append(keys, exch+"|"+token)
	}
	return keys
}

func fetchSession(backendURL string) (*models.Session, error) {
	httpc := &http.Client{Timeout: 10 * time.Second}
	resp, err := httpc.Get(backendURL + "/session_info")
	if err != nil {
		return nil, fmt.Errorf("session_info: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("session_info: status %d", resp.StatusCode)
	}
	var sess models.Session
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("session_info: decode: %w", err)
	}
	return &sess, nil
}

// liveFrame is what dashboards receive over /ws/live.
type liveFrame struct {
	Tk string  `json:"tk"`
	Lp float64 `json:"lp"`
	Ft int64   `json:"ft"`
}

// publisher relays normalised ticks to the trader's /ws/publish endpoint.
// The buffer drops the oldest frame under pressure; the tick callback never
// waits on the network.
type publisher struct {
	url string
	ch  chan models.Tick
}

func newPublisher(backendURL string, buffer int) *publisher {
	if buffer <= 0 {
		buffer = 4096
	}
	url := strings.Replace(backendURL, "http", "ws", 1) + "/ws/publish"
	return &publisher{url: url, ch: make(chan models.Tick, buffer)}
}

func (p *publisher) offer(t models.Tick) {
	for {
		select {
		case p.ch <- t:
			return
		default:
		}
		select {
		case <-p.ch:
			metrics.TicksDropped.Inc()
		default:
		}
	}
}

func (p *publisher) run(ctx context.Context) {
	for {
		if err := p.connectAndSend(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("publish: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (p *publisher) connectAndSend(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-p.ch:
			data, err := sonic.Marshal(liveFrame{
				Tk: t.Token,
				Lp: t.LastPrice,
				Ft: t.Time.Unix(),
			})
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
		}
	}
}
