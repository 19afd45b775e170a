package broker

import (
	"context"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"
)

// Credentials is everything the vendor login wants. The password travels
// pre-hashing; the client hashes before it leaves the process.
type Credentials struct {
	UserID   string
	Password string
	Factor2  string
	VC       string
	APIKey   string
	IMEI     string
}

// StreamHandlers are invoked on the transport goroutine. OnTick must never
// block on network or disk.
type StreamHandlers struct {
	OnTick  func(models.Tick)
	OnOpen  func()
	OnClose func(error)
}

// Client is the broker surface the core consumes. The concrete binding is a
// Noren-style HTTP/JSON REST API plus a WebSocket tick stream; everything
// above this interface is transport-agnostic.
type Client interface {
	Login(ctx context.Context, creds Credentials) (*models.Session, error)
	AttachSession(sess *models.Session)
	Session() *models.Session

	TPSeries(ctx context.Context, exchange, token string, interval models.Interval, from, to time.Time) ([]models.Candle, error)

	PlaceOrder(ctx context.Context, spec models.OrderSpec) (string, error)
	ModifyOrder(ctx context.Context, orderID, exchange, symbol string, qty int, newTrigger float64) error
	CancelOrder(ctx context.Context, orderID string) error
	OrderBook(ctx context.Context) ([]models.Order, error)
	TradeBook(ctx context.Context) ([]models.Trade, error)

	Subscribe(tokens []string) error
	Unsubscribe(tokens []string) error
	Stream(ctx context.Context, h StreamHandlers) error
}
