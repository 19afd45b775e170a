package broker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
)

// NorenClient is the concrete HTTP/JSON + WebSocket binding. REST calls post
// a `jData=<json>&jKey=<token>` body; the session token is swapped atomically
// on (re-)login so in-flight readers always see a complete Session.
type NorenClient struct {
	baseURL string
	wsURL   string
	http    *http.Client
	dialer  *websocket.Dialer

	sess atomic.Pointer[models.Session]

	subMu      sync.Mutex
	subscribed map[string]struct{}
	conn       *websocket.Conn
	lastVol    map[string]float64 // token -> cumulative day volume seen
}

func NewNorenClient(baseURL, wsURL string, timeout time.Duration) *NorenClient {
	if timeout <= 0 || timeout > 10*time.Second {
		timeout = 10 * time.Second
	}
	return &NorenClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		wsURL:      wsURL,
		http:       &http.Client{Timeout: timeout},
		dialer:     &websocket.Dialer{HandshakeTimeout: timeout},
		subscribed: make(map[string]struct{}),
		lastVol:    make(map[string]float64),
	}
}

func (c *NorenClient) AttachSession(sess *models.Session) {
	c.sess.Store(sess)
}

func (c *NorenClient) Session() *models.Session {
	return c.sess.Load()
}

func sha256Hex(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func (c *NorenClient) Login(ctx context.Context, creds Credentials) (*models.Session, error) {
	jData := map[string]string{
		"source":     "API",
		"apkversion": "1.0.0",
		"uid":        creds.UserID,
		"pwd":        sha256Hex(creds.Password),
		"factor2":    creds.Factor2,
		"vc":         creds.VC,
		"appkey":     sha256Hex(creds.UserID + "|" + creds.APIKey),
		"imei":       creds.IMEI,
	}

	raw, err := c.apiCall(ctx, "/QuickAuth", jData, "")
	if err != nil {
		return nil, errors.Wrap(err, "Login")
	}

	var resp struct {
		Stat       string `json:"stat"`
		SUserToken string `json:"susertoken"`
		Emsg       string `json:"emsg"`
	}
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return nil, protocolErr(err, "Login decode")
	}
	if resp.Stat != "Ok" || resp.SUserToken == "" {
		return nil, authErr(classifyEmsg(resp.Emsg), "Login")
	}

	sess := &models.Session{
		Token:  resp.SUserToken,
		UserID: creds.UserID,
		VC:     creds.VC,
		APIKey: creds.APIKey,
		IMEI:   creds.IMEI,
	}
	c.sess.Store(sess)
	return sess, nil
}

// apiCall posts one signed request and returns the raw body. jKey is empty
// only for QuickAuth.
func (c *NorenClient) apiCall(ctx context.Context, path string, jData any, jKey string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "broker"+path)
	defer span.Finish()

	payload, err := sonic.Marshal(jData)
	if err != nil {
		return nil, protocolErr(err, "marshal jData")
	}

	body := "jData=" + string(payload)
	if jKey != "" {
		body += "&jKey=" + jKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(body))
	if err != nil {
		return nil, transportErr(err, "new request")
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportErr(err, "do")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr(err, "read body")
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.Wrap(wrap(ErrRateLimited, nil), path)
	}
	if resp.StatusCode/100 != 2 {
		return nil, errors.Wrapf(wrap(ErrTransport, errors.Errorf("http %d: %s", resp.StatusCode, data)), "%s", path)
	}
	return data, nil
}

// authedCall guards against calls before a session is attached.
func (c *NorenClient) authedCall(ctx context.Context, path string, jData map[string]string) ([]byte, error) {
	sess := c.sess.Load()
	if !sess.Valid() {
		return nil, errors.Wrap(wrap(ErrAuth, nil), "no session")
	}
	jData["uid"] = sess.UserID
	return c.apiCall(ctx, path, jData, sess.Token)
}
