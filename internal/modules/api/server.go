// Package api is the control surface of the trader: login and session
// management for the dashboard, tick ingest from the worker process and the
// live tick broadcast for downstream consumers.
package api

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/mitin111/stock-dashboard-sub000/internal/broker"
	"github.com/mitin111/stock-dashboard-sub000/internal/models"
	"github.com/mitin111/stock-dashboard-sub000/internal/modules/config"
	"github.com/mitin111/stock-dashboard-sub000/internal/session"
	"github.com/mitin111/stock-dashboard-sub000/internal/strategy"
	"github.com/mitin111/stock-dashboard-sub000/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const tickChannel = "ticks.live"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type Server struct {
	router   *gin.Engine
	cfg      *config.Config
	client   broker.Client
	engine   *strategy.Engine
	sessions *session.Store
	hub      *Hub
	rdb      *redis.Client // nil ok

	ready atomic.Bool
}

func NewServer(cfg *config.Config, client broker.Client, engine *strategy.Engine, sessions *session.Store, hub *Hub, rdb *redis.Client) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:   router,
		cfg:      cfg,
		client:   client,
		engine:   engine,
		sessions: sessions,
		hub:      hub,
		rdb:      rdb,
	}
	s.registerRoutes()

	// a persisted session from a previous run counts as ready
	if sess, err := sessions.Load(); err == nil && sess.Valid() {
		client.AttachSession(sess)
		s.ready.Store(true)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.router.POST("/server_login", s.serverLogin)
	s.router.POST("/init", s.initSession)
	s.router.POST("/subscribe", s.subscribe)
	s.router.GET("/session_info", s.sessionInfo)
	s.router.GET("/ws/live", s.wsLive)
	s.router.GET("/ws/publish", s.wsPublish)

	s.router.GET("/livez", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	s.router.GET("/readyz", func(c *gin.Context) {
		if !s.ready.Load() {
			c.String(http.StatusServiceUnavailable, "no session")
			return
		}
		c.String(http.StatusOK, "ok")
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

type loginRequest struct {
	UserID   string `json:"userid" binding:"required"`
	Password string `json:"password" binding:"required"`
	Factor2  string `json:"factor2"`
	VC       string `json:"vc"`
	APIKey   string `json:"api_key"`
	IMEI     string `json:"imei"`
}

func (s *Server) serverLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	creds := broker.Credentials{
		UserID:   req.UserID,
		Password: req.Password,
		Factor2:  req.Factor2,
		VC:       firstNonEmpty(req.VC, s.cfg.VC),
		APIKey:   firstNonEmpty(req.APIKey, s.cfg.APIKey),
		IMEI:     firstNonEmpty(req.IMEI, s.cfg.IMEI),
	}
	sess, err := s.client.Login(c.Request.Context(), creds)
	if err != nil {
		logger.Error("login %s: %v", req.UserID, err)
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err := s.sessions.Save(sess); err != nil {
		logger.Error("persist session: %v", err)
	}
	s.ready.Store(true)
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"userid":        sess.UserID,
		"session_token": sess.Token,
	})
}

type initRequest struct {
	JKey        string              `json:"jKey" binding:"required"`
	UserID      string              `json:"userid" binding:"required"`
	VC          string              `json:"vc"`
	APIKey      string              `json:"api_key"`
	IMEI        string              `json:"imei"`
	TokensMap   map[string]string   `json:"tokens_map"`
	TRMSettings *models.TRMSettings `json:"trm_settings"`
}

// initSession attaches a session obtained elsewhere (the dashboard logs in on
// its own and hands the token over) and optionally pushes fresh strategy
// settings.
func (s *Server) initSession(c *gin.Context) {
	var req initRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"stat": "Not_Ok", "msg": err.Error()})
		return
	}
	sess := &models.Session{
		Token:     req.JKey,
		UserID:    req.UserID,
		TokensMap: req.TokensMap,
		VC:        firstNonEmpty(req.VC, s.cfg.VC),
		APIKey:    firstNonEmpty(req.APIKey, s.cfg.APIKey),
		IMEI:      firstNonEmpty(req.IMEI, s.cfg.IMEI),
	}
	s.client.AttachSession(sess)
	if err := s.sessions.Save(sess); err != nil {
		logger.Error("persist session: %v", err)
	}
	if req.TRMSettings != nil {
		s.engine.Apply(*req.TRMSettings)
	}
	s.ready.Store(true)
	c.JSON(http.StatusOK, gin.H{"stat": "Ok", "msg": "session attached"})
}

type subscribeRequest struct {
	Tokens []string `json:"tokens" binding:"required"`
}

func (s *Server) subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"stat": "Not_Ok", "msg": err.Error()})
		return
	}
	if err := s.client.Subscribe(req.Tokens); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"stat": "Not_Ok", "msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stat": "Ok", "subscribed": len(req.Tokens)})
}

func (s *Server) sessionInfo(c *gin.Context) {
	sess := s.client.Session()
	if !sess.Valid() {
		var err error
		sess, err = s.sessions.Load()
		if err != nil || !sess.Valid() {
			c.JSON(http.StatusNotFound, gin.H{"stat": "Not_Ok", "msg": "no session"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"session_token": sess.Token,
		"userid":        sess.UserID,
		"tokens_map":    sess.TokensMap,
	})
}

func (s *Server) wsLive(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	s.hub.Add(conn)
	// the read loop only notices the close
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.Remove(conn)
				return
			}
		}
	}()
}

// wsPublish is where the tick worker delivers normalised frames. Each frame
// is relayed to dashboard clients and, when configured, into redis.
func (s *Server) wsPublish(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer func() {
		_ = conn.Close()
	}()
	logger.Info("tick worker connected from %s", conn.RemoteAddr())
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Info("tick worker disconnected: %v", err)
			return
		}
		s.hub.Broadcast(msg)
		if s.rdb != nil {
			if err := s.rdb.Publish(context.Background(), tickChannel, msg).Err(); err != nil {
				logger.Debug("redis publish: %v", err)
			}
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
