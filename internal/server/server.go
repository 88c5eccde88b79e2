// Package server exposes the relay's HTTP surface: webhook endpoints
// for TradingView and Telegram plus journal and diagnostics routes.
package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"gpt-signal-relay/internal/command"
	"gpt-signal-relay/internal/interfaces"
	"gpt-signal-relay/internal/logger"
	"gpt-signal-relay/internal/store"
	"gpt-signal-relay/internal/types"
)

type Server struct {
	cfg      *store.Config
	pipeline interfaces.SignalPipeline
	journal  interfaces.Journal
	commands *command.Handler
	notifier interfaces.Notifier
}

func New(cfg *store.Config, p interfaces.SignalPipeline, j interfaces.Journal,
	cmds *command.Handler, n interfaces.Notifier) *Server {
	return &Server{cfg: cfg, pipeline: p, journal: j, commands: cmds, notifier: n}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestID(), accessLog(), gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Error(c.Request.Context(), "handler panic", "error", fmt.Sprint(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}))

	r.GET("/", s.handleRoot)
	r.GET("/healthz", s.handleHealthz)
	r.GET("/diag", s.handleDiag)
	r.GET("/journal", s.handleJournalList)
	r.GET("/journal/export.csv", s.handleJournalExport)
	r.POST("/gpt-signal", s.handleSignal)
	r.POST("/tv-alert", s.handleTVAlert)
	r.POST("/tg-webhook", s.handleTelegramWebhook)
	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"request_id", c.GetString("request_id"))
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "gpt-signal-relay"})
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleDiag(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":                 true,
		"has_openai_key":     os.Getenv("OPENAI_API_KEY") != "",
		"has_bot":            os.Getenv("BOT_TOKEN") != "" && s.cfg.Telegram.ChannelID != "",
		"news_enabled":       os.Getenv("CRYPTOPANIC_API_TOKEN") != "",
		"forbidden_hours":    s.cfg.Guards.ForbiddenUTCHours,
		"cooldown_s":         s.cfg.Guards.CooldownSeconds,
		"dedup_s":            s.cfg.Guards.DedupWindowSeconds,
		"quality_min":        s.cfg.Guards.QualityMinScore,
		"risk_per_trade_pct": s.cfg.Guards.RiskPerTradePct,
		"max_daily_risk_pct": s.cfg.Guards.MaxDailyRiskPct,
	})
}

func (s *Server) handleJournalList(c *gin.Context) {
	n := 20
	if raw := c.Query("n"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			n = v
		}
	}
	items, err := s.journal.List(c.Request.Context(), n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"n": len(items), "items": items})
}

func (s *Server) handleJournalExport(c *gin.Context) {
	b, err := s.journal.ExportCSV(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/csv", b)
}

type signalRequest struct {
	Symbol  string  `json:"symbol"`
	TF      string  `json:"tf"`
	Setup   string  `json:"setup"`
	Price   float64 `json:"price"`
	Context string  `json:"context"`
	TradeID string  `json:"trade_id"`
}

func (s *Server) handleSignal(c *gin.Context) {
	var req signalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.pipeline.Process(c.Request.Context(), types.Alert{
		Symbol:    req.Symbol,
		Timeframe: req.TF,
		Setup:     req.Setup,
		Price:     req.Price,
		Context:   req.Context,
		Source:    "api",
		TradeID:   req.TradeID,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "res": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

type tvAlertRequest struct {
	Secret  string `json:"secret"`
	Text    string `json:"text"`
	Context string `json:"context"`
}

// tvSecret is the shared secret every TradingView alert must carry.
// An unset TV_SECRET falls back to a placeholder so a misconfigured
// deployment still rejects secretless requests instead of going open.
func tvSecret() string {
	if s := os.Getenv("TV_SECRET"); s != "" {
		return s
	}
	return "change_me"
}

// handleTVAlert accepts the TradingView webhook. The alert text is the
// symbol; TF, setup and close ride in a semicolon-separated context
// string ("TF=15m;setup=strong_long;close=61234.5").
func (s *Server) handleTVAlert(c *gin.Context) {
	var req tvAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Secret != tvSecret() {
		c.JSON(http.StatusForbidden, gin.H{"error": "bad secret"})
		return
	}

	alert := types.Alert{
		Symbol:  req.Text,
		Context: req.Context,
		Source:  "tv-alert",
	}
	for _, part := range strings.Split(req.Context, ";") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, "TF="); ok {
			alert.Timeframe = v
		} else if v, ok := strings.CutPrefix(part, "setup="); ok {
			alert.Setup = v
		} else if v, ok := strings.CutPrefix(part, "close="); ok {
			if p, err := strconv.ParseFloat(v, 64); err == nil {
				alert.Price = p
			}
		}
	}

	res, err := s.pipeline.Process(c.Request.Context(), alert)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "res": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleTelegramWebhook multiplexes inbound Telegram updates: photos go
// to the vision flow, journal commands mutate the ledger, anything else
// is treated as a text signal request.
func (s *Server) handleTelegramWebhook(c *gin.Context) {
	var upd tgbotapi.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	msg := upd.Message
	if msg == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	chatRef := strconv.FormatInt(msg.Chat.ID, 10)

	if len(msg.Photo) > 0 {
		s.handlePhoto(c, msg, chatRef)
		return
	}
	if msg.Text != "" {
		s.handleText(c, msg, chatRef)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handlePhoto(c *gin.Context, msg *tgbotapi.Message, chatRef string) {
	// telegram sends multiple sizes; take the largest
	best := msg.Photo[0]
	for _, p := range msg.Photo[1:] {
		if p.FileSize > best.FileSize {
			best = p
		}
	}
	url, err := s.notifier.FileURL(best.FileID)
	if err != nil {
		logger.ErrorWithErr(c.Request.Context(), "file url lookup failed", err)
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "no_url"})
		return
	}

	alert := alertFromWords(strings.Fields(msg.Caption), 0)
	alert.Source = "vision"
	res, err := s.pipeline.ProcessVision(c.Request.Context(), alert, url, msg.Caption)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error(), "res": res})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "res": res})
}

func (s *Server) handleText(c *gin.Context, msg *tgbotapi.Message, chatRef string) {
	ctx := c.Request.Context()

	if cmd, isCmd, err := command.Parse(msg.Text); isCmd {
		reply := ""
		if err != nil {
			reply = err.Error()
		} else if reply, err = s.commands.Handle(ctx, cmd); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
			return
		}
		if _, err := s.notifier.Send(ctx, chatRef, reply); err != nil {
			logger.Warn(ctx, "command reply failed", "error", err)
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "reply": reply})
		return
	}

	words := strings.Fields(strings.ReplaceAll(msg.Text, "\n", " "))
	if len(words) > 0 {
		switch strings.ToLower(words[0]) {
		case "/signal", "/gpt", "/analyze", "signal":
			words = words[1:]
		}
	}
	alert := alertFromWords(words, 4)
	alert.Source = "tg-text"

	res, err := s.pipeline.Process(ctx, alert)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error(), "res": res})
		return
	}

	if res.Row != nil {
		echo := fmt.Sprintf(
			"💬 <b>Text Signal</b>\n🎯 %s | TF %s | Setup %s\nDecision: <b>%s</b> | RR~%v\n🆔 <code>%s</code>",
			res.Row.Symbol, res.Row.Timeframe, res.Row.Setup, res.Row.Decision, res.Row.RR, res.Row.TradeID)
		if _, err := s.notifier.Send(ctx, chatRef, echo); err != nil {
			logger.Warn(ctx, "signal echo failed", "error", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "res": res})
}

// alertFromWords reads "<symbol> <tf> <setup> <price> <context...>" with
// every position optional. contextFrom > 0 joins trailing words into
// the context field.
func alertFromWords(words []string, contextFrom int) types.Alert {
	var a types.Alert
	if len(words) > 0 {
		a.Symbol = words[0]
	}
	if len(words) > 1 {
		a.Timeframe = words[1]
	}
	if len(words) > 2 {
		a.Setup = words[2]
	}
	if len(words) > 3 {
		if p, err := strconv.ParseFloat(words[3], 64); err == nil {
			a.Price = p
		}
	}
	if contextFrom > 0 && len(words) > contextFrom {
		a.Context = strings.Join(words[contextFrom:], " ")
	}
	return a
}
