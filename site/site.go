// Package site serves the JSON API over the controller: live status, the
// tunables, history, Prometheus metrics and a websocket relay stream.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"furitingoasis/greenhouse/controller"
	"furitingoasis/greenhouse/param"
	"furitingoasis/greenhouse/store"
)

type Core interface {
	Snapshot() controller.Snapshot
	Keys() []string
	Read(key string) (param.Info, error)
	Write(key string, v any) (param.Info, error)
}

type History interface {
	Climate(ctx context.Context, place string) ([]store.ClimateRow, error)
	Relays(ctx context.Context, limit int) ([]store.RelayRow, error)
	Days(ctx context.Context) ([]store.Day, error)
}

// Server holds the API dependencies. History and Gatherer may be nil.
type Server struct {
	Core     Core
	History  History
	Hub      *Hub
	Gatherer prometheus.Gatherer
	// OriginPatterns are the hosts allowed to open the websocket.
	OriginPatterns []string
	// Heartbeat is the websocket ping period.
	Heartbeat time.Duration
}

// Param is one entry of the parameter listing.
type Param struct {
	Key string `json:"key"`
	param.Info
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(gin.Recovery())

	api := router.Group("/api")
	api.GET("/status", s.status)
	api.GET("/params", s.listParams)
	api.GET("/params/:key", s.readParam)
	api.PUT("/params/:key", s.writeParam)
	if s.History != nil {
		api.GET("/history", s.climateHistory)
		api.GET("/history/relays", s.relayHistory)
		api.GET("/history/daily", s.dailyHistory)
	}

	if s.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}
	if s.Hub != nil {
		router.GET("/ws", s.stream)
	}
	return router
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.Core.Snapshot())
}

func (s *Server) listParams(c *gin.Context) {
	keys := s.Core.Keys()
	out := make([]Param, 0, len(keys))
	for _, k := range keys {
		info, err := s.Core.Read(k)
		if err != nil {
			paramError(c, err)
			return
		}
		out = append(out, Param{Key: k, Info: info})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) readParam(c *gin.Context) {
	key := c.Param("key")
	info, err := s.Core.Read(key)
	if err != nil {
		paramError(c, err)
		return
	}
	c.JSON(http.StatusOK, Param{Key: key, Info: info})
}

func (s *Server) writeParam(c *gin.Context) {
	var body struct {
		Value any `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error decoding body: " + err.Error()})
		return
	}

	key := c.Param("key")
	info, err := s.Core.Write(key, body.Value)
	if err != nil {
		paramError(c, err)
		return
	}
	slog.Info("param written over http", "key", key, "value", info.Text)
	c.JSON(http.StatusOK, Param{Key: key, Info: info})
}

func paramError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, param.ErrUnknownKey):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, param.ErrType), errors.Is(err, param.ErrNoLabels):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) climateHistory(c *gin.Context) {
	place := c.DefaultQuery("place", "inside")
	if place != "inside" && place != "outside" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "place must be inside or outside"})
		return
	}
	rows, err := s.History.Climate(c.Request.Context(), place)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error querying data: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) relayHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
		return
	}
	rows, err := s.History.Relays(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error querying data: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) dailyHistory(c *gin.Context) {
	days, err := s.History.Days(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error querying data: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, days)
}

// stream sends the current relay state, then every change, until the client
// goes away.
func (s *Server) stream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: s.OriginPatterns,
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "Unexpected connection close")

	ctx := conn.CloseRead(c.Request.Context())
	updates := s.Hub.join()
	defer s.Hub.leave(updates)

	if err := wsjson.Write(ctx, conn, s.Core.Snapshot().Relays); err != nil {
		slog.Debug("websocket write failed", "error", err)
		return
	}

	heartbeat := s.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "Connection closed")
			return
		case st := <-updates:
			if err := wsjson.Write(ctx, conn, st); err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				slog.Debug("websocket ping failed", "error", err)
				return
			}
		}
	}
}
