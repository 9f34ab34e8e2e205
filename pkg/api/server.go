// Package api provides the REST API server for mpemonitor
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/james-see/mpemonitor/pkg/monitor"
	"github.com/james-see/mpemonitor/pkg/prefs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title MPE Monitor API
// @version 1.0
// @description Live MIDI/MPE channel and voice state
// @host localhost:8080
// @BasePath /api/v1

// Server serves a Monitor's state and configuration
type Server struct {
	mon    *monitor.Monitor
	store  *prefs.Store
	logger *slog.Logger
}

// New creates a Server. Configuration changes are recorded in store.
func New(mon *monitor.Monitor, store *prefs.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{mon: mon, store: store, logger: logger}
}

// Router returns the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/state", s.getState)
		v1.GET("/config", s.getConfig)
		v1.PUT("/config", s.putConfig)
		v1.POST("/reset/channels", s.resetChannels)
		v1.POST("/reset/voices", s.resetVoices)
		v1.POST("/messages", s.postMessage)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// Start runs the server on port until it fails
func (s *Server) Start(port int) error {
	s.logger.Info("api: listening", "port", port)
	return s.Router().Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "mpemonitor",
	})
}

// VoiceView is a voice with its display values
type VoiceView struct {
	monitor.Voice
	NoteName     string  `json:"note_name"`
	Semitones    float64 `json:"semitones"`
	BentNote     int     `json:"bent_note"`
	BentNoteName string  `json:"bent_note_name"`
}

// ChannelView is a channel record with its number
type ChannelView struct {
	Channel int `json:"channel"`
	monitor.ChannelRecord
}

// StateView is the body of GET /state
type StateView struct {
	Seq      uint64         `json:"seq"`
	Channels []ChannelView  `json:"channels"`
	Voices   []VoiceView    `json:"voices"`
	Config   monitor.Config `json:"config"`
}

// NewStateView derives the display form of a snapshot
func NewStateView(s *monitor.Snapshot) StateView {
	view := StateView{
		Seq:      s.Seq,
		Channels: make([]ChannelView, len(s.Channels)),
		Voices:   make([]VoiceView, len(s.Voices)),
		Config:   s.Config,
	}
	for i, ch := range s.Channels {
		view.Channels[i] = ChannelView{Channel: i + 1, ChannelRecord: ch}
	}
	for i, v := range s.Voices {
		bent := monitor.BentNote(v.Note, v.Bend, s.Config.BendRange)
		view.Voices[i] = VoiceView{
			Voice:        v,
			NoteName:     monitor.NoteName(int(v.Note)),
			Semitones:    monitor.ToSemitones(v.Bend, s.Config.BendRange),
			BentNote:     bent,
			BentNoteName: monitor.NoteName(bent),
		}
	}
	return view
}

// getState godoc
// @Summary Current channel and voice state
// @Tags state
// @Produce json
// @Success 200 {object} StateView
// @Router /api/v1/state [get]
func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, NewStateView(s.mon.Snapshot()))
}

// ConfigView is the body of GET /config
type ConfigView struct {
	Preferences prefs.Values   `json:"preferences"`
	Config      monitor.Config `json:"config"`
}

// ConfigRequest is the body of PUT /config. Every key must be given;
// bend_custom is only read when bend_select is "custom".
type ConfigRequest struct {
	BendSelect       string `json:"bend_select" binding:"required"`
	BendCustom       string `json:"bend_custom"`
	PressureSource   string `json:"pressure_source" binding:"required"`
	ThirdDimensionCC *int   `json:"third_dimension_cc" binding:"required"`
}

// Values converts the request into preference values
func (r ConfigRequest) Values() prefs.Values {
	v := prefs.Values{
		BendSelect:     r.BendSelect,
		BendCustom:     r.BendCustom,
		PressureSource: r.PressureSource,
	}
	if r.ThirdDimensionCC != nil {
		v.ThirdDimensionCC = *r.ThirdDimensionCC
	}
	return v
}

// getConfig godoc
// @Summary Current preferences
// @Tags config
// @Produce json
// @Success 200 {object} ConfigView
// @Router /api/v1/config [get]
func (s *Server) getConfig(c *gin.Context) {
	cfg := s.mon.Config()
	c.JSON(http.StatusOK, ConfigView{
		Preferences: prefs.ValuesFor(cfg),
		Config:      cfg,
	})
}

// putConfig godoc
// @Summary Change preferences
// @Description Validates, stores and applies bend range, pressure source and third dimension CC
// @Tags config
// @Accept json
// @Produce json
// @Param body body ConfigRequest true "Preferences"
// @Success 200 {object} monitor.Config
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/config [put]
func (s *Server) putConfig(c *gin.Context) {
	var req ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bend_select, pressure_source and third_dimension_cc are required"})
		return
	}

	cfg, err := s.store.Record(req.Values())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.mon.SetConfig(cfg)

	if err := s.store.Save(); err != nil {
		s.logger.Error("api: saving preferences", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// resetChannels godoc
// @Summary Clear all channel records
// @Tags state
// @Success 204
// @Router /api/v1/reset/channels [post]
func (s *Server) resetChannels(c *gin.Context) {
	s.mon.ResetChannels()
	c.Status(http.StatusNoContent)
}

// resetVoices godoc
// @Summary Clear all voices
// @Tags state
// @Success 204
// @Router /api/v1/reset/voices [post]
func (s *Server) resetVoices(c *gin.Context) {
	s.mon.ResetVoices()
	c.Status(http.StatusNoContent)
}

// MessageRequest is the body of POST /messages
type MessageRequest struct {
	Data []int `json:"data" binding:"required"`
}

// postMessage godoc
// @Summary Inject one raw MIDI message
// @Tags state
// @Accept json
// @Produce json
// @Param body body MessageRequest true "Message bytes"
// @Success 200 {object} StateView
// @Failure 400 {object} map[string]string
// @Router /api/v1/messages [post]
func (s *Server) postMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if len(req.Data) == 0 || len(req.Data) > 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A message has 1 to 3 bytes"})
		return
	}

	raw := make([]byte, len(req.Data))
	for i, b := range req.Data {
		if b < 0 || b > 0xFF {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Byte %d out of range: %d", i, b)})
			return
		}
		raw[i] = byte(b)
	}

	s.mon.Process(raw)
	c.JSON(http.StatusOK, NewStateView(s.mon.Snapshot()))
}
