package server

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thinhvd77/Tax/internal/api/pit"
	"github.com/thinhvd77/Tax/internal/config"
	"github.com/thinhvd77/Tax/internal/service/payroll"
	"github.com/thinhvd77/Tax/internal/store"
)

//go:embed web
var staticFiles embed.FS

// DBFilename run history database inside the data directory
const DBFilename = "pit.db"

// Server HTTP server
type Server struct {
	router *gin.Engine
	store  *store.Store
	pit    *pit.Handler
	log    *zap.Logger
}

// NewServer wires the store, the engine and the API.
// When the database cannot be opened the history is kept in memory.
func NewServer(cfg *config.AppConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Warn("failed to create data directory", zap.Error(err))
	}

	var (
		runs    payroll.RunStore
		history pit.RunHistory
	)
	sqliteStore, err := store.New(config.GetDataPath(cfg, DBFilename))
	if err != nil {
		log.Error("run history database unavailable, keeping runs in memory", zap.String("data_dir", dataDir), zap.Error(err))
		mem := store.NewMemoryStore(store.DefaultMemoryCapacity)
		runs, history = mem, mem
	} else {
		runs, history = sqliteStore, sqliteStore
	}

	svc := payroll.NewService(payroll.Options{
		Policy:     cfg.Policy(),
		Thresholds: cfg.Thresholds(),
		SheetName:  cfg.Report.SheetName,
		Runs:       runs,
		Logger:     log.Named("payroll"),
	})

	s := &Server{
		router: gin.New(),
		store:  sqliteStore,
		pit:    pit.NewHandler(svc, history, log.Named("api")),
		log:    log,
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, "+pit.HeaderRunID+", "+pit.HeaderWarnings)
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		s.pit.RegisterRoutes(api)
	}

	sub, _ := fs.Sub(staticFiles, "web")
	s.router.GET("/", func(c *gin.Context) {
		data, err := fs.ReadFile(sub, "index.html")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("no route for %s %s", c.Request.Method, c.Request.URL.Path)})
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	}
}

// Handler the HTTP handler, for tests and custom listeners
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts listening on addr
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close releases the run history database
func (s *Server) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
