package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iulianpascalau/newrelic-audits/services/reports/common"
	"github.com/iulianpascalau/newrelic-audits/services/reports/storage"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const targetQueryParam = "target"

var log = logger.GetOrCreate("api")

var knownOutcomes = map[string]struct{}{
	"success":        {},
	"not_applicable": {},
	"failure":        {},
}

type server struct {
	router         *gin.Engine
	httpServer     *http.Server
	storage        Storage
	serviceKey     string
	listenAddr     string
	generalHandler func(http.Handler) http.Handler
	wg             sync.WaitGroup
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ServiceKeyApi  string
	ListenAddress  string
	Storage        Storage
	GeneralHandler func(http.Handler) http.Handler
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.Storage) {
		return nil, errors.New("storage is required")
	}
	if args.GeneralHandler == nil {
		return nil, errors.New("nil http handler")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		storage:        args.Storage,
		serviceKey:     args.ServiceKeyApi,
		listenAddr:     args.ListenAddress,
		generalHandler: args.GeneralHandler,
	}

	s.setupRoutes()
	return s, nil
}

func (s *server) setupRoutes() {
	api := s.router.Group("/api")
	api.Use(s.authAPIKey())
	{
		api.POST("/report", s.handleReport)
		api.GET("/results", s.handleGetResults)
		api.GET("/results/:audit/history", s.handleGetResultHistory)
		api.DELETE("/results/:audit", s.handleDeleteResults)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "api route not found"})
	})
}

// Start listens and serves connections
func (s *server) Start() {
	handler := s.generalHandler(s.router)

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: handler,
	}

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		log.Error("failed to listen", "error", err)
		return
	}
	s.listenAddr = ln.Addr().String()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
		}
	}()
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()
	return s.storage.Close()
}

func (s *server) authAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		if key != s.serviceKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *server) handleReport(c *gin.Context) {
	var payload common.ReportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if len(payload.Auditor) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing auditor"})
		return
	}

	recordedAt := time.Now().Unix()
	ctx := c.Request.Context()

	log.Debug("received report", "sender", c.Request.RemoteAddr, "auditor", payload.Auditor, "num results", len(payload.Results))

	numStored := 0
	for _, result := range payload.Results {
		if !isValidResult(result) {
			log.Warn("skipping invalid audit result", "auditor", payload.Auditor, "audit", result.Audit,
				"target", result.Target, "outcome", result.Outcome)
			continue
		}

		err := s.storage.SaveResult(ctx, payload.Auditor, result, recordedAt)
		if err != nil {
			log.Warn("failed to save audit result", "audit", result.Audit, "target", result.Target, "error", err)
			continue
		}
		numStored++
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "stored": numStored})
}

func isValidResult(result common.AuditResult) bool {
	if len(result.Audit) == 0 || len(result.Target) == 0 {
		return false
	}

	_, found := knownOutcomes[result.Outcome]
	return found
}

func (s *server) handleGetResults(c *gin.Context) {
	results, err := s.storage.GetLatestResults(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *server) handleGetResultHistory(c *gin.Context) {
	audit := c.Param("audit")
	target := c.Query(targetQueryParam)
	if len(target) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing target"})
		return
	}

	hist, err := s.storage.GetResultHistory(c.Request.Context(), audit, target)
	if err != nil {
		if errors.Is(err, storage.ErrResultNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, hist)
}

func (s *server) handleDeleteResults(c *gin.Context) {
	audit := c.Param("audit")
	target := c.Query(targetQueryParam)
	if len(target) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing target"})
		return
	}

	err := s.storage.DeleteResults(c.Request.Context(), audit, target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
