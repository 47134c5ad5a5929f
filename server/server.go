// Package server exposes the background remover over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"

	"github.com/chaos-io/nobg/matte"
	"github.com/chaos-io/nobg/util"
	nhttp "github.com/chaos-io/nobg/util/http"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
	shutdownTimeout = 10 * time.Second
)

type Options struct {
	Addr           string
	Matte          matte.Config // defaults for requests that set no parameters
	MaxSize        int
	Workers        int
	MaxUploadBytes int64
}

type Server struct {
	opts   Options
	cli    nhttp.IClient
	logger *log.Logger
	engine *gin.Engine
}

func New(opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		opts:   opts,
		cli:    nhttp.NewHTTPClient(),
		logger: logger,
		engine: gin.New(),
	}
	s.routes()
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery(), s.requestID(), s.accessLog())
	s.engine.GET("/healthz", s.health)
	s.engine.POST("/v1/remove", s.remove)
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ksuid.New().String()
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).Round(time.Millisecond),
			requestIDKey, c.GetString(requestIDKey),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	s.logger.Debug("request failed", "status", status, "err", err, requestIDKey, c.GetString(requestIDKey))
	c.AbortWithStatusJSON(status, gin.H{
		"error":      err.Error(),
		"request_id": c.GetString(requestIDKey),
	})
}

func (s *Server) remove(c *gin.Context) {
	if s.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)
	}

	img, status, err := s.readImage(c)
	if err != nil {
		s.fail(c, status, err)
		return
	}

	cfg, err := s.matteConfig(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	p := &matte.Preprocessor{
		RemBG:   &matte.WhiteRemover{Config: cfg, Workers: s.opts.Workers},
		MaxSize: s.opts.MaxSize,
		Trim:    parseBool(param(c, "trim")),
	}

	out, err := p.Process(c.Request.Context(), img)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	var buf bytes.Buffer
	if err := util.EncodePNG(&buf, out.Image); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) matteConfig(c *gin.Context) (matte.Config, error) {
	cfg := s.opts.Matte
	if v := param(c, "threshold"); v != "" {
		t, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid threshold %q", v)
		}
		cfg.Threshold = t
	}
	if v := param(c, "feather"); v != "" {
		cfg.Feather = parseBool(v)
	}
	return cfg.Clamped(), nil
}

// readImage takes the multipart "image" file, or else fetches "url".
func (s *Server) readImage(c *gin.Context) (image.Image, int, error) {
	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("open upload: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		img, _, err := util.Decode(f)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		return img, 0, nil
	case isTooLarge(err):
		return nil, http.StatusRequestEntityTooLarge, errors.New("upload too large")
	}

	u := param(c, "url")
	if u == "" {
		return nil, http.StatusBadRequest, errors.New(`missing "image" file or "url"`)
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return nil, http.StatusBadRequest, fmt.Errorf("unsupported url %q", u)
	}
	img, err := util.DownloadImage(c.Request.Context(), s.cli, u, s.opts.MaxUploadBytes)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, http.StatusBadRequest, err
		}
		if errors.Is(err, nhttp.ErrBodyTooLarge) {
			return nil, http.StatusRequestEntityTooLarge, errors.New("remote image too large")
		}
		return nil, http.StatusBadGateway, err
	}
	return img, 0, nil
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	// multipart does not always wrap the reader error
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

// param reads a form value, falling back to the query string.
func param(c *gin.Context, key string) string {
	if v, ok := c.GetPostForm(key); ok {
		return v
	}
	return c.Query(key)
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	}
	return false
}
