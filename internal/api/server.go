// Package api serves reconciled token data over JSON HTTP.
package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/listing"
	"pulse-token-board/internal/logging"
	"pulse-token-board/internal/observability"
	"pulse-token-board/internal/query"
	"pulse-token-board/internal/token"
	"pulse-token-board/internal/wallet"
)

// MaxPageSize bounds the pageSize query parameter.
const MaxPageSize = 100

// Error is an API error rendered as {"error": message}.
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
}

func (e Error) Error() string {
	return e.Message
}

// Server wires the HTTP routes to the services.
type Server struct {
	tokens  *token.Service
	listing *listing.Service
	wallets *wallet.Service
	chain   domain.ChainInfo
	logger  logrus.FieldLogger
	debug   bool
}

// Option configures Server.
type Option func(*Server)

// WithDebug mounts the pprof handlers under /debug/pprof.
func WithDebug(debug bool) Option {
	return func(s *Server) {
		s.debug = debug
	}
}

// NewServer creates a Server. A nil logger discards output.
func NewServer(tokens *token.Service, list *listing.Service, wallets *wallet.Service, chain domain.ChainInfo, logger logrus.FieldLogger, opts ...Option) *Server {
	s := &Server{
		tokens:  tokens,
		listing: list,
		wallets: wallets,
		chain:   chain,
		logger:  logging.OrDiscard(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// App builds the fiber application.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "pulse-token-board",
		ErrorHandler:          s.handleError,
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          90 * time.Second,
	})

	app.Use(recover.New())
	if s.debug {
		app.Use(pprof.New())
	}
	app.Use("/api/", s.observe)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/metrics", adaptor.HTTPHandler(observability.Handler()))

	app.Get("/api/chain", s.getChain)
	app.Get("/api/tokens", s.listTokens)
	app.Get("/api/tokens/all", s.allTokens)
	app.Get("/api/tokens/:address", s.getToken)
	app.Get("/api/search", s.search)
	app.Get("/api/buckets", s.buckets)
	app.Get("/api/wallets/:address/networth", s.netWorth)

	return app
}

// observe records request metrics and a Server-Timing header.
func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	c.Append("Server-Timing", fmt.Sprintf("app;dur=%v", time.Since(start).String()))

	status := c.Response().StatusCode()
	if err != nil {
		status = statusOf(err)
	}
	observability.RecordAPIRequest(c.Route().Path, status)
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := statusOf(err)
	msg := err.Error()
	if code >= fiber.StatusInternalServerError {
		s.logger.WithFields(logrus.Fields{
			"path":   c.Path(),
			"status": code,
		}).WithError(err).Error("request failed")
		msg = "internal server error"
	}
	return c.Status(code).JSON(Error{Code: code, Message: msg})
}

func statusOf(err error) int {
	var apiErr Error
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

func unprocessable(format string, args ...any) error {
	return Error{Code: fiber.StatusUnprocessableEntity, Message: fmt.Sprintf(format, args...)}
}

type tokensQuery struct {
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize"`
	Sort     string `query:"sort"`
	Dir      string `query:"dir"`
	Scope    string `query:"scope"`
}

func (q tokensQuery) validate() error {
	switch {
	case q.Page < 0:
		return unprocessable("page must be positive")
	case q.PageSize < 0 || q.PageSize > MaxPageSize:
		return unprocessable("pageSize must be between 1 and %d", MaxPageSize)
	}
	switch strings.ToLower(q.Scope) {
	case "", string(listing.ScopePage), string(listing.ScopeAll):
	default:
		return unprocessable("scope must be page or all")
	}
	return nil
}

func (s *Server) listTokens(c *fiber.Ctx) error {
	var q tokensQuery
	if err := c.QueryParser(&q); err != nil {
		return unprocessable("%s", err.Error())
	}
	if err := q.validate(); err != nil {
		return err
	}

	page := s.listing.Page(c.UserContext(), listing.PageRequest{
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortKey:   q.Sort,
		Direction: query.ParseDirection(q.Dir),
		Scope:     listing.ParseScope(strings.ToLower(q.Scope)),
	})
	return c.JSON(page)
}

func (s *Server) allTokens(c *fiber.Ctx) error {
	return c.JSON(s.tokens.GetAllTokensWithLiveData(c.UserContext()))
}

func (s *Server) getToken(c *fiber.Ctx) error {
	rec, err := s.tokens.Lookup(c.UserContext(), c.Params("address"))
	if errors.Is(err, token.ErrNotFound) {
		return Error{Code: fiber.StatusNotFound, Message: "token not found"}
	}
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (s *Server) search(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return unprocessable("q is required")
	}
	return c.JSON(s.tokens.Search(c.UserContext(), q))
}

func (s *Server) buckets(c *fiber.Ctx) error {
	return c.JSON(s.listing.Buckets(c.UserContext()))
}

func (s *Server) netWorth(c *fiber.Ctx) error {
	nw, err := s.wallets.NetWorth(c.UserContext(), c.Params("address"))
	if errors.Is(err, wallet.ErrInvalidAddress) {
		return Error{Code: fiber.StatusBadRequest, Message: err.Error()}
	}
	if err != nil {
		return err
	}
	return c.JSON(nw)
}

func (s *Server) getChain(c *fiber.Ctx) error {
	return c.JSON(s.chain)
}
