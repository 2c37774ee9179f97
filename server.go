package gatekeep

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatekeep/errors"
	"gatekeep/internal/config"
	"gatekeep/logging"
	"gatekeep/serverutil"

	"github.com/NYTimes/gziphandler"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// ServerOption customizes the configuration and operation of the server.
type ServerOption func(*builder)

// WithBaseContext sets the context propagated to request handlers. The
// server shuts down when the context is canceled.
func WithBaseContext(ctx context.Context) ServerOption {
	return func(b *builder) {
		b.baseContext = ctx
	}
}

// WithLogger sets the logger used for request logging and server lifecycle
// messages.
func WithLogger(logger logging.Logger) ServerOption {
	return func(b *builder) {
		b.logger = logger
	}
}

// WithHTTPHandler registers a handler for the given pattern.
func WithHTTPHandler(pattern string, h http.Handler) ServerOption {
	return func(b *builder) {
		b.handlers = append(b.handlers, handlerEntry{pattern, h})
	}
}

// WithHTTPHandlerFunc registers a handler function for the given pattern.
func WithHTTPHandlerFunc(pattern string, h http.HandlerFunc) ServerOption {
	return WithHTTPHandler(pattern, h)
}

// WithPort overrides the configured listen port.
func WithPort(port int) ServerOption {
	return func(b *builder) {
		b.port = port
	}
}

type handlerEntry struct {
	pattern string
	handler http.Handler
}

type builder struct {
	baseContext context.Context
	logger      logging.Logger
	host        string
	port        int
	address     string
	certFile    string
	keyFile     string
	security    *SecurityHeaders
	handlers    []handlerEntry
}

// New builds a Server from global config plus the provided options.
func New(opts ...ServerOption) *Server {
	config.EnsureDefaultsLoaded(Config)

	b := &builder{
		host:     Config.String("server.host"),
		port:     Config.Int("server.port"),
		address:  Config.String("address"),
		certFile: Config.String("server.tls.certFile"),
		keyFile:  Config.String("server.tls.keyFile"),
		security: &SecurityHeaders{
			XFramesOptions:        XFramesOptions(Config.String("server.security.xFramesOptions")),
			HSTSExpiration:        Config.Duration("server.security.hstsExpiration"),
			HSTSIncludeSubdomains: Config.Bool("server.security.hstsIncludeSubdomains"),
			HSTSPreload:           Config.Bool("server.security.hstsPreload"),
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b.build()
}

func (b *builder) build() *Server {
	if b.baseContext == nil {
		b.baseContext = context.Background()
	}
	if b.logger == nil {
		b.logger = logging.FromContext(b.baseContext)
	}

	mux := http.NewServeMux()
	for _, h := range b.handlers {
		mux.Handle(h.pattern, h.handler)
	}

	handler := logging.Middleware(b.logger)(mux)
	handler = b.security.Middleware(handler)
	handler = gziphandler.GzipHandler(handler)

	baseCtx := serverutil.WithAddress(logging.With(b.baseContext, b.logger), b.address)

	return &Server{
		host:        b.host,
		port:        b.port,
		certFile:    b.certFile,
		keyFile:     b.keyFile,
		baseContext: baseCtx,
		handler:     handler,
	}
}

// Server hosts the verification endpoints over plain HTTP or TLS.
type Server struct {
	host        string
	port        int
	certFile    string
	keyFile     string
	baseContext context.Context
	handler     http.Handler
	httpServer  *http.Server
}

// Start serving requests. Blocks until Shutdown is called, the base context
// is canceled, or a SIGTERM/SIGINT arrives.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.httpServer = &http.Server{
		Addr: addr,
		BaseContext: func(net.Listener) context.Context {
			return s.baseContext
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		gracefulStop := make(chan os.Signal, 1)
		signal.Notify(gracefulStop, syscall.SIGTERM, syscall.SIGINT)
		select {
		case sig := <-gracefulStop:
			logging.Infof(s.baseContext, "graceful shutdown triggered (sig %v)", sig)
		case <-s.baseContext.Done():
			logging.Info(s.baseContext, "graceful shutdown triggered (context canceled)")
		}
		s.Shutdown()
		close(done)
	}()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %v", err)
	}
	defer ln.Close()

	if s.certFile != "" {
		s.httpServer.Handler = s.handler
		logging.Infof(s.baseContext, "listening for traffic on https://%s", addr)
		err = s.httpServer.ServeTLS(ln, s.certFile, s.keyFile)
	} else {
		// Allow plaintext HTTP/2 so the service works behind proxies that
		// speak h2c to their backends.
		s.httpServer.Handler = h2c.NewHandler(s.handler, &http2.Server{})
		logging.Infof(s.baseContext, "listening for traffic on http://%s", addr)
		err = s.httpServer.Serve(ln)
	}

	if !errors.Is(err, http.ErrServerClosed) {
		return err // The server wasn't shutdown gracefully.
	}

	<-done
	return nil
}

// Shutdown gracefully shuts down the server, draining in-flight requests
// with a short timeout.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		logging.Errorf(s.baseContext, "shutdown error: %v", err)
	} else {
		logging.Info(s.baseContext, "connections drained")
	}
	return err
}

// Handler exposes the fully wrapped handler chain, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}
