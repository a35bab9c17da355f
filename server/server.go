// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the signing dispatcher over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/offsign/offsign-go"
	"github.com/offsign/offsign-go/credential"
	"github.com/offsign/offsign-go/log"
	"github.com/offsign/offsign-go/secret"
	"github.com/offsign/offsign-go/signer"
)

// DefaultMaxBodyBytes limits the size of a signing request body.
const DefaultMaxBodyBytes = 256 << 20

const shutdownTimeout = 5 * time.Second

// Signer signs one request. It is implemented by *offsign.Dispatcher.
type Signer interface {
	Sign(ctx context.Context, req *offsign.SigningRequest) *offsign.Result
}

// Options configures a Server.
type Options struct {
	// Logger receives request logs and is handed to the signer through the
	// request context. Defaults to log.Discard.
	Logger log.Logger

	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler

	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Server is the HTTP front end of a Signer.
type Server struct {
	signer Signer
	opts   Options
	router *gin.Engine
}

// signRequest is the body of POST /sign. The document is only accepted as a
// base64 file stream and tool paths come from the server configuration.
// localCertPath is the one host path a client names: a certificate file on
// the server host.
type signRequest struct {
	FileStream          string `json:"fileStream"`
	FileName            string `json:"fileName"`
	LocalCertPath       string `json:"localCertPath"`
	LocalCertPassword   string `json:"localCertPassword"`
	CertIssuer          string `json:"certIssuer"`
	CertName            string `json:"certName"`
	FileDigestAlgorithm string `json:"fileDigestAlgorithm"`

	LocalFilePath   string `json:"localFilePath"`
	SignToolPath    string `json:"signToolPath"`
	WindowsKitsPath string `json:"windowsKitsPath"`
}

// New returns a Server that forwards requests to s.
func New(s Signer, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	srv := &Server{signer: s, opts: opts}
	router := gin.New()
	router.Use(gin.Recovery(), srv.accessLog())
	router.POST("/sign", srv.handleSign)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	srv.router = router
	return srv
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.opts.Logger.Infof("listening on %s", ln.Addr())
		errc <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.opts.Logger.Info("shutting down")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleSign(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes)
	var body signRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond(c, offsign.Failed(offsign.InvalidRequestError{Msg: fmt.Sprintf("malformed signing request: %v", err)}))
		return
	}
	if body.LocalFilePath != "" || body.SignToolPath != "" || body.WindowsKitsPath != "" {
		respond(c, offsign.Failed(offsign.InvalidRequestError{Msg: "paths on the signing host cannot be set over HTTP"}))
		return
	}

	req := &offsign.SigningRequest{
		FileStream: body.FileStream,
		FileName:   body.FileName,
		Credential: credential.Options{
			CertPath: body.LocalCertPath,
			Issuer:   body.CertIssuer,
			Subject:  body.CertName,
		},
		DigestAlgorithm: signer.DigestAlgorithm(body.FileDigestAlgorithm),
	}
	if body.LocalCertPassword != "" {
		password := secret.New(body.LocalCertPassword)
		req.Credential.PasswordSecret = &password
	}

	ctx := log.WithLogger(c.Request.Context(), s.opts.Logger)
	respond(c, s.signer.Sign(ctx, req))
}

func respond(c *gin.Context, result *offsign.Result) {
	status := http.StatusOK
	if !result.OK() {
		status = http.StatusInternalServerError
	}
	c.JSON(status, result)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.opts.Logger.Debugf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
