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

package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/offsign/offsign-go/config"
	"github.com/offsign/offsign-go/metrics"
	"github.com/gin-gonic/gin"
	"github.com/offsign/offsign-go/server"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	address string
	archive bool
}

func serveCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve signing requests over HTTP",
		Long: `Serve signing requests over HTTP.

POST /sign accepts a JSON body with fileStream, fileName, localCertPath,
localCertPassword, certIssuer, certName and fileDigestAlgorithm. Tool paths
are taken from the configuration only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(root.context(cmd.Context()), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.address, "address", "", "listen address (default from configuration, then "+config.DefaultServerAddress+")")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "keep a copy of every signed document in the archive")
	return cmd
}

// configureGin silences gin's own output; requests are logged by the server.
func configureGin() {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard
	gin.DefaultErrorWriter = io.Discard
}

func runServer(ctx context.Context, root *rootOptions, opts *serveOptions) error {
	configureGin()
	recorder := metrics.NewRecorder()
	d, err := newDispatcher(root.cfg, opts.archive, recorder)
	if err != nil {
		return err
	}
	address := opts.address
	if address == "" {
		address = root.cfg.Server.Address
	}
	srv := server.New(d, server.Options{
		Logger:  root.logger,
		Metrics: recorder.Handler(),
	})
	return srv.Run(ctx, address)
}
