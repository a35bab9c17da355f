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

	"github.com/offsign/offsign-go/config"
	"github.com/offsign/offsign-go/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions holds the state shared by every sub-command.
type rootOptions struct {
	configPath string
	logLevel   string
	logFile    string

	cfg    *config.Config
	logger *zap.SugaredLogger
}

func (o *rootOptions) addFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.configPath, "config", "", "path of the configuration file (default is offsign.json in the user config directory)")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&o.logFile, "log-file", "", "write logs to a rotated file instead of stderr")
}

// load reads the configuration, applies flag overrides and builds the logger.
func (o *rootOptions) load() error {
	var err error
	if o.configPath != "" {
		o.cfg, err = config.LoadConfigFile(o.configPath)
	} else {
		o.cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		o.cfg.Log.Level = o.logLevel
	}
	if o.logFile != "" {
		o.cfg.Log.File = o.logFile
	}
	o.logger, err = newLogger(o.cfg.Log)
	return err
}

// context returns ctx carrying the command logger.
func (o *rootOptions) context(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return log.WithLogger(ctx, o.logger)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "offsign",
		Short:         "Sign and verify Office macro documents with signtool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}
	opts.addFlags(cmd)
	cmd.AddCommand(
		signCommand(opts),
		serveCommand(opts),
		extensionsCommand(),
		configCommand(opts),
	)
	return cmd
}
