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
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/offsign/offsign-go/dir"
	"github.com/spf13/cobra"
)

func configCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the offsign configuration file",
	}
	cmd.AddCommand(configInitCommand(root))
	return cmd
}

func configInitCommand(root *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the configuration file",
		Long: `Write the effective configuration to the configuration file.

The file named by --config is written, or offsign.json in the user config
directory. Values from an existing file and from --log-level and --log-file
are kept. An existing file is only replaced with --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath(root)
			if err != nil {
				return err
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config file %s already exists, use --force to replace it", path)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}
			if root.configPath != "" {
				err = root.cfg.SaveFile(path)
			} else {
				err = root.cfg.Save()
			}
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing configuration file")
	return cmd
}

func configFilePath(root *rootOptions) (string, error) {
	if root.configPath != "" {
		return root.configPath, nil
	}
	return dir.ConfigFS().SysPath(dir.PathConfigFile)
}
