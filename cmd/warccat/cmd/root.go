/*
 * Copyright 2021 National Library of Norway.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmd

import (
	"fmt"
	"os"

	"github.com/webarchive-tools/gowarc-core/cmd/warccat/cmd/cat"
	"github.com/webarchive-tools/gowarc-core/cmd/warccat/cmd/ls"
	"github.com/webarchive-tools/gowarc-core/cmd/warccat/cmd/verify"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type conf struct {
	cfgFile string
}

// NewCommand returns the root cobra.Command for warccat.
func NewCommand() *cobra.Command {
	c := &conf{}
	cmd := &cobra.Command{
		Use:   "warccat",
		Short: "Read, list, and verify WARC files",
		Long: `warccat is a small command-line tool built on gowarc-core for inspecting
WARC and WARC.gz archives: list the records in a file, dump records'
headers (and, optionally, payloads), or verify every record's block and
payload digests.`,
	}

	cobra.OnInitialize(func() { c.initConfig() })

	cmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.warccat.yaml)")

	cmd.AddCommand(ls.NewCommand())
	cmd.AddCommand(cat.NewCommand())
	cmd.AddCommand(verify.NewCommand())

	return cmd
}

// initConfig loads a config file (--config, or ~/.warccat.* by default)
// and matching environment variables into viper. No flag is bound to
// viper, so the subcommands take their settings from flags only and do
// not read the loaded values.
func (c *conf) initConfig() {
	if c.cfgFile != "" {
		viper.SetConfigFile(c.cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".warccat")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
