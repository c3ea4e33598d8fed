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

package ls

import (
	"errors"
	"fmt"
	"io"
	"os"

	warc "github.com/webarchive-tools/gowarc-core"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type conf struct {
	offset     int64
	recordType string
	fileName   string
}

// NewCommand returns the "ls" subcommand: one summary line per record.
func NewCommand() *cobra.Command {
	c := &conf{}
	cmd := &cobra.Command{
		Use:   "ls <file>",
		Short: "List the records in a WARC file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("missing file name")
			}
			c.fileName = args[0]
			return run(c)
		},
	}

	cmd.Flags().Int64VarP(&c.offset, "offset", "o", 0, "byte offset to start reading from")
	cmd.Flags().StringVarP(&c.recordType, "type", "t", "", "only list records of this WARC-Type")

	return cmd
}

func run(c *conf) error {
	filter := warc.AnyType
	if c.recordType != "" {
		filter = warc.ParseRecordType(c.recordType)
	}

	wf, err := warc.NewWarcFileReader(c.fileName, c.offset, warc.WithTypeFilter(filter), warc.WithHTTPParsing(false))
	if err != nil {
		return fmt.Errorf("opening %s: %w", c.fileName, err)
	}
	defer wf.Close()

	bold := color.New(color.Bold)
	count := 0
	for {
		rec, err := wf.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading record %d: %w", count, err)
		}
		count++
		bold.Printf("%-10s", rec.Type())
		fmt.Printf(" %-40s %s\n", rec.Headers().Get("WARC-Record-ID"), rec.Headers().Get("WARC-Target-URI"))
	}
	fmt.Fprintf(os.Stderr, "%d records\n", count)
	return nil
}
