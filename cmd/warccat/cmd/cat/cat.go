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

package cat

import (
	"errors"
	"fmt"
	"io"
	"os"

	warc "github.com/webarchive-tools/gowarc-core"

	"github.com/spf13/cobra"
)

type conf struct {
	offset      int64
	recordCount int
	body        bool
	fileName    string
}

// NewCommand returns the "cat" subcommand: dump one or more records'
// headers (and, with --body, payload bytes) in full.
func NewCommand() *cobra.Command {
	c := &conf{}
	cmd := &cobra.Command{
		Use:   "cat <file>",
		Short: "Print WARC records in full",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("missing file name")
			}
			c.fileName = args[0]
			return run(c)
		},
	}

	cmd.Flags().Int64VarP(&c.offset, "offset", "o", 0, "byte offset to start reading from")
	cmd.Flags().IntVarP(&c.recordCount, "record-count", "c", 0, "maximum number of records to print (0 = all)")
	cmd.Flags().BoolVar(&c.body, "body", false, "also print each record's payload bytes")

	return cmd
}

func run(c *conf) error {
	wf, err := warc.NewWarcFileReader(c.fileName, c.offset)
	if err != nil {
		return fmt.Errorf("opening %s: %w", c.fileName, err)
	}
	defer wf.Close()

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
		printRecord(rec, c.body)
		if c.recordCount > 0 && count >= c.recordCount {
			break
		}
	}
	fmt.Fprintf(os.Stderr, "%d records\n", count)
	return nil
}

func printRecord(rec *warc.Record, body bool) {
	rec.Headers().Write(os.Stdout)
	fmt.Println()
	fmt.Println()
	if rec.IsHTTP() && rec.HTTPHeaders() != nil {
		rec.HTTPHeaders().Write(os.Stdout)
		fmt.Println()
		fmt.Println()
	}
	if body {
		_, _ = io.Copy(os.Stdout, rec.Reader())
		fmt.Println()
	}
	fmt.Println("----")
}
