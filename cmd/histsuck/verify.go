// Copyright 2024 Jack Bister
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jackbister/histsuck/internal/ingest"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "verify file...",
		Short: "Print the detected format of each file without parsing it",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runVerify,
	})
}

func runVerify(cmd *cobra.Command, args []string) error {
	c, logger, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer logger.Sync()

	return c.Invoke(func(svc *ingest.Service) error {
		unknown := 0
		for _, file := range args {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("error opening file=%s: %w", file, err)
			}
			format, err := svc.Detect(f)
			f.Close()
			if err != nil {
				logger.Debug("no format matched", zap.String("fileName", file), zap.Error(err))
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t-\n", file)
				unknown++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", file, format.Name())
		}
		if unknown > 0 {
			return fmt.Errorf("%d of %d files did not match any format", unknown, len(args))
		}
		return nil
	})
}
