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
	"flag"
	"os"
	"time"

	"github.com/brianvoe/gofakeit"
	"go.uber.org/zap"
)

func main() {
	out := flag.String("out", "", "The file to write to. Standard output is used if empty.")
	seed := flag.Int64("seed", 0, "The seed for the random generator. The current time is used if 0.")
	numCommands := flag.Int("commands", 100, "The number of command line history items.")
	numSearches := flag.Int("searches", 50, "The number of search history items.")
	numRegisters := flag.Int("registers", 10, "The number of registers.")
	numMarks := flag.Int("marks", 10, "The number of file marks.")
	numJumps := flag.Int("jumps", 100, "The number of jump list items.")
	spread := flag.Duration("spread", 30*24*time.Hour, "How far back in time the items are spread.")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	gofakeit.Seed(*seed)

	w := os.Stdout
	if *out != "" {
		w, err = os.Create(*out)
		if err != nil {
			logger.Fatal("got error when creating file", zap.String("fileName", *out), zap.Error(err))
		}
		defer w.Close()
	}
	c := counts{
		commands:  *numCommands,
		searches:  *numSearches,
		registers: *numRegisters,
		marks:     *numMarks,
		jumps:     *numJumps,
	}
	err = writeViminfo(w, c, time.Now().Add(-*spread), *spread)
	if err != nil {
		logger.Fatal("got error when writing viminfo", zap.Error(err))
	}
	logger.Info("wrote viminfo", zap.Int64("seed", *seed), zap.Int("events", c.events()))
}
