/*
 * Copyright (C) 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you may not
 * use this file except in compliance with the License. You may obtain a copy of
 * the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
 * WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
 * License for the specific language governing permissions and limitations under
 * the License.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/giangbb/scylla-mapping/schematool"
)

// Without registered entities the tool can describe a keyspace or drop it with --drop-unused.
// Applications embed schematool.Run with their own entities to create schemas.
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := schematool.Run(ctx, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		cancel()
		os.Exit(1)
	}
}
