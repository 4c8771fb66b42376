/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"pdfquirk/internal/crash"
	applog "pdfquirk/internal/log"
	"pdfquirk/internal/version"
)

func main() {
	defer crash.Recover()

	root := NewRootCmd()
	// fang adds styled help and errors, --version and a signal-aware context.
	err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version.String()),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	)
	_ = applog.Close()
	if err != nil {
		os.Exit(1)
	}
}
