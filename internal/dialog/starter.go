/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dialog

import (
	"context"

	"pdfquirk/internal/pdfbuild"
)

// CreatorStarter starts each request on a fresh pdfbuild.Creator.
type CreatorStarter struct {
	Builder pdfbuild.Builder
	// Ctx bounds every build; nil means context.Background.
	Ctx context.Context
}

// Start implements Starter. done runs on the build goroutine.
func (s CreatorStarter) Start(req pdfbuild.Request, done func(ok bool, output string)) error {
	ctx := s.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	cr := pdfbuild.NewCreator(s.Builder)
	return cr.Start(ctx, req, func(ok bool) {
		if done != nil {
			done(ok, cr.OutputFile())
		}
	})
}
