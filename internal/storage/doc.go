/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage keeps the embedded SQLite thumbnail cache at
// <cache dir>/pdfquirk/thumbs.sqlite. Rows are keyed by source path, file
// size, modification time and target size, so a changed image simply misses.
// The cache is disposable: a corrupt database is moved aside and recreated.
package storage
