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

// Package transport supplies the concrete byte-stream bindings the core
// warc package treats as external collaborators: something that can be
// read and written at byte granularity, with no seek assumed.
package transport

import "io"

// IOStream is the minimal blocking byte-transport contract the core
// consumes: io.Reader for read(n) -> bytes, io.Writer for write(bytes) ->
// size_t.
type IOStream interface {
	io.Reader
	io.Writer
}
