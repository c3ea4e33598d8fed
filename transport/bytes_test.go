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

package transport

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes_ReadsSeededContentThenWrites(t *testing.T) {
	b := NewBytes([]byte("seeded"))

	head := make([]byte, 3)
	n, err := b.Read(head)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "see", string(head))

	n, err = b.Write([]byte("-appended"))
	require.NoError(t, err)
	assert.Equal(t, len("-appended"), n)

	rest, err := io.ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, "ded-appended", string(rest))
}

func TestBytes_EmptyInitial(t *testing.T) {
	b := NewBytes(nil)
	assert.Empty(t, b.Bytes())

	_, err := b.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b.Bytes()))
}
