/*
 * Copyright (C) 2024 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityWeight(t *testing.T) {
	assert.Equal(t, 3, SeverityHigh.Weight())
	assert.Equal(t, 2, SeverityMedium.Weight())
	assert.Equal(t, 1, SeverityLow.Weight())
	assert.Equal(t, 1, Severity("unknown").Weight())
}

func TestFloat(t *testing.T) {
	v := 1.5
	p := Float(v)
	v = 2
	assert.Equal(t, 1.5, *p)
}
