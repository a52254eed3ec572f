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

package profile

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColdProfile(t *testing.T) {
	p := New(0.01, 10)
	require.True(t, p.Cold())
	_, ok := p.Mean()
	assert.False(t, ok)
	assert.Equal(t, 0.0, p.Std())
	_, ok = p.ZScore(100)
	assert.False(t, ok)
}

func TestFirstUpdate(t *testing.T) {
	p := New(0.01, 10)
	p.Update(42)
	mean, ok := p.Mean()
	require.True(t, ok)
	assert.Equal(t, 42.0, mean)
	assert.Equal(t, 0.0, p.Std())
	assert.Equal(t, 1, p.Count())
	assert.False(t, p.Cold())
}

func TestUpdateBlending(t *testing.T) {
	p := New(0.5, 0)
	p.Update(10)
	p.Update(20)
	mean, _ := p.Mean()
	// delta=10, mean=10+0.5*10, variance=0.5*0+0.5*100
	assert.Equal(t, 15.0, mean)
	assert.InDelta(t, 50.0, p.Std()*p.Std(), 1e-9)
}

func TestInvalidAlphaFallsBackToDefault(t *testing.T) {
	for _, alpha := range []float64{0, -1, 1, 2} {
		p := New(alpha, 0)
		assert.Equal(t, DefaultAlpha, p.alpha)
	}
}

func TestCountAndNonNegativeStd(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	p := New(0.01, 10)
	for n := 1; n <= 500; n++ {
		p.Update(rnd.NormFloat64()*50 + 200)
		require.Equal(t, n, p.Count())
		require.GreaterOrEqual(t, p.Std(), 0.0)
	}
}

func TestConstantValueConverges(t *testing.T) {
	p := New(0.01, 10)
	p.Update(5)
	p.Update(15)
	for i := 0; i < 5000; i++ {
		p.Update(10)
	}
	assert.InDelta(t, 0.0, p.Std(), 1e-3)
	if z, ok := p.ZScore(10); ok {
		assert.InDelta(t, 0.0, z, 1e-2)
	}
}

func TestWarmUpThreshold(t *testing.T) {
	p := New(0.1, 10)
	values := []float64{1, 3, 1, 3, 1, 3, 1, 3, 1, 3}
	for _, v := range values {
		p.Update(v)
	}
	// exactly warmUp samples: still uninformed
	_, ok := p.ZScore(100)
	assert.False(t, ok)

	p.Update(1)
	z, ok := p.ZScore(100)
	require.True(t, ok)
	assert.Greater(t, z, 3.0)
}

func TestZeroSpreadIsUninformed(t *testing.T) {
	p := New(0.1, 2)
	for i := 0; i < 20; i++ {
		p.Update(7)
	}
	_, ok := p.ZScore(1000)
	assert.False(t, ok)
}

func TestDeterministic(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	values := make([]float64, 200)
	for i := range values {
		values[i] = rnd.Float64() * 1000
	}
	a, b := New(0.01, 10), New(0.01, 10)
	for _, v := range values {
		a.Update(v)
		b.Update(v)
	}
	assert.Equal(t, *a, *b)
}

func TestReset(t *testing.T) {
	p := New(0.01, 10)
	for i := 0; i < 50; i++ {
		p.Update(float64(i))
	}
	p.Reset()
	assert.True(t, p.Cold())
	assert.Equal(t, 0, p.Count())
	_, ok := p.Mean()
	assert.False(t, ok)
}

func BenchmarkProfileUpdate(b *testing.B) {
	p := New(0.01, 10)
	for i := 0; i < b.N; i++ {
		p.Update(float64(i % 100))
		_, _ = p.ZScore(50)
	}
}
