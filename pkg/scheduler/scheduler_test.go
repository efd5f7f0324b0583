// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_DefaultsDeriveIOFromWorkers(t *testing.T) {
	s := New(Config{Workers: 4})
	assert.Equal(t, 4, s.Workers())
	assert.Equal(t, 8, s.IOConcurrency())

	s2 := New(Config{Workers: 1})
	assert.Equal(t, 8, s2.IOConcurrency(), "max(8, 2*W) floors at 8")
}

func TestRunCPU_VisitsEveryIndexExactlyOnce(t *testing.T) {
	s := New(Config{Workers: 4})
	n := 50
	var counters [50]int32

	s.RunCPU(context.Background(), n, func(i int) {
		atomic.AddInt32(&counters[i], 1)
	})

	for i, c := range counters {
		assert.EqualValues(t, 1, c, "index %d visited %d times", i, c)
	}
}

func TestRunCPU_SmallNRunsSequentially(t *testing.T) {
	s := New(Config{Workers: 4})
	var order []int
	s.RunCPU(context.Background(), 3, func(i int) {
		order = append(order, i)
	})
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestExtractionPipe_SendThenReceive(t *testing.T) {
	p := NewExtractionPipe[int](2)
	p.Send(1)
	p.Send(2)
	p.Close()

	var got []int
	for v := range p.Receive() {
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2}, got)
}
