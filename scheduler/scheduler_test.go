/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sizedPacket struct {
	seq int
	sz  uint32
}

func (p sizedPacket) Size() uint32 { return p.sz }

// TestFIFOOrdering implements a scaled-down version of scenario S3 from
// spec.md section 8: packets tagged by sequence number must be delivered
// in FIFO order with no gaps.
func TestFIFOOrdering(t *testing.T) {
	s := New(1<<20, true)
	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	go func() {
		s.Run(func(c Command) error {
			if c.Kind == CommandWritePacket {
				mu.Lock()
				got = append(got, c.Packet.(sizedPacket).seq)
				mu.Unlock()
			}
			return nil
		})
		close(done)
	}()

	const n = 500
	for i := 0; i < n; i++ {
		require.NoError(t, s.Enqueue(Command{Kind: CommandWritePacket, Packet: sizedPacket{seq: i, sz: 16}}))
	}
	s.Stop()
	<-done

	require.Len(t, got, n)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestQueueBound(t *testing.T) {
	s := New(4096, false)
	for i := 0; i < 1000; i++ {
		require.NoError(t, s.Enqueue(Command{Kind: CommandWritePacket, Packet: sizedPacket{seq: i, sz: 64}}))
		require.LessOrEqual(t, s.QueuedBytes(), uint64(4096))
	}
}

// TestDropOldSuffix implements scenario S4 from spec.md section 8: under
// drop-old overflow, the packets remaining in the queue form a contiguous
// suffix of the submitted sequence.
func TestDropOldSuffix(t *testing.T) {
	s := New(4096, false)
	const n = 10000
	for i := 0; i < n; i++ {
		require.NoError(t, s.Enqueue(Command{Kind: CommandWritePacket, Packet: sizedPacket{seq: i, sz: 64}}))
	}

	var got []int
	for e := s.items.Front(); e != nil; e = e.Next() {
		got = append(got, e.Value.(queuedItem).cmd.Packet.(sizedPacket).seq)
	}
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		require.Equal(t, got[i-1]+1, got[i], "must be a contiguous suffix")
	}
	require.Equal(t, n-1, got[len(got)-1])
}

func TestThrottleBlocksUntilSpace(t *testing.T) {
	s := New(128, true)
	require.NoError(t, s.Enqueue(Command{Kind: CommandWritePacket, Packet: sizedPacket{sz: 96}}))

	blocked := make(chan struct{})
	go func() {
		close(blocked)
		require.NoError(t, s.Enqueue(Command{Kind: CommandWritePacket, Packet: sizedPacket{sz: 96}}))
	}()
	<-blocked
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, uint64(96+overhead), s.QueuedBytes(), "second enqueue should still be blocked")

	done := make(chan struct{})
	go func() {
		s.Run(func(c Command) error { return nil })
		close(done)
	}()
	s.Stop()
	<-done
}

func TestStopRejectsLateProducers(t *testing.T) {
	s := New(1024, true)
	done := make(chan struct{})
	go func() {
		s.Run(func(Command) error { return nil })
		close(done)
	}()
	s.Stop()
	<-done
	require.ErrorIs(t, s.Enqueue(Command{Kind: CommandWritePacket, Packet: sizedPacket{sz: 8}}), ErrStopped)
}

func TestJoinBlocksUntilWorkerExits(t *testing.T) {
	s := New(1024, true)
	started := make(chan struct{})
	go func() {
		close(started)
		s.Run(func(Command) error { return nil })
	}()
	<-started
	s.Stop()
	s.Join() // must return once the worker has exited
}
