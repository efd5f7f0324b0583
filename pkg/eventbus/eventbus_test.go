// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscriberOnlySeesEventsAfterAttaching(t *testing.T) {
	b := New()
	b.Publish(Event{Channel: WorkspaceIndexing, Kind: StateStarted})

	sub := b.Subscribe(4)
	b.Publish(Event{Channel: WorkspaceIndexing, Kind: StateProgress, Completed: 1, Total: 2})

	ev := <-sub.C
	assert.Equal(t, StateProgress, ev.Kind)
	assert.Equal(t, 1, ev.Completed)

	select {
	case extra := <-sub.C:
		t.Fatalf("unexpected extra event: %+v", extra)
	default:
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	b := New()
	sub := b.Subscribe(1)
	sub.Unsubscribe()

	_, ok := <-sub.C
	assert.False(t, ok, "channel should be closed after Unsubscribe")
}

func TestBus_MultipleSubscribersEachGetTheEvent(t *testing.T) {
	b := New()
	sub1 := b.Subscribe(1)
	sub2 := b.Subscribe(1)

	b.Publish(Event{Channel: ProjectIndexing, Kind: StateCompleted, SubjectID: "proj-1"})

	ev1 := <-sub1.C
	ev2 := <-sub2.C
	require.Equal(t, "proj-1", ev1.SubjectID)
	require.Equal(t, "proj-1", ev2.SubjectID)
}
