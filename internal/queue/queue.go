// Package queue decodes perp event-queue accounts and tracks which of their
// events a consumer has already seen across successive snapshots.
package queue

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"perpcrank/internal/event"
	"perpcrank/internal/layout"
	"perpcrank/internal/lot"
)

// PerpEventQueue is a decoded snapshot of a market's event-queue account.
// The on-chain ring buffer is unrolled here: events run oldest to newest,
// with the first Count of them not yet consumed by the program.
type PerpEventQueue struct {
	Metadata layout.Metadata
	Head     uint64
	Count    uint64

	// SequenceNumber counts every event ever pushed to this queue, so
	// consecutive snapshots can be diffed without comparing contents.
	SequenceNumber uint64

	UnprocessedEvents []event.PerpEvent
	ProcessedEvents   []event.PerpEvent
}

// Decode parses a raw event-queue account. Slots decode in ring order; the
// result is rotated so callers never do modulo arithmetic on the capacity.
// Empty fill slots are dropped, which is why the ring is rotated before the
// count split rather than after.
func Decode(converter lot.Converter, data []byte) (*PerpEventQueue, error) {
	header, err := layout.DecodeEventQueueHeader(data)
	if err != nil {
		return nil, fmt.Errorf("queue: decoding header: %w", err)
	}

	body := data[layout.EventQueueHeaderSize:]
	capacity := len(body) / layout.EventSize

	slots := make([]event.PerpEvent, capacity)
	for i := 0; i < capacity; i++ {
		decoded, err := event.FromBytes(converter, body[i*layout.EventSize:(i+1)*layout.EventSize])
		if err != nil {
			return nil, fmt.Errorf("queue: decoding event slot %d: %w", i, err)
		}
		slots[i] = decoded
	}

	head := int(header.Head)
	if head > capacity {
		return nil, fmt.Errorf("queue: head %d beyond capacity %d", head, capacity)
	}

	// Oldest-to-newest, dropping never-written slots.
	ordered := make([]event.PerpEvent, 0, capacity)
	for _, e := range append(slots[head:], slots[:head]...) {
		if e != nil {
			ordered = append(ordered, e)
		}
	}

	unprocessed := int(header.Count)
	if unprocessed > len(ordered) {
		unprocessed = len(ordered)
	}

	return &PerpEventQueue{
		Metadata:          header.Metadata,
		Head:              header.Head,
		Count:             header.Count,
		SequenceNumber:    header.SeqNum,
		UnprocessedEvents: ordered[:unprocessed],
		ProcessedEvents:   ordered[unprocessed:],
	}, nil
}

// Capacity is the number of populated slots in this snapshot.
func (q *PerpEventQueue) Capacity() int {
	return len(q.UnprocessedEvents) + len(q.ProcessedEvents)
}

// AccountsToCrank lists the distinct accounts the unprocessed events need
// cranked, in first-seen order.
func (q *PerpEventQueue) AccountsToCrank() []solana.PublicKey {
	seen := make(map[solana.PublicKey]bool)
	var distinct []solana.PublicKey
	for _, e := range q.UnprocessedEvents {
		for _, account := range e.AccountsToCrank() {
			if !seen[account] {
				seen[account] = true
				distinct = append(distinct, account)
			}
		}
	}
	return distinct
}

// EventsForAccount returns every event, processed first, that involves the
// given account.
func (q *PerpEventQueue) EventsForAccount(address solana.PublicKey) []event.PerpEvent {
	var events []event.PerpEvent
	for _, e := range append(append([]event.PerpEvent{}, q.ProcessedEvents...), q.UnprocessedEvents...) {
		for _, account := range e.AccountsToCrank() {
			if account.Equals(address) {
				events = append(events, e)
				break
			}
		}
	}
	return events
}

// FillsForAccount returns the fills where the given account is maker or
// taker, processed first.
func (q *PerpEventQueue) FillsForAccount(address solana.PublicKey) []event.FillEvent {
	var fills []event.FillEvent
	for _, e := range q.EventsForAccount(address) {
		if fill, ok := e.(event.FillEvent); ok {
			fills = append(fills, fill)
		}
	}
	return fills
}

func (q *PerpEventQueue) String() string {
	return fmt.Sprintf("PerpEventQueue [head: %d, count: %d, seq: %d, capacity: %d]",
		q.Head, q.Count, q.SequenceNumber, q.Capacity())
}
