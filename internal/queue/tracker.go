package queue

import (
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"perpcrank/internal/event"
)

// UnseenPerpEventChangesTracker diffs successive snapshots of one event
// queue and yields each event exactly once, oldest first. It compares only
// sequence numbers, never event contents, so the cost per snapshot is flat.
//
// Not safe for concurrent use; feed it from a single snapshot stream.
type UnseenPerpEventChangesTracker struct {
	logger          zerolog.Logger
	lastSequenceNum uint64
	lost            uint64
}

func NewUnseenPerpEventChangesTracker(logger zerolog.Logger, initial *PerpEventQueue) *UnseenPerpEventChangesTracker {
	return &UnseenPerpEventChangesTracker{
		logger:          logger,
		lastSequenceNum: initial.SequenceNumber,
	}
}

// Unseen returns the events pushed since the previous snapshot. If more
// events arrived than the ring holds, the overwritten ones are gone; the
// loss is logged and counted and the survivors are returned. Unsigned
// subtraction keeps the delta correct across sequence-number wraparound.
func (t *UnseenPerpEventChangesTracker) Unseen(q *PerpEventQueue) []event.PerpEvent {
	newSequenceNum := q.SequenceNumber
	if newSequenceNum == t.lastSequenceNum {
		return nil
	}

	changes := newSequenceNum - t.lastSequenceNum
	t.lastSequenceNum = newSequenceNum

	all := append(append([]event.PerpEvent{}, q.ProcessedEvents...), q.UnprocessedEvents...)
	if changes > uint64(len(all)) {
		overrun := changes - uint64(len(all))
		t.lost += overrun
		t.logger.Warn().
			Uint64("lost_events", overrun).
			Uint64("sequence_number", newSequenceNum).
			Int("capacity", len(all)).
			Msg("event queue advanced past ring capacity, events lost")
		changes = uint64(len(all))
	}

	return all[uint64(len(all))-changes:]
}

// LostEvents is the cumulative count of events that wrapped out of the ring
// before being seen.
func (t *UnseenPerpEventChangesTracker) LostEvents() uint64 {
	return t.lost
}

// UnseenAccountFillEventTracker yields each fill involving one account
// exactly once across snapshots. Fills are identified by their maker/taker
// order-id pair rather than sequence number, so the tracker stays correct
// even when unrelated events push the queue forward.
//
// Not safe for concurrent use.
type UnseenAccountFillEventTracker struct {
	account solana.PublicKey
	lastKey string
}

func NewUnseenAccountFillEventTracker(initial *PerpEventQueue, account solana.PublicKey) *UnseenAccountFillEventTracker {
	tracker := &UnseenAccountFillEventTracker{account: account}
	if fills := initial.FillsForAccount(account); len(fills) > 0 {
		tracker.lastKey = fills[len(fills)-1].Key()
	}
	return tracker
}

// Unseen returns the account's fills that arrived since the last call.
func (t *UnseenAccountFillEventTracker) Unseen(q *PerpEventQueue) []event.FillEvent {
	fills := q.FillsForAccount(t.account)
	if len(fills) == 0 {
		return nil
	}

	lastSeen := -1
	for i, fill := range fills {
		if fill.Key() == t.lastKey {
			lastSeen = i
			break
		}
	}
	if lastSeen == len(fills)-1 {
		return nil
	}

	unseen := fills[lastSeen+1:]
	t.lastKey = unseen[len(unseen)-1].Key()
	return unseen
}
