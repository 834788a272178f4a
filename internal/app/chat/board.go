package chat

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// PinRecord marks one message as pinned.
type PinRecord struct {
	MessageID string `json:"messageId"`
	PinnedBy  string `json:"pinnedBy"`
	PinnedAt  int64  `json:"pinnedAt"`
}

// PinBoard maintains the set of pinned message ids. A message id appears at
// most once; repeated pin requests are no-ops.
type PinBoard struct {
	records map[string]PinRecord
	order   []string
}

// NewPinBoard constructs an empty PinBoard.
func NewPinBoard() *PinBoard {
	return &PinBoard{
		records: make(map[string]PinRecord),
	}
}

// Pin records a pin for messageID. The second return value is false when the
// message was already pinned, in which case nothing changes.
func (b *PinBoard) Pin(messageID, by string) (PinRecord, bool) {
	if existing, ok := b.records[messageID]; ok {
		return existing, false
	}

	rec := PinRecord{
		MessageID: messageID,
		PinnedBy:  by,
		PinnedAt:  time.Now().UnixMilli(),
	}

	b.records[messageID] = rec
	b.order = append(b.order, messageID)

	return rec, true
}

// Pinned returns all pin records in the order they were pinned.
func (b *PinBoard) Pinned() []PinRecord {
	return lo.Map(b.order, func(id string, _ int) PinRecord {
		return b.records[id]
	})
}

// Len returns the number of pinned messages.
func (b *PinBoard) Len() int {
	return len(b.records)
}

// ReceiptBoard tracks which sessions have read which messages. Receipt sets
// only grow for the lifetime of the process; there is no removal operation.
type ReceiptBoard struct {
	readers map[string]map[string]struct{}
}

// NewReceiptBoard constructs an empty ReceiptBoard.
func NewReceiptBoard() *ReceiptBoard {
	return &ReceiptBoard{
		readers: make(map[string]map[string]struct{}),
	}
}

// MarkRead adds reader to the receipt set for messageID. It returns false when
// the reader had already acknowledged the message.
func (b *ReceiptBoard) MarkRead(messageID, reader string) bool {
	set, ok := b.readers[messageID]
	if !ok {
		set = make(map[string]struct{})
		b.readers[messageID] = set
	}

	if _, seen := set[reader]; seen {
		return false
	}

	set[reader] = struct{}{}
	return true
}

// Readers returns the sorted session ids that acknowledged messageID.
func (b *ReceiptBoard) Readers(messageID string) []string {
	ids := lo.Keys(b.readers[messageID])
	sort.Strings(ids)
	return ids
}

// ReactionBoard tracks per-message emoji reactions as reaction -> set of
// session ids, supporting add and remove toggles.
type ReactionBoard struct {
	reactions map[string]map[string]map[string]struct{}
}

// NewReactionBoard constructs an empty ReactionBoard.
func NewReactionBoard() *ReactionBoard {
	return &ReactionBoard{
		reactions: make(map[string]map[string]map[string]struct{}),
	}
}

// Apply toggles a reaction on messageID for the given session. It returns
// false when the operation changed nothing (adding an existing reaction or
// removing an absent one).
func (b *ReactionBoard) Apply(messageID, reaction, sessionID string, add bool) bool {
	byReaction, ok := b.reactions[messageID]
	if !ok {
		if !add {
			return false
		}
		byReaction = make(map[string]map[string]struct{})
		b.reactions[messageID] = byReaction
	}

	set, ok := byReaction[reaction]
	if !ok {
		if !add {
			return false
		}
		set = make(map[string]struct{})
		byReaction[reaction] = set
	}

	if add {
		if _, exists := set[sessionID]; exists {
			return false
		}
		set[sessionID] = struct{}{}
		return true
	}

	if _, exists := set[sessionID]; !exists {
		return false
	}

	delete(set, sessionID)
	if len(set) == 0 {
		delete(byReaction, reaction)
	}
	if len(byReaction) == 0 {
		delete(b.reactions, messageID)
	}

	return true
}

// Count returns how many sessions currently hold the given reaction on messageID.
func (b *ReactionBoard) Count(messageID, reaction string) int {
	return len(b.reactions[messageID][reaction])
}
