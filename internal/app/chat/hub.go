/*
Package chat contains the core relay logic: the hub dispatching every client
event, the per-connection client pumps, and the boards tracking pins, read
receipts, and reactions.

This file defines the Hub, the single owner of all mutable relay state. Every
inbound client event is handled to completion on one dispatch goroutine, so
the registry, profile store, and boards need no locks. Voice blob writes are
the only suspension point: they run in a spawned goroutine and re-enter the
loop as a voiceResult.
*/
package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"quickdrop/internal/app/session"
	"quickdrop/internal/app/storage"
	"quickdrop/internal/configs"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/logx"
	"quickdrop/internal/pkg/randx"
)

const (
	inboundQueueSize   = 1024
	lifecycleQueueSize = 64

	// prunePeriod is how often stale profiles and expired voice blobs are swept.
	prunePeriod = time.Minute

	// voiceWriteTimeout bounds a single blob store operation.
	voiceWriteTimeout = 30 * time.Second
)

// inboundEvent pairs a decoded frame with the client it arrived from.
type inboundEvent struct {
	client *Client
	frame  inboundFrame
}

// voiceResult carries the outcome of an asynchronous voice blob write back
// into the dispatch loop.
type voiceResult struct {
	client  *Client
	key     string
	payload ReceiveVoicePayload
	err     error
}

// voiceBlob remembers a stored recording so the prune cycle can expire it.
type voiceBlob struct {
	key      string
	storedAt time.Time
}

// Hub is the presence-and-broadcast session manager. All fields below the
// channels are owned by the Run goroutine exclusively.
type Hub struct {
	cfg   *configs.AppConfig
	store storage.BlobStore

	registry  *session.Registry
	profiles  *session.ProfileStore
	pins      *PinBoard
	receipts  *ReceiptBoard
	reactions *ReactionBoard

	// clients maps a session id to its live connection.
	clients map[string]*Client

	register     chan *Client
	unregister   chan *Client
	inbound      chan inboundEvent
	voiceResults chan voiceResult

	stopChan chan struct{}
	done     chan struct{}

	voiceBlobs []voiceBlob

	logger zerolog.Logger
}

// NewHub constructs a Hub. Call Run in its own goroutine before registering
// any client.
func NewHub(cfg *configs.AppConfig, store storage.BlobStore) *Hub {
	hubLogger := logx.Logger().With().Str("component", "hub").Logger()

	return &Hub{
		cfg:          cfg,
		store:        store,
		registry:     session.NewRegistry(),
		profiles:     session.NewProfileStore(),
		pins:         NewPinBoard(),
		receipts:     NewReceiptBoard(),
		reactions:    NewReactionBoard(),
		clients:      make(map[string]*Client),
		register:     make(chan *Client, lifecycleQueueSize),
		unregister:   make(chan *Client, lifecycleQueueSize),
		inbound:      make(chan inboundEvent, inboundQueueSize),
		voiceResults: make(chan voiceResult, lifecycleQueueSize),
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
		logger:       hubLogger,
	}
}

// readLimit is the WebSocket read limit for client connections. Base64
// encoding inflates audio by a third, plus envelope overhead.
func (h *Hub) readLimit() int64 {
	return int64(h.cfg.MaxVoiceBytes)*2 + 4096
}

// Register hands a new connection to the dispatch loop.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopChan:
		c.markClosed()
	}
}

// drop asks the dispatch loop to unregister a connection.
func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopChan:
		c.markClosed()
	}
}

// forward queues an inbound frame for dispatch. A full queue blocks the
// caller's read pump, applying backpressure per connection.
func (h *Hub) forward(c *Client, frame inboundFrame) {
	select {
	case h.inbound <- inboundEvent{client: c, frame: frame}:
	case <-h.stopChan:
	}
}

// Run is the dispatch loop. It owns all mutable relay state and processes
// each event to completion before the next.
func (h *Hub) Run() {
	defer close(h.done)

	h.logger.Info().Msg("Hub dispatch loop started.")

	pruneTicker := time.NewTicker(prunePeriod)
	defer pruneTicker.Stop()

	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)

		case c := <-h.unregister:
			h.handleUnregister(c)

		case ev := <-h.inbound:
			h.dispatch(ev.client, ev.frame)

		case res := <-h.voiceResults:
			h.deliverVoice(res)

		case <-pruneTicker.C:
			h.prune()

		case <-h.stopChan:
			h.closeAll()
			h.logger.Info().Msg("Hub dispatch loop stopped.")
			return
		}
	}
}

// Shutdown stops the dispatch loop and waits for it to finish.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down hub...")

	select {
	case <-h.stopChan:
	default:
		close(h.stopChan)
	}

	<-h.done

	h.logger.Info().Msg("Hub shutdown complete.")
}

// dispatch routes one inbound frame to its handler. A panic in any handler is
// contained here: it is logged and reported to the originating session, and
// the loop carries on.
func (h *Hub) dispatch(c *Client, frame inboundFrame) {
	// Events racing a disconnect reference a session that is already gone.
	if c.session.ID == "" || !h.registry.Contains(c.session.ID) {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error().
				Interface("panic", rec).
				Str("event_type", string(frame.Type)).
				Str("session_id", c.session.ID).
				Msg("Event handler panicked; dispatch loop continues.")
			c.SendError(errs.NewError(errs.ErrUnknown))
		}
	}()

	switch frame.Type {
	case TypeUpdateProfile:
		h.handleProfileUpdate(c, frame.Payload)

	case TypeTypingStart:
		h.handleTyping(c, true)

	case TypeTypingStop:
		h.handleTyping(c, false)

	case TypeSendMessage:
		h.handleMessage(c, frame.Payload)

	case TypeSendVoice:
		h.handleVoice(c, frame.Payload)

	case TypePinMessage:
		h.handlePin(c, frame.Payload)

	case TypeMessageRead:
		h.handleRead(c, frame.Payload)

	case TypeReaction:
		h.handleReaction(c, frame.Payload)

	default:
		h.logger.Warn().Str("event_type", string(frame.Type)).Msg("Client sent unsupported event type")
		c.SendError(errs.NewError(errs.ErrUnsupportedEventType))
	}
}

// handleRegister assigns a session to the connection and announces the new
// membership to everyone, the newcomer included.
func (h *Hub) handleRegister(c *Client) {
	s := h.registry.Register(c.remoteAddr)
	c.session = s
	h.clients[s.ID] = c

	welcome, err := NewEvent(TypeSessionWelcome, WelcomePayload{
		SessionID: s.ID,
		Pinned:    h.pins.Pinned(),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build welcome event.")
	} else if err := c.sendEvent(welcome); err != nil {
		// The connection died before it was fully admitted.
		h.handleUnregister(c)
		return
	}

	h.logger.Info().
		Str("session_id", s.ID).
		Int("total_sessions", h.registry.Len()).
		Msg("Session registered.")

	h.broadcastMembership()
}

// handleUnregister removes a connection, retains its profile with a lastSeen
// mark, and rebroadcasts membership to the remaining sessions.
func (h *Hub) handleUnregister(c *Client) {
	id := c.session.ID
	if id == "" {
		c.markClosed()
		return
	}

	current, ok := h.clients[id]
	if !ok || current != c {
		// A stale connection for a session that was already replaced or removed.
		c.markClosed()
		return
	}

	delete(h.clients, id)
	h.registry.Unregister(id)
	h.profiles.MarkLastSeen(id)
	c.markClosed()

	h.logger.Info().
		Str("session_id", id).
		Int("total_sessions", h.registry.Len()).
		Msg("Session ended.")

	h.broadcastEvent(TypeSessionEnded, SessionEndedPayload{SessionID: id}, "")
	h.broadcastMembership()
}

// computeMembership derives the authoritative membership list fresh from the
// registry joined with the profile store.
func (h *Hub) computeMembership() MembershipSnapshotPayload {
	members := lo.Map(h.registry.Active(), func(s session.Session, _ int) MemberEntry {
		return MemberEntry{
			SessionID:   s.ID,
			ConnectedAt: s.ConnectedAt.UnixMilli(),
			Profile:     h.profiles.Get(s.ID),
		}
	})

	return MembershipSnapshotPayload{
		Members: members,
		Count:   len(members),
	}
}

// broadcastMembership fans the current snapshot out to every session.
func (h *Hub) broadcastMembership() {
	h.broadcastEvent(TypeMembershipSnapshot, h.computeMembership(), "")
}

// broadcastEvent builds an event and fans it out to every connected session,
// skipping excludeID when non-empty.
func (h *Hub) broadcastEvent(eventType EventType, payload any, excludeID string) {
	ev, err := NewEvent(eventType, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to build broadcast event.")
		return
	}

	h.fanOut(ev, excludeID)
}

// fanOut marshals an event once and enqueues it for every recipient. Clients
// whose queue is full or closed are dropped after the loop to keep the map
// iteration reentrancy-free.
func (h *Hub) fanOut(ev Event, excludeID string) {
	messageBytes, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error().Err(err).Str("event_id", ev.ID).Msg("Error marshaling event for broadcast.")
		return
	}

	var stale []*Client
	for id, client := range h.clients {
		if id == excludeID {
			continue
		}

		if !client.enqueue(messageBytes) {
			stale = append(stale, client)
		}
	}

	for _, client := range stale {
		h.logger.Warn().
			Str("session_id", client.session.ID).
			Msg("Send queue full or closed, dropping session.")
		h.handleUnregister(client)
	}
}

// handleProfileUpdate stores the new profile and announces it. The
// profile_updated event always precedes the fresh snapshot, in the same
// relative order for every listener.
func (h *Hub) handleProfileUpdate(c *Client, raw json.RawMessage) {
	var p ProfilePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.SendError(errs.NewError(errs.ErrInvalidEventPayload))
		return
	}

	h.profiles.Set(c.session.ID, session.Profile{
		DisplayName: p.DisplayName,
		StatusText:  p.StatusText,
		AvatarRef:   p.AvatarRef,
	})

	h.broadcastEvent(TypeProfileUpdated, ProfileUpdatedPayload{
		SessionID: c.session.ID,
		Profile:   h.profiles.Get(c.session.ID),
	}, "")

	h.broadcastMembership()
}

// handleTyping relays a typing state change to everyone except the sender,
// who already knows its own typing state.
func (h *Hub) handleTyping(c *Client, isTyping bool) {
	h.broadcastEvent(TypeTyping, TypingPayload{
		SessionID:   c.session.ID,
		DisplayName: h.profiles.DisplayName(c.session.ID),
		IsTyping:    isTyping,
	}, c.session.ID)
}

// handleMessage relays a text or file message to every session, the sender
// included; the client is responsible for not double-rendering its own echo.
func (h *Hub) handleMessage(c *Client, raw json.RawMessage) {
	var p SendMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.SendError(errs.NewError(errs.ErrInvalidEventPayload))
		return
	}

	if p.Kind == "" {
		p.Kind = KindText
	}

	switch p.Kind {
	case KindText:
	case KindFile:
		if err := ValidateFileMeta(p.File); err != nil {
			c.SendError(err)
			return
		}
	default:
		c.SendError(errs.NewError(errs.ErrInvalidEventPayload))
		return
	}

	if len(p.Content) > h.cfg.MaxContentBytes {
		c.SendError(errs.NewError(errs.ErrMessageContentTooLong))
		return
	}

	h.broadcastEvent(TypeReceiveMessage, ReceiveMessagePayload{
		SenderID:        c.session.ID,
		DisplayName:     h.profiles.DisplayName(c.session.ID),
		Kind:            p.Kind,
		Content:         p.Content,
		Encrypted:       p.Encrypted,
		File:            p.File,
		ServerTimestamp: time.Now().UnixMilli(),
	}, "")
}

// handleVoice validates a voice recording and starts the blob write off the
// dispatch loop. Sender identity and timestamp are resolved now, against the
// pre-write state; the broadcast lands when the write completes and is
// eventually consistent with events interleaved during the write.
func (h *Hub) handleVoice(c *Client, raw json.RawMessage) {
	var p SendVoicePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.SendError(errs.NewError(errs.ErrInvalidEventPayload))
		return
	}

	if len(p.Audio) == 0 {
		c.SendError(errs.NewError(errs.ErrVoicePayloadEmpty))
		return
	}

	if len(p.Audio) > h.cfg.MaxVoiceBytes {
		c.SendError(errs.NewError(errs.ErrVoicePayloadTooLarge))
		return
	}

	mt := mimetype.Detect(p.Audio)
	ext := mt.Extension()
	if ext == "" {
		ext = ".bin"
	}

	key, err := randx.BlobName(ext)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to generate voice blob name.")
		c.SendError(errs.NewError(errs.ErrVoiceStorageFailed))
		return
	}

	result := voiceResult{
		client: c,
		key:    key,
		payload: ReceiveVoicePayload{
			Reference:       storage.VoicePathPrefix + key,
			Duration:        p.Duration,
			SenderID:        c.session.ID,
			DisplayName:     h.profiles.DisplayName(c.session.ID),
			ServerTimestamp: time.Now().UnixMilli(),
		},
	}

	audio := p.Audio
	contentType := mt.String()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), voiceWriteTimeout)
		defer cancel()

		result.err = h.store.Put(ctx, key, contentType, audio)

		select {
		case h.voiceResults <- result:
		case <-h.stopChan:
		}
	}()
}

// deliverVoice finishes a voice relay. Write failures go back to the sender
// only; success broadcasts the stored reference to everyone.
func (h *Hub) deliverVoice(res voiceResult) {
	if res.err != nil {
		h.logger.Error().Err(res.err).Str("blob_key", res.key).Msg("Voice blob write failed.")
		res.client.SendError(errs.NewError(errs.ErrVoiceStorageFailed))
		return
	}

	h.voiceBlobs = append(h.voiceBlobs, voiceBlob{key: res.key, storedAt: time.Now()})

	h.broadcastEvent(TypeReceiveVoice, res.payload, "")
}

// handlePin records a pin. An already-pinned message id adds no record and
// triggers no broadcast.
func (h *Hub) handlePin(c *Client, raw json.RawMessage) {
	var p PinPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.SendError(errs.NewError(errs.ErrInvalidEventPayload))
		return
	}

	if p.MessageID == "" {
		c.SendError(errs.NewError(errs.ErrUnknownPinTarget))
		return
	}

	if _, added := h.pins.Pin(p.MessageID, c.session.ID); !added {
		return
	}

	h.broadcastEvent(TypeMessagePinned, MessagePinnedPayload{
		MessageID:   p.MessageID,
		SessionID:   c.session.ID,
		DisplayName: h.profiles.DisplayName(c.session.ID),
	}, "")
}

// handleRead adds the reader to a message's receipt set. Repeat
// acknowledgements from the same reader change nothing and stay silent.
func (h *Hub) handleRead(c *Client, raw json.RawMessage) {
	var p ReadPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.SendError(errs.NewError(errs.ErrInvalidEventPayload))
		return
	}

	if p.MessageID == "" {
		c.SendError(errs.NewError(errs.ErrUnknownPinTarget))
		return
	}

	if !h.receipts.MarkRead(p.MessageID, c.session.ID) {
		return
	}

	h.broadcastEvent(TypeMessageReadStatus, ReadStatusPayload{
		MessageID:  p.MessageID,
		ReaderID:   c.session.ID,
		ReaderName: h.profiles.DisplayName(c.session.ID),
	}, "")
}

// handleReaction toggles a reaction and relays the change to everyone except
// its origin, which already applied it locally.
func (h *Hub) handleReaction(c *Client, raw json.RawMessage) {
	var p ReactionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.SendError(errs.NewError(errs.ErrInvalidEventPayload))
		return
	}

	if p.MessageID == "" || p.Reaction == "" ||
		(p.Action != ReactionActionAdd && p.Action != ReactionActionRemove) {
		c.SendError(errs.NewError(errs.ErrReactionInvalid))
		return
	}

	if !h.reactions.Apply(p.MessageID, p.Reaction, c.session.ID, p.Action == ReactionActionAdd) {
		return
	}

	h.broadcastEvent(TypeReactionUpdate, ReactionUpdatePayload{
		MessageID: p.MessageID,
		Reaction:  p.Reaction,
		Action:    p.Action,
		SessionID: c.session.ID,
		Count:     h.reactions.Count(p.MessageID, p.Reaction),
	}, c.session.ID)
}

// prune evicts profiles of sessions disconnected past the retention window
// and schedules deletion of expired voice blobs.
func (h *Hub) prune() {
	if removed := h.profiles.Prune(h.cfg.ProfileRetention); removed > 0 {
		h.logger.Info().Int("removed", removed).Msg("Pruned disconnected profiles.")
	}

	cutoff := time.Now().Add(-h.cfg.VoiceRetention)

	kept := h.voiceBlobs[:0]
	var expired []string
	for _, b := range h.voiceBlobs {
		if b.storedAt.Before(cutoff) {
			expired = append(expired, b.key)
		} else {
			kept = append(kept, b)
		}
	}
	h.voiceBlobs = kept

	if len(expired) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), voiceWriteTimeout)
		defer cancel()

		for _, key := range expired {
			if err := h.store.Delete(ctx, key); err != nil {
				logx.Error(err, "Failed to delete expired voice blob", "blob_key", key)
			}
		}
	}()

	h.logger.Info().Int("expired", len(expired)).Msg("Expired voice blobs scheduled for deletion.")
}

// closeAll drops every connection during shutdown.
func (h *Hub) closeAll() {
	for id, client := range h.clients {
		client.markClosed()
		h.registry.Unregister(id)
		delete(h.clients, id)
	}
}
