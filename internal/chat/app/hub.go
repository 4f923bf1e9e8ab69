package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"book_story_service/internal/chat/domain"
	"book_story_service/internal/chat/repository"
	"book_story_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrUnknownRoom join asked for a room this hub does not serve
	ErrUnknownRoom = errors.New("unknown room")
	// ErrNotJoined track before join
	ErrNotJoined = errors.New("peer has not joined the room")
)

// DefaultPeerBuffer outbound queue size when none is configured
const DefaultPeerBuffer = 64

// Peer one websocket connection attached to the hub
type Peer struct {
	Ref      string
	Identity string

	out       chan domain.Envelope
	done      chan struct{}
	closeOnce sync.Once
	joined    bool
}

// Outbound events to write to the socket, in order
func (p *Peer) Outbound() <-chan domain.Envelope {
	return p.out
}

// Done is closed once the hub has dropped the peer
func (p *Peer) Done() <-chan struct{} {
	return p.done
}

func (p *Peer) close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// Hub owns the room: joined peers, the presence registry and message fan-out.
// One hub serves one room per node; nodes share messages through the change feed
// while presence is node local.
type Hub struct {
	room   string
	buffer int

	mu       sync.Mutex
	peers    map[string]*Peer
	presence map[string]map[string]domain.PresenceMeta // identity -> ref -> meta
}

// NewHub create Hub for room
func NewHub(room string, buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultPeerBuffer
	}
	return &Hub{
		room:     room,
		buffer:   buffer,
		peers:    make(map[string]*Peer),
		presence: make(map[string]map[string]domain.PresenceMeta),
	}
}

// Room name served by the hub
func (h *Hub) Room() string {
	return h.room
}

// Run forwards the change feed of the room to joined peers until ctx is done
func (h *Hub) Run(ctx context.Context, feed repository.ChangeFeed) error {
	if err := feed.Subscribe(ctx, h.room, h.Broadcast); err != nil {
		return err
	}
	logger.Log.Info("hub running", zap.String("room", h.room))
	<-ctx.Done()
	return nil
}

// Connect registers a new connection for identity. The peer receives nothing until it joins.
func (h *Hub) Connect(identity string) *Peer {
	return &Peer{
		Ref:      uuid.NewString(),
		Identity: identity,
		out:      make(chan domain.Envelope, h.buffer),
		done:     make(chan struct{}),
	}
}

// Join subscribes the peer, confirms it and sends the current presence snapshot
func (h *Hub) Join(p *Peer, room string) error {
	if room != h.room {
		return ErrUnknownRoom
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-p.done:
		return nil
	default:
	}

	if !p.joined {
		p.joined = true
		h.peers[p.Ref] = p
	}
	h.deliverLocked([]*Peer{p}, domain.Envelope{Event: domain.EventSubscribed, Room: h.room})
	h.deliverLocked([]*Peer{p}, h.syncEnvelopeLocked())
	h.settleLocked()
	return nil
}

// Track stores the peer presence entry and broadcasts the new snapshot
func (h *Hub) Track(p *Peer, meta domain.PresenceMeta) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !p.joined {
		return ErrNotJoined
	}

	meta.Ref = p.Ref
	metas, ok := h.presence[p.Identity]
	if !ok {
		metas = make(map[string]domain.PresenceMeta)
		h.presence[p.Identity] = metas
	}
	metas[p.Ref] = meta

	h.deliverLocked(h.joinedLocked(), h.syncEnvelopeLocked())
	h.settleLocked()
	return nil
}

// Leave unsubscribes the peer and withdraws its presence entry
func (h *Hub) Leave(p *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.removeLocked(p) {
		h.deliverLocked(h.joinedLocked(), h.syncEnvelopeLocked())
	}
	h.settleLocked()
}

// Disconnect leaves and releases the peer; safe to call more than once
func (h *Hub) Disconnect(p *Peer) {
	h.Leave(p)
	p.close()
}

// Reply queues env to a single peer, joined or not
func (h *Hub) Reply(p *Peer, env domain.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked([]*Peer{p}, env)
	h.settleLocked()
}

// Broadcast forwards a committed message to every joined peer
func (h *Hub) Broadcast(msg domain.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked(h.joinedLocked(), domain.Envelope{
		Event:   domain.EventMessageInserted,
		Room:    h.room,
		Message: &msg,
	})
	h.settleLocked()
}

// Snapshot current presence state
func (h *Hub) Snapshot() domain.PresenceState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// Online number of distinct identities tracked
func (h *Hub) Online() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.presence)
}

func (h *Hub) snapshotLocked() domain.PresenceState {
	state := make(domain.PresenceState, len(h.presence))
	for identity, metas := range h.presence {
		list := make([]domain.PresenceMeta, 0, len(metas))
		for _, m := range metas {
			list = append(list, m)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Ref < list[j].Ref })
		state[identity] = list
	}
	return state
}

func (h *Hub) syncEnvelopeLocked() domain.Envelope {
	return domain.Envelope{Event: domain.EventPresenceSync, Room: h.room, Presence: h.snapshotLocked()}
}

func (h *Hub) joinedLocked() []*Peer {
	peers := make([]*Peer, 0, len(h.peers))
	for _, p := range h.peers {
		peers = append(peers, p)
	}
	return peers
}

// removeLocked reports whether the presence state changed
func (h *Hub) removeLocked(p *Peer) bool {
	p.joined = false
	delete(h.peers, p.Ref)

	metas, ok := h.presence[p.Identity]
	if !ok {
		return false
	}
	if _, ok := metas[p.Ref]; !ok {
		return false
	}
	delete(metas, p.Ref)
	if len(metas) == 0 {
		delete(h.presence, p.Identity)
	}
	return true
}

// deliverLocked never blocks; a peer whose queue is full is marked dropped
func (h *Hub) deliverLocked(peers []*Peer, env domain.Envelope) {
	for _, p := range peers {
		select {
		case <-p.done:
			continue
		default:
		}
		select {
		case p.out <- env:
		default:
			logger.Log.Warn("peer too slow, dropping", zap.String("ref", p.Ref), zap.String("identity", p.Identity))
			p.close()
		}
	}
}

// settleLocked removes dropped peers, broadcasting presence until nothing else drops
func (h *Hub) settleLocked() {
	for {
		changed := false
		dropped := false
		for _, p := range h.peers {
			select {
			case <-p.done:
				dropped = true
				if h.removeLocked(p) {
					changed = true
				}
			default:
			}
		}
		if !dropped || !changed {
			return
		}
		h.deliverLocked(h.joinedLocked(), h.syncEnvelopeLocked())
	}
}

// Dispatch applies a client envelope for peer; failures are answered with an error event
func (h *Hub) Dispatch(p *Peer, req domain.Envelope) {
	var err error
	switch req.Event {
	case domain.EventJoin:
		err = h.Join(p, req.Room)
	case domain.EventTrack:
		meta := domain.PresenceMeta{OnlineAt: time.Now().UTC()}
		if req.Meta != nil && !req.Meta.OnlineAt.IsZero() {
			meta.OnlineAt = req.Meta.OnlineAt
		}
		err = h.Track(p, meta)
	case domain.EventLeave:
		h.Leave(p)
	default:
		err = errors.New("unknown event")
	}
	if err != nil {
		h.Reply(p, domain.Envelope{Event: domain.EventError, Room: h.room, Ref: string(req.Event), Error: err.Error()})
	}
}
