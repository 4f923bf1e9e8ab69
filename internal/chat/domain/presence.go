package domain

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// PresenceMeta is what one connection publishes when it tracks itself
type PresenceMeta struct {
	Ref      string    `json:"ref"`
	OnlineAt time.Time `json:"online_at"`
}

// PresenceState identity -> metas of every connection tracked under that identity
type PresenceState map[string][]PresenceMeta

// Keys returns the tracked identities, sorted
func (s PresenceState) Keys() []string {
	keys := lo.Keys(s)
	sort.Strings(keys)
	return keys
}

// Count number of distinct identities online
func (s PresenceState) Count() int {
	return len(s)
}

// Clone deep copies the state so it can leave the hub lock
func (s PresenceState) Clone() PresenceState {
	out := make(PresenceState, len(s))
	for k, metas := range s {
		out[k] = append([]PresenceMeta(nil), metas...)
	}
	return out
}
