package session

import (
	"encoding/json"

	"github.com/go-rider-session/internal/domain"
)

// StorageKey is the durable-store key holding the session projection.
const StorageKey = "rider.session"

type kvStore interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// persisted is the whitelisted part of State. Loading and online flags are
// never stored.
type persisted struct {
	Identity        *domain.Identity `json:"identity"`
	Profile         *domain.Profile  `json:"profile"`
	IsAuthenticated bool             `json:"isAuthenticated"`
}

func (c *Container) rehydrate() {
	raw, ok, err := c.store.GetItem(StorageKey)
	if err != nil {
		c.log.Warn("could not read session state", "err", err)
		return
	}
	if !ok {
		return
	}
	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		c.log.Warn("discarding unreadable session state", "err", err)
		return
	}
	c.state.Identity = p.Identity
	c.state.Profile = p.Profile
	c.state.IsAuthenticated = p.Identity != nil
	if p.IsAuthenticated != c.state.IsAuthenticated {
		c.log.Warn("persisted session flag disagreed with identity", "stored", p.IsAuthenticated)
	}
}

// persistLocked writes the whitelisted projection. Caller holds mu. A write
// failure is logged and the in-memory state is kept.
func (c *Container) persistLocked() {
	raw, err := json.Marshal(persisted{
		Identity:        c.state.Identity,
		Profile:         c.state.Profile,
		IsAuthenticated: c.state.IsAuthenticated,
	})
	if err != nil {
		c.log.Error("encode session state", "err", err)
		return
	}
	if err := c.store.SetItem(StorageKey, string(raw)); err != nil {
		c.log.Warn("could not persist session state", "err", err)
	}
}

// Forget removes the persisted session. The in-memory state is unchanged.
func (c *Container) Forget() error {
	return c.store.RemoveItem(StorageKey)
}
