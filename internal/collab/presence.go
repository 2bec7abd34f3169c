package collab

import (
	"maps"
)

// PresenceManager tracks cursors and selections per client. It is owned by
// the hub goroutine.
type PresenceManager struct {
	presences map[string]*PresencePayload // clientID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

func (pm *PresenceManager) Update(clientID string, p *PresencePayload) {
	pm.presences[clientID] = p
}

// Merge updates only the fields p sets and returns the merged presence.
func (pm *PresenceManager) Merge(clientID string, p *PresencePayload) *PresencePayload {
	cur, ok := pm.presences[clientID]
	if !ok {
		cur = &PresencePayload{}
		pm.presences[clientID] = cur
	}
	if p.Cursor != nil {
		cur.Cursor = p.Cursor
	}
	if p.Selection != nil {
		cur.Selection = p.Selection
	}
	if p.DisplayName != "" {
		cur.DisplayName = p.DisplayName
	}
	if p.Role != "" {
		cur.Role = p.Role
	}
	return cur
}

func (pm *PresenceManager) Remove(clientID string) {
	delete(pm.presences, clientID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	return maps.Clone(pm.presences)
}

func (pm *PresenceManager) StateMessage() *Message {
	return newMessage(TypePresenceState, PresenceStatePayload{Presences: pm.GetAll()})
}
