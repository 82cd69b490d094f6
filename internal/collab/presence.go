package collab

import (
	"hash/fnv"
	"sync"
)

// peerColors are assigned to peers by hashing their user id, so a user
// keeps the same colour across reconnects.
var peerColors = []string{
	"#ef4444", "#f97316", "#eab308", "#22c55e",
	"#14b8a6", "#3b82f6", "#8b5cf6", "#ec4899",
}

func PeerColor(userID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return peerColors[h.Sum32()%uint32(len(peerColors))]
}

type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // userID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

func (pm *PresenceManager) Update(userID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[userID] = p
}

func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, userID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(pm.presences))
	for k, v := range pm.presences {
		result[k] = v
	}
	return result
}

// Prune drops selections of nodes that no longer exist, after a document
// replacement. Entries are replaced, not edited, since GetAll hands them out.
func (pm *PresenceManager) Prune(exists func(id string) bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for user, p := range pm.presences {
		next := *p
		next.Selection = nil
		for _, id := range p.Selection {
			if exists(id) {
				next.Selection = append(next.Selection, id)
			}
		}
		pm.presences[user] = &next
	}
}

func (pm *PresenceManager) StateMessage() *Message {
	return newMessage(TypePresenceState, PresenceStatePayload{Presences: pm.GetAll()})
}
