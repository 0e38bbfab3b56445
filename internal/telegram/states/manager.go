package states

import (
	"fmt"
	"sync"

	"plandesk-bot/internal/telegram/flows"
)

// Manager keeps per-chat flow state in memory.
type Manager struct {
	mu         sync.RWMutex
	userStates map[int64]State
	userData   map[int64]any
}

func NewManager() *Manager {
	return &Manager{
		userStates: make(map[int64]State),
		userData:   make(map[int64]any),
	}
}

func (m *Manager) GetState(chatID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.userStates[chatID]
	if !exists {
		return StateNone
	}
	return state
}

func (m *Manager) GetData(chatID int64) any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.userData[chatID]
}

func (m *Manager) SetState(chatID int64, state State, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.userStates[chatID] = state
	if data != nil {
		m.userData[chatID] = data
	}
}

func (m *Manager) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.userStates, chatID)
	delete(m.userData, chatID)
}

// GetDeclineData returns the decline flow data for the chat.
func (m *Manager) GetDeclineData(chatID int64) (*flows.DeclineFlowData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.userData[chatID]
	if !exists {
		return nil, fmt.Errorf("no data for chat %d", chatID)
	}

	flowData, ok := data.(*flows.DeclineFlowData)
	if !ok {
		return nil, fmt.Errorf("invalid data type for chat %d", chatID)
	}

	return flowData, nil
}
