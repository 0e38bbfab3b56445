package states

type StateManager interface {
	GetState(chatID int64) State
	SetState(chatID int64, state State, data any)
	GetData(chatID int64) any
	Clear(chatID int64)
}
