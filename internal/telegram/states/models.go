package states

type State string

const (
	StateNone State = "none"
	StateDone State = "done"
)

// adc -> admin decline item
// ais -> admin inbox search

// admin decline item states
const (
	AdminDeclineWaitReason State = "adc_wt_reason"
)

// admin inbox search states
const (
	AdminInboxWaitQuery State = "ais_wt_query"
)
