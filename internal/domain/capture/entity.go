package capture

import "fmt"

// State of the capture flow
type State int

const (
	StateIdle State = iota
	StateCountdown
	StateCaptured
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCountdown:
		return "countdown"
	case StateCaptured:
		return "captured"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Mode selects single shot or photo strip
type Mode string

const (
	ModeSingle Mode = "single"
	ModeStrip  Mode = "strip"
)

// ParseMode converts a mode name into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSingle, ModeStrip:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// Record is the persisted photo handed back by the Persister
type Record struct {
	ID        int64
	FilePath  string
	PhotoURLs []string
	QRCode    string
}

// Upload is what the machine hands to the Persister
type Upload struct {
	Mode       Mode
	Filter     string
	Background string
	Frames     [][]byte // capture order
}

// Session is the transient state of one guest's flow
type Session struct {
	Mode       Mode
	Frames     [][]byte
	StripIndex int
	Captured   *Record
}

// NotificationKind classifies what the machine reports to observers
type NotificationKind string

const (
	NotifyCountdown NotificationKind = "countdown"
	NotifyProgress  NotificationKind = "progress"
	NotifyComplete  NotificationKind = "complete"
	NotifyError     NotificationKind = "error"
)

// Notification is delivered to every subscriber
type Notification struct {
	Kind      NotificationKind
	State     State
	Remaining int // countdown seconds left
	Shot      int // frames captured so far
	Total     int // frames needed
	Message   string
	Record    *Record // set on NotifyComplete
	Err       error   // set on NotifyError
}
