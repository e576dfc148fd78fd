package ivr

import "time"

// Selection is a caller's menu choice, decoupled from the DTMF digits that
// triggered it so the phone-provider layer can re-map keys without touching
// call flow logic.
type Selection string

const (
	SelectionHours     Selection = "hours"     // hear business hours
	SelectionForward   Selection = "forward"   // connect to a person
	SelectionVoicemail Selection = "voicemail" // leave a message
)

// Resolve maps gathered digits to a menu selection.
func Resolve(digits string) (Selection, bool) {
	switch digits {
	case "1":
		return SelectionHours, true
	case "2":
		return SelectionForward, true
	case "3":
		return SelectionVoicemail, true
	default:
		return "", false
	}
}

// Hours is a business's daily open window in its local timezone.
// Open == Close means hours were never configured and the line answers 24/7.
type Hours struct {
	Timezone  string
	OpenHour  int
	CloseHour int
}

// OpenAt reports whether the business is open at t. An unknown timezone
// falls back to UTC rather than failing the call.
func (h Hours) OpenAt(t time.Time) bool {
	if h.OpenHour == h.CloseHour {
		return true
	}

	loc, err := time.LoadLocation(h.Timezone)
	if err != nil || h.Timezone == "" {
		loc = time.UTC
	}
	hour := t.In(loc).Hour()

	if h.OpenHour < h.CloseHour {
		return hour >= h.OpenHour && hour < h.CloseHour
	}
	// Overnight window, e.g. 22 -> 6.
	return hour >= h.OpenHour || hour < h.CloseHour
}
