package models

import "time"

// AdvisorySource identifies which upstream interaction produced an advisory.
type AdvisorySource string

const (
	AdvisoryStatus  AdvisorySource = "status"
	AdvisoryPairing AdvisorySource = "pairing"
	AdvisoryLoops   AdvisorySource = "loops"
	AdvisoryDigest  AdvisorySource = "digest"
	AdvisoryAction  AdvisorySource = "action"
)

// Advisory is a short user-facing message about a degraded upstream. At most
// one advisory is kept per source; a later success for that source clears it.
type Advisory struct {
	Source  AdvisorySource `json:"source"`
	Message string         `json:"message"`
	At      time.Time      `json:"at"`
}

// Advisory copy shown to the user.
const (
	MessageStatusUnreachable  = "I'm having trouble reaching WhatsApp right now. The little box running Pedrito might need a nudge."
	MessagePairingUnavailable = "I couldn't load your pairing code just now. It will refresh on its own shortly."
	MessageBriefingFailed     = "I couldn't load your briefing just now. Hit 'Refresh briefing' to try again."
	MessageActionFailed       = "Couldn't update this item right now. Please try again."
)
