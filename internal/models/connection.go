package models

// ConnectionState is the interpreted state of the messaging link.
type ConnectionState string

const (
	StateConnected    ConnectionState = "connected"
	StateWaitingQR    ConnectionState = "waiting_qr"
	StateConnecting   ConnectionState = "connecting"
	StateDisconnected ConnectionState = "disconnected"
	StateUnknown      ConnectionState = "unknown"
)

// View is the dashboard screen currently shown.
type View string

const (
	ViewOnboarding      View = "onboarding"
	ViewConnectWhatsApp View = "connect_whatsapp"
	ViewConnecting      View = "connecting"
	ViewDigest          View = "digest"
	ViewDisconnected    View = "disconnected"
)

// Label is the short badge text for a view.
func (v View) Label() string {
	switch v {
	case ViewDigest:
		return "Linked to WhatsApp"
	case ViewConnecting:
		return "Linking..."
	case ViewConnectWhatsApp:
		return "Waiting to link"
	case ViewDisconnected:
		return "Link lost"
	default:
		return "Just getting started"
	}
}
