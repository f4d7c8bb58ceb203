package notify

import "github.com/gen2brain/beeep"

// Notification is one desktop notice.
type Notification struct {
	Title string
	Body  string
	// Urgent notices are shown as alerts, with a sound where supported.
	Urgent bool
}

// Backend delivers notifications to the desktop.
type Backend interface {
	Send(n Notification) error
}

// desktopBackend delivers notifications through beeep.
type desktopBackend struct {
	icon string
}

// Send implements Backend.
func (b desktopBackend) Send(n Notification) error {
	if n.Urgent {
		return beeep.Alert(n.Title, n.Body, b.icon)
	}
	return beeep.Notify(n.Title, n.Body, b.icon)
}
