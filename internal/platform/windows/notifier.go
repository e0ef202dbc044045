//go:build windows

package windows

import (
	"github.com/go-toast/toast"
)

const notifierAppID = "Network Status Monitor"

// Notifier implements platform.Notifier using Windows toast notifications.
type Notifier struct{}

// Show displays a toast in the action center.
func (n *Notifier) Show(title, message string) error {
	t := toast.Notification{
		AppID:   notifierAppID,
		Title:   title,
		Message: message,
	}
	return t.Push()
}
