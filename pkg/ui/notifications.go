package ui

import (
	"encoding/xml"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %s with title %s`, appleScriptQuote(message), appleScriptQuote(title))
	return exec.Command("osascript", "-e", script).Run()
}

func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", windowsToastScript(title, message)).Run()
}

// windowsToastScript builds the toast script. The XML goes into a literal
// here-string, so PowerShell expands nothing inside it.
func windowsToastScript(title, message string) string {
	return fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @'
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
'@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("postscraper").Show($toast)
	`, xmlEscape(title), xmlEscape(message))
}

// xmlEscape escapes s for XML text. Quotes are escaped too, which also keeps
// a line starting with '@ from closing the here-string.
func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// Notifier prints end-of-run messages and, when enabled, mirrors them as
// desktop notifications
type Notifier struct {
	w      io.Writer
	sender NotificationSender
}

// NewNotifier creates a Notifier writing to w. With desktop set, the sender
// for the current platform is used when there is one.
func NewNotifier(w io.Writer, desktop bool) *Notifier {
	if !desktop {
		return &Notifier{w: w}
	}

	var sender NotificationSender
	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}
	return NewNotifierWithSender(w, sender)
}

// NewNotifierWithSender creates a Notifier with an explicit sender
func NewNotifierWithSender(w io.Writer, sender NotificationSender) *Notifier {
	return &Notifier{w: w, sender: sender}
}

// SendNotification prints a message and sends it to the desktop
func (n *Notifier) SendNotification(title, message string) {
	fmt.Fprintf(n.w, "\n%s: %s\n", Cyan(title), Yellow(message))
	n.send(title, message)
}

// SendError sends an error notification
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(n.w, "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}

// SendSuccess sends a success notification
func (n *Notifier) SendSuccess(title, message string) {
	fmt.Fprintf(n.w, "\n%s: %s\n", Green(title), Green(message))
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender != nil {
		// desktop notifications are best effort
		_ = n.sender.Send(title, message)
	}
}
