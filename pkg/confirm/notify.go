package confirm

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gen2brain/beeep"
)

// Notifier shows out-of-band notifications.
type Notifier interface {
	Notify(title, message string) error
}

// Desktop sends OS notifications.
type Desktop struct {
	Icon string
}

var _ Notifier = Desktop{}

// Notify sends a desktop notification.
func (d Desktop) Notify(title, message string) error {
	return beeep.Notify(title, message, d.Icon)
}

var (
	promptStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false).
			BorderForeground(lipgloss.Color("63"))
)

func renderPrompt(message string, timeout time.Duration) string {
	body := fmt.Sprintf("%s %s\nPress Y to execute or N to cancel (timeout in %d seconds)",
		titleStyle.Render("CONFIRMATION REQUIRED:"), message, int(timeout.Seconds()))
	return "\n" + promptStyle.Render(body)
}

func renderNotice(message string) string {
	return "\n" + noticeStyle.Render(message)
}
