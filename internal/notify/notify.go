// Package notify shows transient user messages ("Oak added", "Unable to
// find your location") on the terminal and, optionally, the desktop.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/gen2brain/beeep"
)

// Title is the desktop notification title.
const Title = "Tree sightings"

var toastStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true)

// Console writes messages to a terminal stream.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	style lipgloss.Style
}

// NewConsole returns a console notifier writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, style: toastStyle}
}

// Notify prints msg on its own line.
func (c *Console) Notify(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, c.style.Render(msg))
}

// Desktop raises an OS notification per message.
type Desktop struct {
	logger *slog.Logger
	send   func(title, body string) error
}

// NewDesktop returns a desktop notifier. Delivery failures are logged.
func NewDesktop(logger *slog.Logger) *Desktop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Desktop{logger: logger, send: func(title, body string) error {
		return beeep.Notify(title, body, "")
	}}
}

// Notify raises the notification.
func (d *Desktop) Notify(msg string) {
	body := strings.Join(strings.Fields(msg), " ")
	if err := d.send(Title, body); err != nil {
		d.logger.Debug("desktop notification failed", "error", err)
	}
}

// Notifier is anything that shows a message.
type Notifier interface {
	Notify(msg string)
}

// Multi fans a message out to every notifier in order.
type Multi []Notifier

// Notify forwards msg to each notifier.
func (m Multi) Notify(msg string) {
	for _, n := range m {
		if n != nil {
			n.Notify(msg)
		}
	}
}

// Recorder keeps messages in memory; the TUI drains it into its status line.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

// Notify appends msg.
func (r *Recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Drain returns and clears the recorded messages.
func (r *Recorder) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.messages
	r.messages = nil
	return out
}
