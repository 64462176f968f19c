// Package logx contains logging extensions: the apex/log handler
// used by the tlscheck command line tool.
package logx

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
)

// levelColors maps log levels to the color used to render them.
var levelColors = map[log.Level]*color.Color{
	log.DebugLevel: color.New(color.FgWhite),
	log.InfoLevel:  color.New(color.FgBlue),
	log.WarnLevel:  color.New(color.FgYellow),
	log.ErrorLevel: color.New(color.FgRed),
	log.FatalLevel: color.New(color.FgRed),
}

// levelEmojis maps log levels to the emoji used to render them.
var levelEmojis = map[log.Level]string{
	log.DebugLevel: "🧐",
	log.InfoLevel:  "📣",
	log.WarnLevel:  "🚨",
	log.ErrorLevel: "🚨",
	log.FatalLevel: "🚨",
}

// Handler is an apex/log handler writing compact lines prefixed by
// the time elapsed since StartTime. The zero value is invalid; use
// NewHandlerWithDefaultSettings or fill all the mandatory fields.
type Handler struct {
	// Emoji OPTIONALLY renders levels using emojis.
	Emoji bool

	// Now is the MANDATORY function returning the current time.
	Now func() time.Time

	// StartTime is the MANDATORY reference time used to compute the
	// elapsed-time prefix of each line.
	StartTime time.Time

	// Writer is the MANDATORY writer where we emit log lines.
	Writer io.Writer

	// mu serializes writes from concurrent goroutines.
	mu sync.Mutex
}

// NewHandlerWithDefaultSettings creates a Handler with default
// settings: no emojis, the real time, and colorized output on the
// standard error.
func NewHandlerWithDefaultSettings() *Handler {
	return &Handler{
		Emoji:     false,
		Now:       time.Now,
		StartTime: time.Now(),
		Writer:    colorable.NewColorableStderr(),
	}
}

var _ log.Handler = &Handler{}

// HandleLog implements log.Handler.
func (h *Handler) HandleLog(e *log.Entry) error {
	elapsed := h.Now().Sub(h.StartTime).Seconds()
	s := fmt.Sprintf("[%14.6f] %s %s", elapsed, h.levelString(e.Level), e.Message)
	if len(e.Fields) > 0 {
		s += fmt.Sprintf(": %+v", e.Fields)
	}
	s += "\n"
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.Writer.Write([]byte(s))
	return err
}

// levelString renders the level of a log entry.
func (h *Handler) levelString(level log.Level) string {
	if h.Emoji {
		if emoji, found := levelEmojis[level]; found {
			return emoji
		}
	}
	text := fmt.Sprintf("<%s>", level)
	if c, found := levelColors[level]; found {
		text = c.Sprint(text)
	}
	return text
}
