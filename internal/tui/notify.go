package tui

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/javiermolinar/orga/internal/board"
)

// noticeBuffer bounds the notices waiting for the UI.
const noticeBuffer = 32

// ChannelNotifier forwards store notices to the UI loop. Notify never
// blocks; a notice is dropped when the buffer is full.
type ChannelNotifier struct {
	ch     chan board.Notice
	logger *slog.Logger
}

// NewChannelNotifier creates a notifier with a buffered channel.
func NewChannelNotifier(logger *slog.Logger) *ChannelNotifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ChannelNotifier{ch: make(chan board.Notice, noticeBuffer), logger: logger}
}

// Notify implements board.Notifier.
func (n *ChannelNotifier) Notify(notice board.Notice) {
	select {
	case n.ch <- notice:
	default:
		n.logger.Warn("notice dropped", "title", notice.Title)
	}
}

// C returns the receive side of the notifier.
func (n *ChannelNotifier) C() <-chan board.Notice {
	return n.ch
}

// Refresher ticks on a cron schedule so the board can reload the week.
type Refresher struct {
	cron *cron.Cron
	ch   chan struct{}
}

// NewRefresher parses spec with the standard cron parser, which also accepts
// descriptors such as "@every 5m".
func NewRefresher(spec string) (*Refresher, error) {
	r := &Refresher{
		cron: cron.New(),
		ch:   make(chan struct{}, 1),
	}
	if _, err := r.cron.AddFunc(spec, r.tick); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Refresher) tick() {
	select {
	case r.ch <- struct{}{}:
	default:
	}
}

// Start runs the schedule in the background.
func (r *Refresher) Start() { r.cron.Start() }

// Stop stops the schedule. Pending ticks are discarded.
func (r *Refresher) Stop() { <-r.cron.Stop().Done() }

// C returns the tick channel.
func (r *Refresher) C() <-chan struct{} { return r.ch }
