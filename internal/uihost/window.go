package uihost

import (
	"log/slog"

	"matuwall/internal/logging"
)

// Window is the picker surface driven by the host. All methods are called
// on the UI loop.
type Window interface {
	Show()
	Hide()
	Visible() bool
	// SetCards replaces the card list; every card starts with a placeholder.
	SetCards(paths []string)
	// SetThumbnail resolves a card. thumbPath is empty when rendering failed.
	SetThumbnail(path, thumbPath string)
	Close()
}

// HeadlessWindow tracks picker state without a toolkit and logs changes.
type HeadlessWindow struct {
	logger   *slog.Logger
	visible  bool
	cards    []string
	resolved map[string]string
}

// NewHeadlessWindow returns a window that only logs.
func NewHeadlessWindow(logger *slog.Logger) *HeadlessWindow {
	return &HeadlessWindow{
		logger:   logging.NewComponentLogger(logger, "window"),
		resolved: make(map[string]string),
	}
}

func (w *HeadlessWindow) Show() {
	w.visible = true
	w.logger.Info("window shown", logging.Int("cards", len(w.cards)))
}

func (w *HeadlessWindow) Hide() {
	w.visible = false
	w.logger.Info("window hidden")
}

func (w *HeadlessWindow) Visible() bool {
	return w.visible
}

func (w *HeadlessWindow) SetCards(paths []string) {
	w.cards = append(w.cards[:0], paths...)
	clear(w.resolved)
}

func (w *HeadlessWindow) SetThumbnail(path, thumbPath string) {
	w.resolved[path] = thumbPath
	if len(w.resolved) == len(w.cards) {
		w.logger.Debug("all thumbnails resolved", logging.Int("cards", len(w.cards)))
	}
}

func (w *HeadlessWindow) Close() {
	w.visible = false
}
