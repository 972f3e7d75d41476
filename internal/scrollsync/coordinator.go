// Package scrollsync keeps a set of scrollable panes aligned while the user
// scrolls any one of them.
package scrollsync

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"time"

	"github.com/csheth/versestudio/internal/sched"
)

// Mode selects how a driving pane's position maps onto the other panes.
type Mode string

const (
	Proportional    Mode = "proportional"
	ParagraphAnchor Mode = "paragraph-anchor"
	FixedLine       Mode = "fixed-line"
)

// Modes lists the alignment modes in cycling order.
var Modes = []Mode{Proportional, ParagraphAnchor, FixedLine}

const (
	DefaultLineHeight           = 24
	DefaultSuppressionWindow    = 50 * time.Millisecond
	DefaultActiveIndicatorDelay = time.Second
)

// ErrDetached is returned by a Surface whose backing view has gone away.
var ErrDetached = errors.New("scrollsync: surface detached")

// ParseMode maps a user supplied name onto a Mode.
func ParseMode(value string) (Mode, error) {
	switch value {
	case "", "proportional", "percentage":
		return Proportional, nil
	case "paragraph-anchor", "paragraph":
		return ParagraphAnchor, nil
	case "fixed-line", "line":
		return FixedLine, nil
	default:
		return "", fmt.Errorf("unknown sync mode %q", value)
	}
}

// Next returns the mode that follows m in Modes.
func (m Mode) Next() Mode {
	for i, mode := range Modes {
		if mode == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return Proportional
}

// Metrics is the scroll state of one surface.
type Metrics struct {
	ScrollTop    float64
	ScrollHeight float64
	ClientHeight float64
}

// Scrollable returns the maximum scroll offset, never negative.
func (m Metrics) Scrollable() float64 {
	return math.Max(0, m.ScrollHeight-m.ClientHeight)
}

// Surface is the rendering capability a pane exposes to the coordinator.
// Blocks returns the top offset of each block-level element in document
// order, measured in the same unit as ScrollTop.
type Surface interface {
	Metrics() (Metrics, error)
	ScrollTo(top float64) error
	Blocks() ([]float64, error)
}

// Options configures a Coordinator. Zero values fall back to defaults.
type Options struct {
	Mode                 Mode
	LineHeight           float64
	SuppressionWindow    time.Duration
	ActiveIndicatorDelay time.Duration
	Scheduler            sched.Scheduler
	Logger               *log.Logger
	// OnActiveChange is invoked whenever the active pane changes, including
	// when the indicator clears ("" id).
	OnActiveChange func(id string)
}

// Coordinator owns the registered panes and the feedback suppression state.
type Coordinator struct {
	mu sync.Mutex

	surfaces map[string]Surface
	order    []string

	mode       Mode
	enabled    bool
	lineHeight float64

	suppressed    bool
	driver        string
	suppressTimer sched.Timer

	active      string
	activeTimer sched.Timer

	suppressWindow time.Duration
	activeDelay    time.Duration
	scheduler      sched.Scheduler
	logger         *log.Logger
	onActive       func(string)
}

// New builds an enabled Coordinator.
func New(opts Options) *Coordinator {
	c := &Coordinator{
		surfaces:       map[string]Surface{},
		mode:           opts.Mode,
		enabled:        true,
		lineHeight:     opts.LineHeight,
		suppressWindow: opts.SuppressionWindow,
		activeDelay:    opts.ActiveIndicatorDelay,
		scheduler:      opts.Scheduler,
		logger:         opts.Logger,
		onActive:       opts.OnActiveChange,
	}
	if c.mode == "" {
		c.mode = Proportional
	}
	if c.lineHeight <= 0 {
		c.lineHeight = DefaultLineHeight
	}
	if c.suppressWindow <= 0 {
		c.suppressWindow = DefaultSuppressionWindow
	}
	if c.activeDelay <= 0 {
		c.activeDelay = DefaultActiveIndicatorDelay
	}
	if c.scheduler == nil {
		c.scheduler = sched.Real{}
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	return c
}

// Register binds a surface to id. Registering an id again replaces its surface.
func (c *Coordinator) Register(id string, surface Surface) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.surfaces[id]; !ok {
		c.order = append(c.order, id)
	}
	c.surfaces[id] = surface
}

// Unregister removes id. Unknown ids are ignored.
func (c *Coordinator) Unregister(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.surfaces[id]; !ok {
		return
	}
	delete(c.surfaces, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// registered returns the pane ids in registration order.
func (c *Coordinator) registered() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

func (c *Coordinator) SetMode(mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
}

func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Coordinator) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func (c *Coordinator) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// SetLineHeight changes the unit used by FixedLine mode.
func (c *Coordinator) SetLineHeight(height float64) {
	if height <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lineHeight = height
}

// Active returns the pane that most recently drove a sync, or "" once the
// indicator has cleared.
func (c *Coordinator) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// isSuppressed reports whether a propagation window is open.
func (c *Coordinator) isSuppressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suppressed
}

// OnScroll handles a scroll event from id and reports whether the position
// was propagated to the other panes. Events from other panes arriving while
// a propagation window is open are dropped; further events from the driving
// pane keep propagating and extend the window.
func (c *Coordinator) OnScroll(id string) bool {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return false
	}
	drive, ok := c.surfaces[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	if c.suppressed && c.driver != id {
		c.mu.Unlock()
		return false
	}
	c.suppressed = true
	c.driver = id

	mode := c.mode
	lineHeight := c.lineHeight
	targets := make([]target, 0, len(c.order))
	for _, other := range c.order {
		if other == id {
			continue
		}
		targets = append(targets, target{id: other, surface: c.surfaces[other]})
	}

	c.scheduleSuppressionClearLocked()
	changed := c.active != id
	c.active = id
	c.scheduleActiveClearLocked()
	notify := c.onActive
	c.mu.Unlock()

	if changed && notify != nil {
		notify(id)
	}

	c.propagate(id, drive, mode, lineHeight, targets)
	return true
}

// Close cancels pending timers and clears transient state.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suppressTimer != nil {
		c.suppressTimer.Stop()
		c.suppressTimer = nil
	}
	if c.activeTimer != nil {
		c.activeTimer.Stop()
		c.activeTimer = nil
	}
	c.suppressed = false
	c.driver = ""
	c.active = ""
}

type target struct {
	id      string
	surface Surface
}

func (c *Coordinator) propagate(id string, drive Surface, mode Mode, lineHeight float64, targets []target) {
	metrics, err := drive.Metrics()
	if err != nil {
		c.logger.Printf("[scrollsync] driving pane %s unreadable: %v", id, err)
		return
	}
	switch mode {
	case ParagraphAnchor:
		blocks, err := drive.Blocks()
		if err != nil {
			c.logger.Printf("[scrollsync] driving pane %s blocks unreadable: %v", id, err)
			return
		}
		index := anchorIndex(blocks, metrics.ScrollTop)
		for _, t := range targets {
			c.applyAnchor(t, index)
		}
	case FixedLine:
		line := math.Floor(metrics.ScrollTop / lineHeight)
		top := line * lineHeight
		for _, t := range targets {
			if err := t.surface.ScrollTo(top); err != nil {
				c.logger.Printf("[scrollsync] skip pane %s: %v", t.id, err)
			}
		}
	default:
		position := NormalizedPosition(metrics)
		for _, t := range targets {
			other, err := t.surface.Metrics()
			if err != nil {
				c.logger.Printf("[scrollsync] skip pane %s: %v", t.id, err)
				continue
			}
			if err := t.surface.ScrollTo(position * other.Scrollable()); err != nil {
				c.logger.Printf("[scrollsync] skip pane %s: %v", t.id, err)
			}
		}
	}
}

func (c *Coordinator) applyAnchor(t target, index int) {
	blocks, err := t.surface.Blocks()
	if err != nil {
		c.logger.Printf("[scrollsync] skip pane %s: %v", t.id, err)
		return
	}
	if index < 0 || index >= len(blocks) {
		return
	}
	if err := t.surface.ScrollTo(blocks[index]); err != nil {
		c.logger.Printf("[scrollsync] skip pane %s: %v", t.id, err)
	}
}

func (c *Coordinator) scheduleSuppressionClearLocked() {
	if c.suppressTimer != nil {
		c.suppressTimer.Stop()
	}
	var timer sched.Timer
	timer = c.scheduler.AfterFunc(c.suppressWindow, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.suppressTimer != timer {
			return
		}
		c.suppressed = false
		c.driver = ""
		c.suppressTimer = nil
	})
	c.suppressTimer = timer
}

func (c *Coordinator) scheduleActiveClearLocked() {
	if c.activeTimer != nil {
		c.activeTimer.Stop()
	}
	var timer sched.Timer
	timer = c.scheduler.AfterFunc(c.activeDelay, func() {
		c.mu.Lock()
		if c.activeTimer != timer {
			c.mu.Unlock()
			return
		}
		c.active = ""
		c.activeTimer = nil
		notify := c.onActive
		c.mu.Unlock()
		if notify != nil {
			notify("")
		}
	})
	c.activeTimer = timer
}

// NormalizedPosition is scrollTop over the scrollable extent, or 0 when the
// content does not overflow.
func NormalizedPosition(m Metrics) float64 {
	extent := m.Scrollable()
	if extent <= 0 {
		return 0
	}
	pos := m.ScrollTop / extent
	if pos < 0 {
		return 0
	}
	if pos > 1 {
		return 1
	}
	return pos
}

// anchorIndex is the ordinal of the first block at or below top, or 0.
func anchorIndex(blocks []float64, top float64) int {
	for i, blockTop := range blocks {
		if blockTop >= top {
			return i
		}
	}
	return 0
}
