package devices

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"stitchcast/internal/logging"
	"stitchcast/internal/store"
)

// Monitor turns udev video4linux events into store actions.
type Monitor struct {
	logger   *slog.Logger
	dispatch store.Dispatcher

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	done    chan struct{}
	running bool
}

// NewMonitor returns a monitor posting to dispatch, which must be safe to
// call from the monitor goroutine. A nil dispatch yields a nil monitor, on
// which every method is a no-op.
func NewMonitor(dispatch store.Dispatcher, logger *slog.Logger) *Monitor {
	if dispatch == nil {
		return nil
	}
	return &Monitor{
		logger:   logging.NewComponentLogger(logger, "device-monitor"),
		dispatch: dispatch,
	}
}

// Start begins listening for udev events. Failing to connect is logged and
// not returned.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the runtime may open netlink sockets"),
			logging.String(logging.FieldImpact, "camera hot-plug is not tracked"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.done = make(chan struct{})
	m.running = true

	go m.monitorLoop(ctx, conn, m.quit, m.done)

	m.logger.Info("device monitor started", logging.String(logging.FieldEventType, "device_monitor_started"))
	return nil
}

// Stop shuts the monitor down and waits for its goroutine.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	close(m.quit)
	done := m.done
	conn := m.conn
	m.quit, m.done, m.conn = nil, nil, nil
	m.running = false
	m.mu.Unlock()

	<-done
	_ = conn.Close()
	m.logger.Info("device monitor stopped", logging.String(logging.FieldEventType, "device_monitor_stopped"))
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "camera list may be stale"),
			)
		}
	}
}

// buildMatcher matches camera hot-plug: SUBSYSTEM=video4linux, ACTION=add|remove.
func buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(uevent netlink.UEvent) {
	node := deviceNode(uevent)
	if node == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	var action store.Action
	switch uevent.Action {
	case netlink.ADD:
		action = store.DeviceAttached{Node: node}
	case netlink.REMOVE:
		action = store.DeviceDetached{Node: node}
	default:
		return
	}

	m.logger.Info("camera "+string(uevent.Action),
		logging.String(logging.FieldEventType, "device_"+string(uevent.Action)),
		logging.String("device", node),
	)
	if err := m.dispatch.Dispatch(action); err != nil {
		m.logger.Debug("device change not recorded", logging.String("device", node), logging.Error(err))
	}
}

// deviceNode gets the /dev path from a uevent.
func deviceNode(uevent netlink.UEvent) string {
	if devname := strings.TrimSpace(uevent.Env["DEVNAME"]); devname != "" {
		if !strings.HasPrefix(devname, "/") {
			devname = "/dev/" + devname
		}
		return devname
	}

	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return ""
	}
	return "/dev/" + last
}

// Scan returns the video4linux nodes under devRoot (normally /dev), sorted.
func Scan(devRoot string) ([]string, error) {
	if devRoot == "" {
		devRoot = "/dev"
	}
	matches, err := filepath.Glob(filepath.Join(devRoot, "video*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
