package udev

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pilebones/go-udev/netlink"
	"github.com/sirupsen/logrus"
)

const (
	defaultSettle = 2 * time.Second
)

// Watcher reruns discovery whenever a disk or partition appears or goes
// away. Bursts of events are coalesced into one run once the device tree has
// been quiet for Settle.
type Watcher struct {
	Rediscover func(ctx context.Context)
	Settle     time.Duration
	RulesFile  string

	startOnce sync.Once
	mu        sync.Mutex
	timer     *time.Timer
}

func NewWatcher(rediscover func(ctx context.Context), rulesFile string) *Watcher {
	return &Watcher{
		Rediscover: rediscover,
		Settle:     defaultSettle,
		RulesFile:  rulesFile,
	}
}

func (w *Watcher) Monitor(ctx context.Context) error {
	var err error
	w.startOnce.Do(func() {
		err = w.monitor(ctx)
	})
	return err
}

func (w *Watcher) monitor(ctx context.Context) error {
	logrus.Infoln("Start monitoring udev processed events")

	matcher, err := getOptionalMatcher(w.RulesFile)
	if err != nil {
		return fmt.Errorf("failed to get udev config: %w", err)
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return fmt.Errorf("unable to connect to Netlink Kobject UEvent socket: %w", err)
	}
	defer conn.Close()

	uqueue := make(chan netlink.UEvent)
	errors := make(chan error)
	quit := conn.Monitor(uqueue, errors, matcher)

	for {
		select {
		case uevent := <-uqueue:
			if w.ActionHandler(uevent) {
				w.schedule(ctx)
			}
		case err := <-errors:
			logrus.Errorf("failed to parse udev event, error: %s", err.Error())
		case <-ctx.Done():
			close(quit)
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil
		}
	}
}

// ActionHandler reports whether the event may change the discovered units.
func (w *Watcher) ActionHandler(uevent netlink.UEvent) bool {
	device := InitUdevDevice(uevent.Env)
	if !device.IsBlock() {
		return false
	}
	if !device.IsDisk() && !device.IsPartition() {
		return false
	}
	switch uevent.Action {
	case netlink.ADD, netlink.REMOVE, netlink.CHANGE:
		logrus.WithFields(logrus.Fields{
			"action": uevent.Action,
			"device": device.GetShortName(),
			"type":   device[UdevDevtype],
			"vendor": device[UdevVendor],
			"model":  device[UdevModel],
			"path":   device.GetIDPath(),
			"wwn":    device.GetWWN(),
		}).Debug("uevent triggers rediscovery")
		return true
	}
	return false
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.Settle, func() {
		if ctx.Err() != nil {
			return
		}
		w.Rediscover(ctx)
	})
}

// getOptionalMatcher Parse and load config file which contains rules for matching
func getOptionalMatcher(filePath string) (matcher netlink.Matcher, err error) {
	if filePath == "" {
		return nil, nil
	}

	stream, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	if len(stream) == 0 {
		return nil, fmt.Errorf("empty, no rules provided in %q", filePath)
	}

	var rules netlink.RuleDefinitions
	if err := json.Unmarshal(stream, &rules); err != nil {
		return nil, fmt.Errorf("wrong rule syntax, err: %w", err)
	}

	return &rules, nil
}
