package automation

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KevinKickass/OpenDeviceCore/internal/device"
)

// Engine evaluates the rule set against the registry on a fixed cadence.
// Evaluation is stateless between ticks: every tick re-reads the sources
// and may re-trigger an already-active target. The whole pass runs inside
// one registry critical section, so a concurrent reconfiguration can never
// swap devices out from under a tick.
type Engine struct {
	registry *device.Registry
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	rules    []Rule
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewEngine(registry *device.Registry, interval time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		registry: registry,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// SetRules swaps the rule set. Invalid rules are dropped, the rest apply
// from the next tick.
func (e *Engine) SetRules(rules []Rule) {
	valid := ValidRules(rules, e.logger)
	e.mu.Lock()
	e.rules = valid
	e.mu.Unlock()
	e.logger.Info("Rule set updated", zap.Int("count", len(valid)))
}

// Rules returns a copy of the active rule set in order, for persistence.
func (e *Engine) Rules() []Rule {
	e.mu.Lock()
	defer e.mu.Unlock()
	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	return rules
}

// Start launches the tick loop.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}
	e.running = true
	e.wg.Add(1)

	go e.tickLoop()

	e.logger.Info("Rule engine started", zap.Duration("interval", e.interval))
	return nil
}

// Stop halts the tick loop and waits for the current tick to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	close(e.stopChan)
	e.wg.Wait()

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()

	e.logger.Info("Rule engine stopped")
}

func (e *Engine) tickLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.Evaluate()
		}
	}
}

// Evaluate runs one pass over the rule set. Exported so reconfiguration and
// tests can force a tick.
func (e *Engine) Evaluate() {
	e.mu.Lock()
	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	e.mu.Unlock()

	if len(rules) == 0 {
		return
	}

	e.registry.Exec(func(v device.View) {
		for _, rule := range rules {
			e.evaluateRule(rule, v)
		}
	})
}

func (e *Engine) evaluateRule(rule Rule, v device.View) {
	src, ok := v.Get(rule.Source)
	if !ok {
		return
	}
	tgt, ok := v.Get(rule.Target)
	if !ok {
		return
	}

	// A failed read omits the parameter; the rule simply sits this tick out.
	snap := src.Read()
	val, ok := snap.Float(rule.Parameter)
	if !ok {
		return
	}

	if !rule.satisfied(val) {
		return
	}

	if tgt.Category() == device.DisplayDevice {
		tgt.WriteText(fmt.Sprintf("%s: %.1f", src.Name(), val))
	} else {
		tgt.Write("set", rule.Action)
	}

	e.logger.Debug("Rule fired",
		zap.String("src", rule.Source),
		zap.String("prm", rule.Parameter),
		zap.Float64("value", val),
		zap.String("tgt", rule.Target))
}
