// Package steering lets operators bias routing decisions with YAML
// rule files. Rules activate on expression conditions evaluated against
// the request context and can pin a provider, force a selection
// strategy, grant scenario score bonuses, or inject an analysis hint
// into the provider prompt. Rule files hot-reload on change.
package steering

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
)

const maxRuleFileSize = 1 * 1024 * 1024

// Engine manages the lifecycle and matching of steering rules.
type Engine struct {
	rulesDir  string
	rules     []*Rule
	evaluator *ConditionEvaluator
	mu        sync.RWMutex

	// watcher for hot-reloading
	watcher     *fsnotify.Watcher
	stopWatcher chan struct{}

	// onReload is invoked after a successful hot reload, outside the lock
	onReload func()
}

// NewEngine creates a steering engine reading rules from rulesDir.
func NewEngine(rulesDir string) (*Engine, error) {
	if rulesDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			wd, _ := os.Getwd()
			rulesDir = filepath.Join(wd, ".mindrouter", "steering")
		} else {
			rulesDir = filepath.Join(home, ".mindrouter", "steering")
		}
	}

	return &Engine{
		rulesDir:    rulesDir,
		rules:       make([]*Rule, 0),
		evaluator:   NewConditionEvaluator(),
		stopWatcher: make(chan struct{}),
	}, nil
}

// OnReload registers a callback fired after each successful reload.
func (e *Engine) OnReload(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onReload = fn
}

// LoadRules loads all steering rules from the rules directory.
func (e *Engine) LoadRules() error {
	e.mu.Lock()

	if _, err := os.Stat(e.rulesDir); os.IsNotExist(err) {
		if err := os.MkdirAll(e.rulesDir, 0755); err != nil {
			e.mu.Unlock()
			return fmt.Errorf("failed to create steering directory: %w", err)
		}
	}

	newRules := make([]*Rule, 0)

	absRulesDir, err := filepath.Abs(e.rulesDir)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("failed to get absolute path of steering directory: %w", err)
	}

	err = filepath.Walk(e.rulesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip symlinks to prevent directory traversal
		if info.Mode()&os.ModeSymlink != 0 {
			log.Warnf("Skipping symlink in steering directory: %s", path)
			return nil
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			log.Warnf("Failed to get absolute path for %s: %v", path, err)
			return nil
		}
		if !strings.HasPrefix(absPath, absRulesDir) {
			log.Warnf("Skipping file outside steering directory: %s", path)
			return nil
		}

		if !info.IsDir() && (strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")) {
			if info.Size() > maxRuleFileSize {
				log.Warnf("Skipping large steering file: %s (%d bytes)", path, info.Size())
				return nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				log.Errorf("Failed to read steering file %s: %v", path, err)
				return nil
			}

			var rule Rule
			if err := yaml.Unmarshal(data, &rule); err != nil {
				log.Errorf("Failed to parse steering rule %s: %v", path, err)
				return nil
			}

			rule.FilePath = path
			newRules = append(newRules, &rule)
			log.Debugf("Loaded steering rule: %s from %s", rule.Name, path)
		}
		return nil
	})

	if err != nil {
		e.mu.Unlock()
		return err
	}

	// Highest priority first
	sort.Slice(newRules, func(i, j int) bool {
		return newRules[i].Activation.Priority > newRules[j].Activation.Priority
	})

	e.rules = newRules
	reload := e.onReload
	e.mu.Unlock()

	log.Infof("Successfully loaded %d steering rules", len(newRules))
	if reload != nil {
		reload()
	}
	return nil
}

// Apply evaluates every rule against the context and folds the matched
// effects into a Decision. Rules apply in priority order; the first
// exclusive match stops further rules.
func (e *Engine) Apply(ctx *RuleContext) *Decision {
	e.mu.RLock()
	defer e.mu.RUnlock()

	decision := &Decision{ScenarioBonus: make(map[string]float64)}

	for _, rule := range e.rules {
		active, err := e.evaluator.Evaluate(rule.Activation.Condition, ctx)
		if err != nil {
			log.Warnf("Failed to evaluate condition for rule %s: %v", rule.Name, err)
			continue
		}
		if !active {
			continue
		}

		effects := rule.Effects

		pin := ""
		for _, tw := range effects.TimeWindows {
			if e.evaluator.InWindow(tw, ctx.Timestamp) && tw.PinProvider != "" {
				pin = tw.PinProvider
				break
			}
		}
		if pin == "" {
			pin = effects.PinProvider
		}
		if pin != "" && decision.PinProvider == "" {
			decision.PinProvider = pin
		}

		if effects.ForceStrategy != "" && decision.ForceStrategy == "" {
			decision.ForceStrategy = effects.ForceStrategy
		}
		for scen, bonus := range effects.ScenarioBonus {
			decision.ScenarioBonus[scen] += bonus
		}
		if effects.PromptHint != "" {
			decision.PromptHints = append(decision.PromptHints, effects.PromptHint)
		}

		decision.AppliedRules = append(decision.AppliedRules, rule.Name)

		if effects.Exclusive {
			break
		}
	}

	return decision
}

// StartWatcher starts a background fsnotify watcher for hot-reloading rules.
func (e *Engine) StartWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	e.watcher = watcher

	err = filepath.Walk(e.rulesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					log.Infof("Steering directory changed (%s), reloading rules...", event.Name)
					time.Sleep(100 * time.Millisecond)
					if err := e.LoadRules(); err != nil {
						log.Errorf("Failed to reload steering rules: %v", err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("Steering watcher error: %v", err)
			case <-e.stopWatcher:
				return
			}
		}
	}()

	return nil
}

// StopWatcher stops the file watcher.
func (e *Engine) StopWatcher() {
	if e.watcher != nil {
		select {
		case <-e.stopWatcher:
		default:
			close(e.stopWatcher)
		}
		e.watcher.Close()
		e.watcher = nil
	}
}

// Rules returns the currently loaded rules.
func (e *Engine) Rules() []*Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	res := make([]*Rule, len(e.rules))
	copy(res, e.rules)
	return res
}
