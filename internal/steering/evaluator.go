package steering

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ConditionEvaluator compiles and runs rule activation conditions.
type ConditionEvaluator struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

// NewConditionEvaluator creates a new condition evaluator.
func NewConditionEvaluator() *ConditionEvaluator {
	return &ConditionEvaluator{
		programs: make(map[string]*vm.Program),
	}
}

// Evaluate evaluates a condition string against the rule context.
// An empty condition always activates.
func (e *ConditionEvaluator) Evaluate(condition string, ctx *RuleContext) (bool, error) {
	if condition == "" || condition == "true" {
		return true, nil
	}

	e.mu.Lock()
	program, exists := e.programs[condition]
	if !exists {
		var err error
		program, err = expr.Compile(condition, expr.Env(ctx))
		if err != nil {
			e.mu.Unlock()
			return false, fmt.Errorf("failed to compile condition '%s': %w", condition, err)
		}
		e.programs[condition] = program
	}
	e.mu.Unlock()

	output, err := expr.Run(program, ctx)
	if err != nil {
		return false, fmt.Errorf("failed to run condition '%s': %w", condition, err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition '%s' did not return a boolean", condition)
	}

	return result, nil
}

// InWindow checks whether now falls inside a time window.
func (e *ConditionEvaluator) InWindow(w TimeWindow, now time.Time) bool {
	if !inHourRange(now.Hour(), w.Hours) {
		return false
	}
	return inDayRange(now.Weekday(), w.Days)
}

// inHourRange checks "9-17", "9-11,14-17", single hours, or empty
// (matches all).
func inHourRange(hour int, hoursStr string) bool {
	if hoursStr == "" {
		return true
	}

	ranges := strings.Split(hoursStr, ",")
	for _, r := range ranges {
		r = strings.TrimSpace(r)
		parts := strings.Split(r, "-")
		if len(parts) == 2 {
			var start, end int
			_, _ = fmt.Sscanf(parts[0], "%d", &start)
			_, _ = fmt.Sscanf(parts[1], "%d", &end)
			if hour >= start && hour <= end {
				return true
			}
		} else if len(parts) == 1 {
			var single int
			_, _ = fmt.Sscanf(parts[0], "%d", &single)
			if hour == single {
				return true
			}
		}
	}

	return false
}

// inDayRange checks "Mon-Fri", "Mon,Wed,Fri", or empty (matches all).
func inDayRange(weekday time.Weekday, daysStr string) bool {
	if daysStr == "" {
		return true
	}

	dayMap := map[string]time.Weekday{
		"Sun": time.Sunday,
		"Mon": time.Monday,
		"Tue": time.Tuesday,
		"Wed": time.Wednesday,
		"Thu": time.Thursday,
		"Fri": time.Friday,
		"Sat": time.Saturday,
	}

	if strings.Contains(daysStr, "-") {
		parts := strings.Split(daysStr, "-")
		if len(parts) == 2 {
			start := dayMap[strings.TrimSpace(parts[0])]
			end := dayMap[strings.TrimSpace(parts[1])]
			if start <= end {
				return weekday >= start && weekday <= end
			}
			// Wrap around, e.g. "Fri-Mon"
			return weekday >= start || weekday <= end
		}
	} else {
		for _, d := range strings.Split(daysStr, ",") {
			if dayMap[strings.TrimSpace(d)] == weekday {
				return true
			}
		}
	}

	return false
}
