package steering

import "time"

// Rule represents a single operator-defined steering rule. Rules live
// in YAML files under the steering directory and are reloaded on change.
type Rule struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Activation  ActivationRule    `yaml:"activation" json:"activation"`
	Effects     Effects           `yaml:"effects" json:"effects"`
	Metadata    map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`

	// FilePath is the source file of the rule (not in YAML)
	FilePath string `yaml:"-" json:"-"`
}

// ActivationRule defines when a rule should be triggered.
type ActivationRule struct {
	Condition string `yaml:"condition" json:"condition"` // Expression: "Scenario == 'creative'"
	Priority  int    `yaml:"priority" json:"priority"`   // Higher = more important
}

// Effects defines what a matched rule changes about routing.
type Effects struct {
	PinProvider   string             `yaml:"pin_provider,omitempty" json:"pin_provider,omitempty"`
	ForceStrategy string             `yaml:"force_strategy,omitempty" json:"force_strategy,omitempty"`
	ScenarioBonus map[string]float64 `yaml:"scenario_bonus,omitempty" json:"scenario_bonus,omitempty"`
	PromptHint    string             `yaml:"prompt_hint,omitempty" json:"prompt_hint,omitempty"`
	Exclusive     bool               `yaml:"exclusive" json:"exclusive"`
	TimeWindows   []TimeWindow       `yaml:"time_windows,omitempty" json:"time_windows,omitempty"`
}

// TimeWindow restricts a rule's effects to certain hours or days.
type TimeWindow struct {
	Hours       string `yaml:"hours,omitempty" json:"hours,omitempty"` // "9-11" or "9-11,14-17"
	Days        string `yaml:"days,omitempty" json:"days,omitempty"`   // "Mon-Fri" or "Mon,Wed,Fri"
	PinProvider string `yaml:"pin_provider,omitempty" json:"pin_provider,omitempty"`
	Reason      string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// RuleContext provides the environment for condition evaluation.
// Field names are referenced verbatim from rule conditions.
type RuleContext struct {
	Scenario      string    `json:"scenario"`
	Confidence    float64   `json:"confidence"`
	Strategy      string    `json:"strategy,omitempty"`
	Priority      string    `json:"priority,omitempty"`
	Bias          string    `json:"bias,omitempty"`
	ContentLength int       `json:"content_length"`
	Hour          int       `json:"hour"`
	DayOfWeek     string    `json:"day_of_week"`
	Timestamp     time.Time `json:"timestamp"`
}

// Decision is the accumulated outcome of applying matched rules.
type Decision struct {
	PinProvider   string
	ForceStrategy string
	ScenarioBonus map[string]float64
	PromptHints   []string
	AppliedRules  []string
}
