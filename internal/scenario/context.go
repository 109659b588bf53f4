package scenario

import "time"

// Bias expresses the user's speed-versus-quality leaning.
type Bias string

const (
	BiasBalanced Bias = "balanced"
	BiasSpeed    Bias = "speed"
	BiasQuality  Bias = "quality"
)

// Level is a coarse low/medium/high sensitivity setting.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// TimeBucket is the derived time-of-day bucket used for scoring nudges
// and for the adaptive selection strategy.
type TimeBucket string

const (
	BucketMorning TimeBucket = "morning" // 05:00-11:59
	BucketDaytime TimeBucket = "daytime" // 12:00-17:59
	BucketEvening TimeBucket = "evening" // 18:00-22:59
	BucketNight   TimeBucket = "night"   // 23:00-04:59
)

// Preferences holds the user-tunable operating preferences that shape
// detection nudges and provider selection.
type Preferences struct {
	Bias               Bias     `json:"bias" yaml:"bias"`
	CostSensitivity    Level    `json:"cost_sensitivity" yaml:"cost-sensitivity"`
	PrivacySensitivity Level    `json:"privacy_sensitivity" yaml:"privacy-sensitivity"`
	ExperienceLevel    string   `json:"experience_level" yaml:"experience-level"`
	ApprovedProviders  []string `json:"approved_providers,omitempty" yaml:"approved-providers"`
}

// DefaultPreferences returns the balanced defaults used when the caller
// supplies nothing.
func DefaultPreferences() Preferences {
	return Preferences{
		Bias:               BiasBalanced,
		CostSensitivity:    LevelMedium,
		PrivacySensitivity: LevelMedium,
		ExperienceLevel:    "intermediate",
	}
}

// Session describes the running capture session.
type Session struct {
	StartedAt time.Time `json:"started_at"`
	Processed int       `json:"processed"`
}

// Context is the request-scoped environment a work item is classified and
// routed in. Built fresh per request; the engine never persists it.
type Context struct {
	Content       string      `json:"content"`
	RecentHistory []string    `json:"recent_history,omitempty"`
	Prefs         Preferences `json:"preferences"`
	Session       Session     `json:"session"`
	Now           time.Time   `json:"now"`
	Bucket        TimeBucket  `json:"bucket"`
}

// maxHistoryWindow bounds the recent-history window carried per request.
const maxHistoryWindow = 10

// NewContext assembles a request context, bounding the history window and
// deriving the time-of-day bucket from now.
func NewContext(content string, history []string, prefs Preferences, sess Session, now time.Time) *Context {
	if len(history) > maxHistoryWindow {
		history = history[len(history)-maxHistoryWindow:]
	}
	if prefs.Bias == "" {
		prefs.Bias = BiasBalanced
	}
	return &Context{
		Content:       content,
		RecentHistory: history,
		Prefs:         prefs,
		Session:       sess,
		Now:           now,
		Bucket:        BucketFor(now),
	}
}

// BucketFor maps a wall-clock time to its TimeBucket.
func BucketFor(t time.Time) TimeBucket {
	switch hour := t.Hour(); {
	case hour >= 5 && hour < 12:
		return BucketMorning
	case hour >= 12 && hour < 18:
		return BucketDaytime
	case hour >= 18 && hour < 23:
		return BucketEvening
	default:
		return BucketNight
	}
}
