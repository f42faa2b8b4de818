package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles for gradual rollout across wards.
// Rollout assignment is stable per pincode, so a ward that sees a feature
// keeps seeing it.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	pincodeOverrides map[string]map[string]bool // pincode -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100). Wards are assigned based on a hash of
	// their pincode.
	RolloutPercent int
}

// Predefined feature flag names.
const (
	// === Scoreboard Features ===
	FeatureScoreboardRankChange = "scoreboard.rank_change" // Show week-over-week movement
	FeatureScoreboardHistory    = "scoreboard.history"     // Per-ward history endpoint

	// === Scoring Features ===
	FeatureScoringConfirmations = "scoring.confirmations" // Confirmation component in overall score
	FeatureScoringCacheWarm     = "scoring.cache_warm"    // Pre-warm scoreboard cache after runs

	// === Directory Features ===
	FeatureDirectoryPostalFallback = "directory.postal_fallback" // Live pincode lookup fallback

	// === Experimental Features ===
	FeatureExperimentalTrends = "experimental.trends" // Multi-week trend analysis
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		pincodeOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureScoreboardRankChange] = &Feature{
		Name:           FeatureScoreboardRankChange,
		Description:    "Show rank changes on the scoreboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureScoreboardHistory] = &Feature{
		Name:           FeatureScoreboardHistory,
		Description:    "Per-ward weekly score history",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureScoringConfirmations] = &Feature{
		Name:           FeatureScoringConfirmations,
		Description:    "Include resolution confirmations in the overall score",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureScoringCacheWarm] = &Feature{
		Name:           FeatureScoringCacheWarm,
		Description:    "Warm the scoreboard cache after each scoring run",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureDirectoryPostalFallback] = &Feature{
		Name:           FeatureDirectoryPostalFallback,
		Description:    "Resolve unknown pincodes via the public postal API",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureExperimentalTrends] = &Feature{
		Name:           FeatureExperimentalTrends,
		Description:    "Multi-week trend analysis",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment reads per-feature overrides.
// FEATURE_SCOREBOARD_RANK_CHANGE=false disables scoreboard.rank_change;
// FEATURE_EXPERIMENTAL_TRENDS_ROLLOUT=25 rolls trends out to 25% of wards.
func (ff *FeatureFlags) loadFromEnvironment() {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	for name, feature := range ff.features {
		envKey := "FEATURE_" + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))

		if val := os.Getenv(envKey); val != "" {
			if enabled, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = enabled
			}
		}

		if val := os.Getenv(envKey + "_ROLLOUT"); val != "" {
			if pct, err := strconv.Atoi(val); err == nil && pct >= 0 && pct <= 100 {
				feature.RolloutPercent = pct
			}
		}
	}
}

// IsEnabled checks whether a feature is on globally (ignores rollout).
func (ff *FeatureFlags) IsEnabled(name string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[name]
	return ok && feature.Enabled
}

// IsEnabledForPincode checks whether a feature is on for a specific ward,
// honoring overrides and rollout percentage.
func (ff *FeatureFlags) IsEnabledForPincode(name, pincode string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if overrides, ok := ff.pincodeOverrides[pincode]; ok {
		if enabled, ok := overrides[name]; ok {
			return enabled
		}
	}

	feature, ok := ff.features[name]
	if !ok || !feature.Enabled {
		return false
	}
	if feature.RolloutPercent >= 100 {
		return true
	}
	if feature.RolloutPercent <= 0 {
		return false
	}
	return bucketFor(name, pincode) < feature.RolloutPercent
}

// SetOverride forces a feature on or off for one pincode.
func (ff *FeatureFlags) SetOverride(pincode, name string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if ff.pincodeOverrides[pincode] == nil {
		ff.pincodeOverrides[pincode] = make(map[string]bool)
	}
	ff.pincodeOverrides[pincode][name] = enabled
}

// ClearOverrides removes all per-pincode overrides.
func (ff *FeatureFlags) ClearOverrides() {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	ff.pincodeOverrides = make(map[string]map[string]bool)
}

// bucketFor maps (feature, pincode) to a stable bucket in [0, 100).
func bucketFor(name, pincode string) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	h.Write([]byte(":"))
	h.Write([]byte(pincode))
	return int(h.Sum32() % 100)
}
