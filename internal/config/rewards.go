package config

import (
	"log"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RewardsConfig is the hot-reloadable rewards policy: how many loyalty
// points a verified visit mints and how long a redemption proof stays
// valid. Point costs live on the reward campaign itself; these values
// are platform-wide knobs.
type RewardsConfig struct {
	PointsPerVisit         int64 `mapstructure:"points_per_visit"`
	RedemptionValidityDays int   `mapstructure:"redemption_validity_days"`
}

func DefaultRewardsConfig() RewardsConfig {
	return RewardsConfig{
		PointsPerVisit:         10,
		RedemptionValidityDays: 30,
	}
}

func (c RewardsConfig) normalized() RewardsConfig {
	if c.PointsPerVisit <= 0 {
		c.PointsPerVisit = DefaultRewardsConfig().PointsPerVisit
	}
	if c.RedemptionValidityDays <= 0 {
		c.RedemptionValidityDays = DefaultRewardsConfig().RedemptionValidityDays
	}
	return c
}

// RewardsConfigHolder serves the current rewards policy and follows
// file changes without a restart.
type RewardsConfigHolder struct {
	current atomic.Value // holds RewardsConfig
}

func NewRewardsConfigHolder(cfg Config) (*RewardsConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("rewards")
	v.SetConfigType("yml")
	for _, path := range cfg.RewardsConfigPaths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("COLLABUU")
	v.AutomaticEnv()

	holder := &RewardsConfigHolder{}
	holder.current.Store(DefaultRewardsConfig())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No rewards.yml on disk; defaults stay in effect.
		return holder, nil
	}

	if err := holder.reload(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		if err := holder.reload(v); err != nil {
			log.Printf("rewards config reload failed: %v", err)
		}
	})
	v.WatchConfig()

	return holder, nil
}

func (h *RewardsConfigHolder) reload(v *viper.Viper) error {
	var cfg RewardsConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return err
	}
	h.current.Store(cfg.normalized())
	return nil
}

// Get returns the rewards policy currently in effect.
func (h *RewardsConfigHolder) Get() RewardsConfig {
	if h == nil {
		return DefaultRewardsConfig()
	}
	return h.current.Load().(RewardsConfig)
}

// StaticRewardsConfigHolder pins the policy for tests.
func StaticRewardsConfigHolder(cfg RewardsConfig) *RewardsConfigHolder {
	holder := &RewardsConfigHolder{}
	holder.current.Store(cfg.normalized())
	return holder
}
