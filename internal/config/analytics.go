package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AnalyticsConfig tunes the financial dashboard.
type AnalyticsConfig struct {
	TopServicesLimit int `mapstructure:"topServicesLimit"`
	WeekChartDays    int `mapstructure:"weekChartDays"`
	MonthChartDays   int `mapstructure:"monthChartDays"`
	MaxCustomDays    int `mapstructure:"maxCustomDays"`
}

func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		TopServicesLimit: 5,
		WeekChartDays:    7,
		MonthChartDays:   30,
		MaxCustomDays:    366,
	}
}

type AnalyticsConfigHolder struct {
	current atomic.Value // holds AnalyticsConfig
}

// NewStaticAnalyticsConfigHolder returns a holder pinned to cfg, used by tests
// and tooling that do not want file watching.
func NewStaticAnalyticsConfigHolder(cfg AnalyticsConfig) *AnalyticsConfigHolder {
	holder := &AnalyticsConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewAnalyticsConfigHolder() (*AnalyticsConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("analytics")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/shoecare")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SHOECARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultAnalyticsConfig()
	v.SetDefault("analytics.topServicesLimit", defaults.TopServicesLimit)
	v.SetDefault("analytics.weekChartDays", defaults.WeekChartDays)
	v.SetDefault("analytics.monthChartDays", defaults.MonthChartDays)
	v.SetDefault("analytics.maxCustomDays", defaults.MaxCustomDays)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg AnalyticsConfig
	if err := v.UnmarshalKey("analytics", &cfg); err != nil {
		return nil, err
	}
	if err := validateAnalyticsConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticAnalyticsConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AnalyticsConfig
		if err := v.UnmarshalKey("analytics", &updated); err != nil {
			log.Printf("[analytics-config] reload failed: %v", err)
			return
		}
		if err := validateAnalyticsConfig(updated); err != nil {
			log.Printf("[analytics-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[analytics-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *AnalyticsConfigHolder) Get() AnalyticsConfig {
	if h == nil {
		return DefaultAnalyticsConfig()
	}
	cfg, ok := h.current.Load().(AnalyticsConfig)
	if !ok {
		return DefaultAnalyticsConfig()
	}
	return cfg
}

func validateAnalyticsConfig(cfg AnalyticsConfig) error {
	if cfg.TopServicesLimit <= 0 {
		return errors.New("analytics.topServicesLimit must be positive")
	}
	if cfg.WeekChartDays <= 0 || cfg.MonthChartDays <= 0 {
		return errors.New("analytics chart days must be positive")
	}
	if cfg.MaxCustomDays < 0 {
		return errors.New("analytics.maxCustomDays must not be negative")
	}
	return nil
}
