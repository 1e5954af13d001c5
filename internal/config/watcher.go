package config

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultPollInterval = 5 * time.Second
	settleDelay         = 100 * time.Millisecond
)

// ConfigWatcher polls the configuration file and reloads it when its
// modification time advances. Invalid reloads are logged and the previous
// configuration stays active.
type ConfigWatcher struct {
	configPath string
	interval   time.Duration
	logger     *logrus.Logger
	mu         sync.RWMutex
	config     *Config
	callbacks  []func(*Config)
}

// NewConfigWatcher creates a watcher; a non-positive interval uses five seconds
func NewConfigWatcher(configPath string, interval time.Duration, logger *logrus.Logger) *ConfigWatcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &ConfigWatcher{
		configPath: configPath,
		interval:   interval,
		logger:     logger,
		callbacks:  make([]func(*Config), 0),
	}
}

// Start loads the initial configuration and polls until ctx is done
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	// Record the modification time before loading so a write racing the
	// initial load is picked up by the first poll.
	stat, err := os.Stat(cw.configPath)
	if err != nil {
		return err
	}
	lastModTime := stat.ModTime()

	config, err := LoadConfig(cw.configPath)
	if err != nil {
		return err
	}

	cw.mu.Lock()
	cw.config = config
	cw.mu.Unlock()

	cw.logger.WithField("path", cw.configPath).Info("Configuration watcher started")

	ticker := time.NewTicker(cw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cw.logger.Info("Configuration watcher stopping")
			return nil

		case <-ticker.C:
			stat, err := os.Stat(cw.configPath)
			if err != nil {
				cw.logger.WithError(err).Error("Failed to stat configuration file")
				continue
			}

			if stat.ModTime().After(lastModTime) {
				cw.logger.Debug("Configuration file changed")
				lastModTime = stat.ModTime()

				// Small delay to ensure file write is complete
				time.Sleep(settleDelay)
				cw.reloadConfig()
			}
		}
	}
}

// GetConfig returns the current configuration (thread-safe)
func (cw *ConfigWatcher) GetConfig() *Config {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.config
}

// OnConfigChange registers a callback to be called when configuration changes
func (cw *ConfigWatcher) OnConfigChange(callback func(*Config)) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

func (cw *ConfigWatcher) reloadConfig() {
	newConfig, err := LoadConfig(cw.configPath)
	if err != nil {
		cw.logger.WithError(err).Error("Failed to reload configuration")
		return
	}

	cw.mu.Lock()
	oldConfig := cw.config
	cw.config = newConfig
	callbacks := make([]func(*Config), len(cw.callbacks))
	copy(callbacks, cw.callbacks)
	cw.mu.Unlock()

	cw.logger.Info("Configuration reloaded successfully")

	for _, callback := range callbacks {
		go func(cb func(*Config)) {
			defer func() {
				if r := recover(); r != nil {
					cw.logger.WithField("panic", r).Error("Config change callback panicked")
				}
			}()
			cb(newConfig)
		}(callback)
	}

	cw.logConfigChanges(oldConfig, newConfig)
}

// logConfigChanges logs settings that only take effect on restart next to
// the ones applied live.
func (cw *ConfigWatcher) logConfigChanges(old, new *Config) {
	if old == nil {
		return
	}

	if old.LogLevel != new.LogLevel {
		cw.logger.WithFields(logrus.Fields{
			"old": old.LogLevel,
			"new": new.LogLevel,
		}).Info("Log level changed")
	}

	if old.Webhook.MaxBodyBytes != new.Webhook.MaxBodyBytes {
		cw.logger.WithFields(logrus.Fields{
			"old": old.Webhook.MaxBodyBytes,
			"new": new.Webhook.MaxBodyBytes,
		}).Info("Webhook body limit changed")
	}

	if old.Server.Addr != new.Server.Addr || old.Webhook.Path != new.Webhook.Path {
		cw.logger.WithFields(logrus.Fields{
			"addr": new.Server.Addr,
			"path": new.Webhook.Path,
		}).Warn("Listener address or webhook path changed; restart required")
	}
}
