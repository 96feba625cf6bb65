package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/rs/zerolog"
)

// Manager holds the active configuration and swaps it when the file on
// disk changes to something valid.
type Manager struct {
	path string
	log  zerolog.Logger

	mu        sync.RWMutex
	config    *Config
	listeners []func(*Config)

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// NewManager loads path, or the default config path when path is empty. A
// missing file yields the defaults; an invalid one is logged and the
// defaults are used until it is fixed.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	m := &Manager{path: path, log: logging.Component("config")}
	m.log.Info().Str("path", path).Msg("loading configuration")

	cfg, err := LoadFile(path)
	switch {
	case err == nil:
	case isNotFound(err):
		m.log.Info().Msg("no config file, using defaults")
		cfg = DefaultConfig()
	default:
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		m.log.Warn().Err(err).Msg("invalid configuration, using defaults")
		cfg = DefaultConfig()
	}

	m.config = cfg
	return m, nil
}

func (m *Manager) Path() string { return m.path }

// GetConfig returns a copy the caller may modify freely.
func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.clone()
}

// OnChange registers fn to run with the new config after every successful
// reload or Update.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Update applies fn to a copy of the active config, validates it, writes
// it to disk and makes it active.
func (m *Manager) Update(fn func(*Config)) error {
	m.mu.Lock()
	next := m.config.clone()
	fn(next)
	if err := next.Validate(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := SaveFile(m.path, next); err != nil {
		m.mu.Unlock()
		return err
	}
	m.config = next
	listeners := append(([]func(*Config))(nil), m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(next.clone())
	}
	return nil
}

func (m *Manager) StartWatching(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(m.path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := watcher.Add(configDir); err != nil {
		watcher.Close()
		return err
	}
	m.watcher = watcher

	m.wg.Add(1)
	go m.watchLoop(ctx)

	m.log.Info().Str("path", m.path).Msg("watching for changes")
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context) {
	defer m.wg.Done()
	configFileName := filepath.Base(m.path)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			// Save renames a temp file over the config, which shows up as Create
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				m.log.Debug().Str("op", event.Op.String()).Msg("config file changed")
				m.reload()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.log.Warn().Err(err).Msg("config watcher error")

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reload() {
	next, err := LoadFile(m.path)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to reload config, keeping the active one")
		return
	}
	if err := next.Validate(); err != nil {
		m.log.Warn().Err(err).Msg("invalid config after reload, keeping the active one")
		return
	}

	m.mu.Lock()
	m.config = next
	listeners := append(([]func(*Config))(nil), m.listeners...)
	m.mu.Unlock()

	m.log.Info().Msg("configuration reloaded")
	for _, fn := range listeners {
		fn(next.clone())
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrConfigNotFound)
}
