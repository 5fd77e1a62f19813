package agent

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"roi_advisor/pkg/core/llm"
)

// DefaultProvider is used when models.yaml names no active provider.
const DefaultProvider = "gemini"

type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Agents         map[string]AgentConfig `yaml:"agents"`
	Models         map[string]string      `yaml:"models"` // provider name -> model id
}

type AgentConfig struct {
	Provider    string `yaml:"provider"` // Optional override
	Model       string `yaml:"model"`    // Optional override
	Description string `yaml:"description"`
}

// LoadConfig reads config/models.yaml. A missing file yields the default config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{ActiveProvider: DefaultProvider}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.ActiveProvider == "" {
		cfg.ActiveProvider = DefaultProvider
	}
	return cfg, nil
}

type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
	logger    *zap.Logger
}

// NewManager registers the built-in providers. Extra providers (tests, custom
// endpoints) can be passed and replace built-ins with the same name.
func NewManager(config Config, logger *zap.Logger, extra ...llm.Provider) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ActiveProvider == "" {
		config.ActiveProvider = DefaultProvider
	}
	m := &Manager{
		config:    config,
		providers: map[string]llm.Provider{},
		logger:    logger,
	}
	for _, p := range []llm.Provider{
		&llm.GeminiProvider{Model: config.Models["gemini"]},
		&llm.GeminiLegacyProvider{Model: config.Models["gemini-legacy"]},
		llm.NewDeepSeekProvider(),
		llm.NewQwenProvider(),
	} {
		m.providers[p.Name()] = p
	}
	for _, p := range extra {
		m.providers[p.Name()] = p
	}
	return m
}

// GetProvider resolves the provider for an agent: per-agent override first,
// then the global active provider.
func (m *Manager) GetProvider(agentType string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providerLocked(agentType)
}

// Resolve returns the provider for an agent and the model to request from it,
// read under one lock so a concurrent switch cannot split the pair.
func (m *Manager) Resolve(agentType string) (llm.Provider, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := m.providerLocked(agentType)
	if p == nil {
		return nil, ""
	}
	return p, m.modelLocked(agentType, p.Name())
}

func (m *Manager) providerLocked(agentType string) llm.Provider {
	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p
		}
		m.logger.Warn("agent provider override not registered",
			zap.String("agent", agentType), zap.String("provider", agentConfig.Provider))
	}

	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p
	}
	return m.providers[DefaultProvider]
}

func (m *Manager) modelLocked(agentType, providerName string) string {
	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Model != "" {
		return agentConfig.Model
	}
	return m.config.Models[providerName]
}

// GetProviderByName retrieves a provider instance by its specific name (e.g. "deepseek", "gemini")
func (m *Manager) GetProviderByName(name string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[name]
	if !ok {
		m.logger.Debug("provider not found", zap.String("provider", name))
		return nil
	}
	return p
}

// ModelFor returns the configured model for an agent, or "" to let the provider choose.
func (m *Manager) ModelFor(agentType string) string {
	_, model := m.Resolve(agentType)
	return model
}

// ExecutePrompt handles instruction adaptation before sending to the model
func (m *Manager) ExecutePrompt(ctx context.Context, agentType string, rawPrompt string, rawSystemPrompt string, options map[string]interface{}) (string, error) {
	provider := m.GetProvider(agentType)
	if provider == nil {
		return "", fmt.Errorf("no provider available for agent %s", agentType)
	}
	m.logger.Debug("executing prompt",
		zap.String("agent", agentType), zap.String("provider", provider.Name()))

	adaptedSystemPrompt := provider.AdaptInstructions(rawSystemPrompt)
	return provider.GenerateResponse(ctx, rawPrompt, adaptedSystemPrompt, options)
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	m.logger.Info("global provider switched", zap.String("provider", newProvider))
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// Available lists registered provider names in sorted order.
func (m *Manager) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
