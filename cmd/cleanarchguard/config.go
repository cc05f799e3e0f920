package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/roblaszczak/go-cleanarch/cleanarch"
	"gopkg.in/yaml.v3"
)

type errLayering int

func (e errLayering) Error() string {
	return fmt.Sprintf("%d layering violation(s)", int(e))
}

type config struct {
	Version           int      `yaml:"version"`
	Root              string   `yaml:"root"`
	IgnoreTests       bool     `yaml:"ignore_tests"`
	IgnorePackages    []string `yaml:"ignore_packages"`
	SharedModules     []string `yaml:"shared_modules"`
	AllowedViolations []string `yaml:"allow_violations"`
	Aliases           struct {
		Domain         []string `yaml:"domain"`
		Application    []string `yaml:"application"`
		Interfaces     []string `yaml:"interfaces"`
		Infrastructure []string `yaml:"infrastructure"`
	} `yaml:"aliases"`
}

// Directory names mapped to layers when the config leaves a layer empty.
// services is the application layer and presentation the interfaces layer.
var (
	defaultDomainAliases         = []string{"domain", "aggregates", "entities"}
	defaultApplicationAliases    = []string{"services"}
	defaultInterfacesAliases     = []string{"presentation", "controllers"}
	defaultInfrastructureAliases = []string{"infrastructure"}
)

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (*config, error) {
	cfg := &config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	return cfg, nil
}

func resolveRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", errors.New("root must not be empty")
	}
	return filepath.Abs(root)
}

func (c *config) layers() map[string]cleanarch.Layer {
	aliases := map[string]cleanarch.Layer{}
	applyAliases(aliases, c.Aliases.Domain, defaultDomainAliases, cleanarch.LayerDomain)
	applyAliases(aliases, c.Aliases.Application, defaultApplicationAliases, cleanarch.LayerApplication)
	applyAliases(aliases, c.Aliases.Interfaces, defaultInterfacesAliases, cleanarch.LayerInterfaces)
	applyAliases(aliases, c.Aliases.Infrastructure, defaultInfrastructureAliases, cleanarch.LayerInfrastructure)
	return aliases
}

func applyAliases(dst map[string]cleanarch.Layer, custom, defaults []string, layer cleanarch.Layer) {
	candidates := defaults
	if len(custom) > 0 {
		candidates = custom
	}
	for _, alias := range candidates {
		if alias = strings.TrimSpace(alias); alias != "" {
			dst[alias] = layer
		}
	}
}

var crossModulePattern = regexp.MustCompile(`between ([\w-]+) and ([\w-]+) modules`)

// filter drops cross-module violations involving a shared module and
// messages containing an allowed pattern.
func (c *config) filter(messages []string) []string {
	shared := make(map[string]struct{}, len(c.SharedModules))
	for _, m := range c.SharedModules {
		if m = strings.TrimSpace(m); m != "" {
			shared[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		if involvesShared(msg, shared) || containsAny(msg, c.AllowedViolations) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func involvesShared(msg string, shared map[string]struct{}) bool {
	if len(shared) == 0 {
		return false
	}
	matches := crossModulePattern.FindStringSubmatch(msg)
	if len(matches) != 3 {
		return false
	}
	_, left := shared[matches[1]]
	_, right := shared[matches[2]]
	return left || right
}

func containsAny(msg string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
