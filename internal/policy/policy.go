// Package policy implements the deployment capability gate: which output
// modes and which privileged tools a session may reach. The gate is
// parameterized once per deployment and consulted before accepting an
// output mode answer and before dispatching any tool call by name. A
// disallowed selection fails closed with ErrCapabilityDenied rather than
// silently downgrading.
package policy

import (
	"fmt"
	"os"

	"github.com/forgeworks/agentwizard/internal/domain"
	"gopkg.in/yaml.v3"
)

// Gate restricts output modes, tools, and freeform chat for a deployment.
type Gate struct {
	public        bool
	allowedModes  map[domain.OutputMode]struct{}
	deniedTools   map[string]struct{}
	allowFreeform bool
}

// fileConfig is the YAML shape of a policy file.
type fileConfig struct {
	Mode          string   `yaml:"mode"`
	OutputModes   []string `yaml:"output_modes"`
	DeniedTools   []string `yaml:"denied_tools"`
	AllowFreeform *bool    `yaml:"allow_freeform"`
}

// Default returns the built-in gate for the given deployment context.
// Public deployments allow only {markdown, copilot_agent} and always deny
// the install/launch tools and freeform chat.
func Default(public bool) *Gate {
	if !public {
		return &Gate{
			allowedModes: map[domain.OutputMode]struct{}{
				domain.OutputFullstack:    {},
				domain.OutputCopilotAgent: {},
				domain.OutputMarkdown:     {},
			},
			deniedTools:   map[string]struct{}{},
			allowFreeform: true,
		}
	}
	return &Gate{
		public: true,
		allowedModes: map[domain.OutputMode]struct{}{
			domain.OutputCopilotAgent: {},
			domain.OutputMarkdown:     {},
		},
		deniedTools: map[string]struct{}{
			domain.ToolInstallPackages: {},
			domain.ToolLaunchAgent:     {},
		},
	}
}

// Load reads a policy file, falling back to Default(public) when path is
// empty. Fields omitted from the file keep the default for its mode.
func Load(path string, public bool) (*Gate, error) {
	if path == "" {
		return Default(public), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	switch cfg.Mode {
	case "public":
		public = true
	case "full":
		public = false
	case "":
		// keep the caller's flag
	default:
		return nil, fmt.Errorf("policy mode must be \"public\" or \"full\", got %q", cfg.Mode)
	}

	gate := Default(public)
	if len(cfg.OutputModes) > 0 {
		gate.allowedModes = make(map[domain.OutputMode]struct{}, len(cfg.OutputModes))
		for _, raw := range cfg.OutputModes {
			mode, err := domain.ParseOutputMode(raw)
			if err != nil {
				return nil, fmt.Errorf("policy output_modes: %w", err)
			}
			gate.allowedModes[mode] = struct{}{}
		}
	}
	if cfg.DeniedTools != nil {
		gate.deniedTools = make(map[string]struct{}, len(cfg.DeniedTools))
		for _, name := range cfg.DeniedTools {
			gate.deniedTools[name] = struct{}{}
		}
	}
	if cfg.AllowFreeform != nil {
		gate.allowFreeform = *cfg.AllowFreeform
	}
	return gate, nil
}

// Public reports whether this is a restricted deployment.
func (g *Gate) Public() bool {
	return g.public
}

// CheckOutputMode returns ErrCapabilityDenied when mode is outside the
// allowed set.
func (g *Gate) CheckOutputMode(mode domain.OutputMode) error {
	if _, ok := g.allowedModes[mode]; !ok {
		return fmt.Errorf("output mode %q: %w", mode, domain.ErrCapabilityDenied)
	}
	return nil
}

// CheckTool returns ErrCapabilityDenied when the named tool is denied in
// this deployment.
func (g *Gate) CheckTool(name string) error {
	if _, ok := g.deniedTools[name]; ok {
		return fmt.Errorf("tool %q: %w", name, domain.ErrCapabilityDenied)
	}
	return nil
}

// FreeformAllowed reports whether freeform chat messages are accepted.
func (g *Gate) FreeformAllowed() bool {
	return g.allowFreeform
}

// AllowedModes returns the allowed output modes for UI presentation.
func (g *Gate) AllowedModes() []domain.OutputMode {
	out := make([]domain.OutputMode, 0, len(g.allowedModes))
	for _, m := range []domain.OutputMode{domain.OutputMarkdown, domain.OutputCopilotAgent, domain.OutputFullstack} {
		if _, ok := g.allowedModes[m]; ok {
			out = append(out, m)
		}
	}
	return out
}
