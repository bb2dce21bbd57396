package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/forgeworks/agentwizard/internal/domain"
)

func TestPublicGateDeniesFullstack(t *testing.T) {
	gate := Default(true)

	if err := gate.CheckOutputMode(domain.OutputFullstack); !errors.Is(err, domain.ErrCapabilityDenied) {
		t.Errorf("Expected ErrCapabilityDenied for fullstack, got %v", err)
	}
	if err := gate.CheckOutputMode(domain.OutputMarkdown); err != nil {
		t.Errorf("Expected markdown allowed, got %v", err)
	}
	if err := gate.CheckOutputMode(domain.OutputCopilotAgent); err != nil {
		t.Errorf("Expected copilot_agent allowed, got %v", err)
	}
}

func TestPublicGateDeniesPrivilegedTools(t *testing.T) {
	gate := Default(true)

	for _, name := range []string{domain.ToolInstallPackages, domain.ToolLaunchAgent} {
		if err := gate.CheckTool(name); !errors.Is(err, domain.ErrCapabilityDenied) {
			t.Errorf("Expected ErrCapabilityDenied for %s, got %v", name, err)
		}
	}
	if err := gate.CheckTool("search_packages"); err != nil {
		t.Errorf("Expected search_packages allowed, got %v", err)
	}
	if gate.FreeformAllowed() {
		t.Error("Expected freeform chat disabled in public mode")
	}
}

func TestFullGateAllowsEverything(t *testing.T) {
	gate := Default(false)

	if err := gate.CheckOutputMode(domain.OutputFullstack); err != nil {
		t.Errorf("Expected fullstack allowed, got %v", err)
	}
	if err := gate.CheckTool(domain.ToolInstallPackages); err != nil {
		t.Errorf("Expected install allowed, got %v", err)
	}
	if !gate.FreeformAllowed() {
		t.Error("Expected freeform chat enabled in full mode")
	}
}

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := "mode: public\noutput_modes:\n  - markdown\ndenied_tools:\n  - install_packages\n  - launch_agent\n  - analyze_data\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}

	gate, err := Load(path, false)
	if err != nil {
		t.Fatalf("Failed to load policy: %v", err)
	}
	if !gate.Public() {
		t.Error("Expected file mode to override caller flag")
	}
	if err := gate.CheckOutputMode(domain.OutputCopilotAgent); !errors.Is(err, domain.ErrCapabilityDenied) {
		t.Errorf("Expected copilot_agent denied by narrowed policy, got %v", err)
	}
	if err := gate.CheckTool("analyze_data"); !errors.Is(err, domain.ErrCapabilityDenied) {
		t.Errorf("Expected analyze_data denied, got %v", err)
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("mode: sandbox\n"), 0o644); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}
	if _, err := Load(path, false); err == nil {
		t.Error("Expected error for unknown policy mode")
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	gate, err := Load("", true)
	if err != nil {
		t.Fatalf("Expected default gate, got error: %v", err)
	}
	modes := gate.AllowedModes()
	if len(modes) != 2 {
		t.Errorf("Expected 2 allowed modes in public default, got %v", modes)
	}
}
