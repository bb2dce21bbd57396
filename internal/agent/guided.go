package agent

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/forgeworks/agentwizard/internal/domain"
)

// GuidedDriver is a deterministic, rule-based driver that walks the
// fixed wizard workflow without a language model: acknowledge, discover,
// recommend, confirm, fetch docs, identity, output mode, generate. It is
// the default backend for guided deployments and the reference driver
// for tests.
type GuidedDriver struct {
	state *domain.Session
	modes []domain.OutputMode

	// asked tracks which in-stage question this driver is waiting on,
	// so a resume turn can tell "just asked" from "just answered".
	asked string
}

// GuidedFactory returns a Factory producing GuidedDrivers that offer the
// given output modes when asking the output-mode question.
func GuidedFactory(modes []domain.OutputMode) Factory {
	return func(state *domain.Session) Driver {
		return &GuidedDriver{state: state, modes: modes}
	}
}

// Stream runs one turn of the guided flow: it keeps invoking tools until
// a question suspends the session or the workflow completes.
func (d *GuidedDriver) Stream(ctx context.Context, prompt string, exec ToolExecutor) iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		if d.state.Stage == domain.StageAcknowledge {
			if !yield(&Event{Text: d.acknowledgement()}, nil) {
				return
			}
		}
		for !d.state.Stage.Terminal() {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}
			stop, err := d.step(ctx, exec, yield)
			if errors.Is(err, ErrAwaitInput) {
				return
			}
			if err != nil {
				// Recoverable tool failures are surfaced by the
				// orchestrator; end the turn rather than loop on them.
				slog.Debug("Guided driver turn aborted", "stage", d.state.Stage.String(), "error", err)
				return
			}
			if stop {
				return
			}
		}
		yield(&Event{Text: "All done! Your agent configuration is ready to download."}, nil)
	}
}

// step performs the next action for the current stage. It returns true
// when the turn should end without further tool calls.
func (d *GuidedDriver) step(ctx context.Context, exec ToolExecutor, yield func(*Event, error) bool) (bool, error) {
	s := d.state
	switch s.Stage {
	case domain.StageAcknowledge, domain.StageDiscover:
		kw := d.keywords()
		if d.asked == "keywords" && len(s.LastAnswer) > 0 {
			d.asked = ""
			if answered := splitKeywords(s.LastAnswer); len(answered) > 0 {
				kw = answered
			}
		}
		if _, err := exec.Execute(ctx, domain.ToolSearchPackages, map[string]any{
			"keywords": kw,
		}); err != nil {
			// A miss must not strand a guided session: ask for fresh
			// keywords instead of ending the turn with only an error.
			d.asked = "keywords"
			_, qerr := exec.Execute(ctx, domain.ToolPresentQuestion, map[string]any{
				"question":       "I couldn't find any packages for those terms. What keywords should I search for instead?",
				"allow_freetext": true,
				"max_length":     200,
			})
			return false, qerr
		}
		return false, nil

	case domain.StageRecommend:
		if _, err := exec.Execute(ctx, domain.ToolShowRecommended, nil); err != nil {
			return false, err
		}
		options := make([]string, 0, len(s.Candidates))
		for _, c := range s.Candidates {
			options = append(options, c.Name)
		}
		d.asked = "packages"
		_, err := exec.Execute(ctx, domain.ToolPresentQuestion, map[string]any{
			"question":       "Which of these packages should your agent build on?",
			"options":        options,
			"allow_multiple": true,
			"allow_freetext": true,
			"max_length":     200,
		})
		return false, err

	case domain.StageConfirm:
		_, err := exec.Execute(ctx, domain.ToolConfirmPackages, map[string]any{
			"selected_names": s.LastAnswer,
		})
		return false, err

	case domain.StageFetchDocs:
		if !yield(&Event{Text: "Fetching reference documentation for your packages...\n"}, nil) {
			return true, nil
		}
		_, err := exec.Execute(ctx, domain.ToolFetchDocs, nil)
		return false, err

	case domain.StageIdentity:
		if d.asked == "identity" && len(s.LastAnswer) > 0 {
			name := s.LastAnswer[0]
			d.asked = ""
			_, err := exec.Execute(ctx, domain.ToolSetIdentity, map[string]any{
				"name":         slugify(name),
				"display_name": name,
				"description":  fmt.Sprintf("An assistant for %s built around %d curated packages.", s.DomainDescription, len(s.Confirmed)),
			})
			return false, err
		}
		d.asked = "identity"
		_, err := exec.Execute(ctx, domain.ToolPresentQuestion, map[string]any{
			"question":       "What should your agent be called?",
			"allow_freetext": true,
			"max_length":     60,
		})
		return false, err

	case domain.StageOutputMode:
		if d.asked == "output_mode" && len(s.LastAnswer) > 0 {
			mode := s.LastAnswer[0]
			d.asked = ""
			_, err := exec.Execute(ctx, domain.ToolSetOutputMode, map[string]any{
				"mode": mode,
			})
			return false, err
		}
		options := make([]string, 0, len(d.modes))
		for _, m := range d.modes {
			options = append(options, string(m))
		}
		d.asked = "output_mode"
		_, err := exec.Execute(ctx, domain.ToolPresentQuestion, map[string]any{
			"question": "How should the agent be delivered?",
			"options":  options,
		})
		return false, err

	case domain.StageGenerate:
		_, err := exec.Execute(ctx, domain.ToolGenerate, nil)
		return false, err
	}
	return true, nil
}

func (d *GuidedDriver) acknowledgement() string {
	desc := strings.TrimSpace(d.state.DomainDescription)
	if desc == "" {
		return "Let's build your agent. I'll start by looking for relevant packages.\n"
	}
	return fmt.Sprintf("Let's build an agent for %s. I'll start by searching for relevant packages.\n", desc)
}

// keywords derives search keywords from the intake form, preferring
// explicit hints over words mined from the domain description.
func (d *GuidedDriver) keywords() []string {
	s := d.state
	seen := make(map[string]struct{})
	var out []string
	add := func(words ...string) {
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	add(s.KnownPackages...)
	add(s.DataTypes...)
	for _, w := range strings.Fields(s.DomainDescription) {
		if len(out) >= 8 {
			break
		}
		w = strings.Trim(w, ".,;:\"'()")
		if len(w) >= 5 {
			add(w)
		}
	}
	if len(out) == 0 {
		add("analysis")
	}
	return out
}

// splitKeywords turns an answered keyword line into search terms,
// splitting on commas.
func splitKeywords(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '_', r == '-':
			return '-'
		}
		return -1
	}, slug)
	return strings.Trim(slug, "-")
}
