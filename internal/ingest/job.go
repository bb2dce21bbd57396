// Package ingest implements the deep API-extraction pipeline: crawl a
// package's documentation, distill it into four fixed sections, and
// finalize a single reference document. The pipeline mirrors the wizard's
// tool discipline with its own small tool vocabulary.
package ingest

import (
	"fmt"
	"strings"

	"github.com/forgeworks/agentwizard/internal/domain"
)

// Section keys of the extraction document, in output order.
const (
	SectionCoreClasses  = "core-classes"
	SectionKeyFunctions = "key-functions"
	SectionPitfalls     = "pitfalls"
	SectionRecipes      = "recipes"
)

// sectionTitles is the fixed table of contents of a finalized document.
var sectionTitles = []struct {
	Key   string
	Title string
}{
	{SectionCoreClasses, "Core Classes"},
	{SectionKeyFunctions, "Key Functions"},
	{SectionPitfalls, "Common Pitfalls"},
	{SectionRecipes, "Recipes"},
}

// Page is one crawled documentation page.
type Page struct {
	Title   string
	URL     string
	Content string
}

// Job accumulates crawled pages and submitted sections for one package,
// then finalizes them into a single markdown document. Finalize succeeds
// at most once; a Job is confined to its pipeline goroutine.
type Job struct {
	PackageName string

	pages     []Page
	served    int
	sections  map[string]string
	finalized bool
}

// NewJob starts an empty extraction job.
func NewJob(packageName string) *Job {
	return &Job{
		PackageName: packageName,
		sections:    make(map[string]string, len(sectionTitles)),
	}
}

// AddPage queues a crawled page for extraction. Pages are only accepted
// while the document is still open.
func (j *Job) AddPage(p Page) error {
	if j.finalized {
		return domain.ErrAlreadyFinalized
	}
	j.pages = append(j.pages, p)
	return nil
}

// Pages returns all queued pages.
func (j *Job) Pages() []Page {
	return j.pages
}

// NextPage serves queued pages one at a time, returning false when the
// crawl material is exhausted.
func (j *Job) NextPage() (Page, bool) {
	if j.served >= len(j.pages) {
		return Page{}, false
	}
	p := j.pages[j.served]
	j.served++
	return p, true
}

// Submit records one section's distilled markdown. Resubmitting a key
// before finalize overwrites the previous content; after finalize the
// document is immutable.
func (j *Job) Submit(key, markdown string) error {
	if j.finalized {
		return domain.ErrAlreadyFinalized
	}
	if !validSection(key) {
		return fmt.Errorf("section %q: %w", key, domain.ErrUnknownSectionKey)
	}
	j.sections[key] = markdown
	return nil
}

// SectionsFilled lists the submitted section keys in document order.
func (j *Job) SectionsFilled() []string {
	var out []string
	for _, s := range sectionTitles {
		if _, ok := j.sections[s.Key]; ok {
			out = append(out, s.Key)
		}
	}
	return out
}

// Missing lists the section keys still unsubmitted, in document order.
func (j *Job) Missing() []string {
	var out []string
	for _, s := range sectionTitles {
		if _, ok := j.sections[s.Key]; !ok {
			out = append(out, s.Key)
		}
	}
	return out
}

// FillPlaceholders marks every missing section as explicitly empty so a
// stalled extraction can still finalize a usable document.
func (j *Job) FillPlaceholders() {
	if j.finalized {
		return
	}
	for _, key := range j.Missing() {
		j.sections[key] = "_No material was extracted for this section._"
	}
}

// Finalize assembles the document. It fails with ErrIncompleteSections
// while any section is missing, leaving the job open; it succeeds exactly
// once, after which every further call fails with ErrAlreadyFinalized.
func (j *Job) Finalize() (string, error) {
	if j.finalized {
		return "", domain.ErrAlreadyFinalized
	}
	if missing := j.Missing(); len(missing) > 0 {
		return "", fmt.Errorf("sections %s: %w", strings.Join(missing, ", "), domain.ErrIncompleteSections)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s — API Reference\n\n## Contents\n\n", j.PackageName)
	for i, s := range sectionTitles {
		fmt.Fprintf(&b, "%d. [%s](#%s)\n", i+1, s.Title, anchor(s.Title))
	}
	for _, s := range sectionTitles {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", s.Title, strings.TrimSpace(j.sections[s.Key]))
	}
	j.finalized = true
	return b.String(), nil
}

// Finalized reports whether the document has been produced.
func (j *Job) Finalized() bool {
	return j.finalized
}

func validSection(key string) bool {
	for _, s := range sectionTitles {
		if s.Key == key {
			return true
		}
	}
	return false
}

func anchor(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}
