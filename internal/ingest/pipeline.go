package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgeworks/agentwizard/internal/domain"
	"github.com/forgeworks/agentwizard/internal/protocol"
)

// sectionTools maps the extraction tool vocabulary to section keys.
var sectionTools = []struct {
	Tool string
	Key  string
}{
	{domain.ToolSubmitCoreClasses, SectionCoreClasses},
	{domain.ToolSubmitKeyFunctions, SectionKeyFunctions},
	{domain.ToolSubmitPitfalls, SectionPitfalls},
	{domain.ToolSubmitRecipes, SectionRecipes},
}

// Pipeline runs one extraction end to end: crawl, distill, finalize. It
// reports progress through the same tool-event discipline as the wizard
// channel, with every tool_start closed by a matching tool_complete.
type Pipeline struct {
	Crawler   Crawler
	Extractor Extractor
}

// NewPipeline wires the default heuristic extractor over crawler.
func NewPipeline(crawler Crawler) *Pipeline {
	return &Pipeline{Crawler: crawler, Extractor: HeuristicExtractor{}}
}

// Run produces the finalized reference document for one package. When
// emit is non-nil, progress events are delivered to it; a nil emit runs
// the pipeline silently for in-wizard use.
func (p *Pipeline) Run(ctx context.Context, packageName, repositoryURL string, emit func(*protocol.ServerEvent)) (string, error) {
	send := func(ev *protocol.ServerEvent) {
		if emit != nil {
			emit(ev)
		}
	}

	send(protocol.Status(fmt.Sprintf("Crawling documentation for %s...", packageName)))
	pages, err := p.Crawler.Crawl(ctx, packageName, repositoryURL)
	if err != nil {
		return "", fmt.Errorf("crawl %s: %w", packageName, err)
	}
	totalChars := 0
	titles := make([]string, 0, len(pages))
	for _, page := range pages {
		totalChars += len(page.Content)
		titles = append(titles, page.Title)
	}
	send(protocol.CrawlComplete(len(pages), totalChars, titles))

	job := NewJob(packageName)
	for _, page := range pages {
		if err := job.AddPage(page); err != nil {
			return "", err
		}
	}

	var consumed []Page
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page, ok := job.NextPage()
		if !ok {
			break
		}
		send(protocol.ToolStart(domain.ToolRequestPage))
		send(protocol.ToolComplete(domain.ToolRequestPage, page.Title))
		consumed = append(consumed, page)
	}

	sections := p.Extractor.Extract(consumed)
	for _, st := range sectionTools {
		send(protocol.ToolStart(st.Tool))
		if err := job.Submit(st.Key, sections[st.Key]); err != nil {
			send(protocol.ToolComplete(st.Tool, "Failed: "+err.Error()))
			return "", err
		}
		done := protocol.ToolComplete(st.Tool, "Section submitted")
		done.SectionsFilled = job.SectionsFilled()
		send(done)
	}

	send(protocol.ToolStart(domain.ToolFinalize))
	doc, err := job.Finalize()
	if errors.Is(err, domain.ErrIncompleteSections) {
		// An extractor that skipped sections still yields a document.
		job.FillPlaceholders()
		doc, err = job.Finalize()
	}
	if err != nil {
		send(protocol.ToolComplete(domain.ToolFinalize, "Failed: "+err.Error()))
		return "", err
	}
	send(protocol.ToolComplete(domain.ToolFinalize, fmt.Sprintf("Assembled %d sections", len(sectionTools))))
	return doc, nil
}

// Runner adapts the pipeline to the wizard's in-session ingest tool.
type Runner struct {
	Pipeline *Pipeline
}

// Ingest runs the pipeline silently and returns the document.
func (r *Runner) Ingest(ctx context.Context, packageName, repositoryURL string) (string, error) {
	return r.Pipeline.Run(ctx, packageName, repositoryURL, nil)
}
