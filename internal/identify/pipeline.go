// Package identify runs the identification pipeline: classify a photo,
// enrich the ranked candidates from the knowledge base, ask the
// identification service for healing properties of the top candidate, and
// generate a persona narrative for it. Enrichment and persona generation
// are optional stages wired in by configuration.
package identify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/verdantlab/papabois/internal/metrics"
	"github.com/verdantlab/papabois/internal/persona"
	"github.com/verdantlab/papabois/internal/plantid"
)

// At most this many ranked candidates are kept per identification.
const MaxCandidates = 3

const healingQuestion = "What are the traditional medicinal and healing properties of this plant?"

// Candidate is one ranked species with whatever enrichment succeeded.
// Detail fields stay empty when a best-effort stage fails.
type Candidate struct {
	Name              string
	Confidence        float64
	CommonNames       []string
	Description       string
	HealingProperties string
	Persona           string
}

// Result is the outcome of one successful pipeline run.
type Result struct {
	Candidates []Candidate
}

// Top returns the highest-ranked candidate.
func (r *Result) Top() *Candidate {
	if len(r.Candidates) == 0 {
		return nil
	}
	return &r.Candidates[0]
}

// Identifier is the subset of the identification service used by the
// pipeline.
type Identifier interface {
	Identify(ctx context.Context, imagePath string) (*plantid.Identification, error)
	AskQuestion(ctx context.Context, identificationToken, question string) (string, error)
}

// Pipeline orchestrates identification and the optional enrichment stages.
type Pipeline struct {
	identifier Identifier
	kb         plantid.KnowledgeBase // nil when KB enrichment is disabled
	persona    persona.Client        // nil when persona generation is disabled
	log        *slog.Logger
}

// New creates a pipeline. kb and personaClient may be nil to disable the
// corresponding stage.
func New(identifier Identifier, kb plantid.KnowledgeBase, personaClient persona.Client, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		identifier: identifier,
		kb:         kb,
		persona:    personaClient,
		log:        log.With("component", "identify_pipeline"),
	}
}

// Run identifies the photo at imagePath and enriches the result. Only the
// identification step can fail the run; the enrichment stages degrade to
// partial results and the persona stage degrades to a placeholder string.
func (p *Pipeline) Run(ctx context.Context, imagePath string) (*Result, error) {
	ident, err := p.identifier.Identify(ctx, imagePath)
	if err != nil {
		metrics.IdentificationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	suggestions := ident.Suggestions
	if len(suggestions) > MaxCandidates {
		suggestions = suggestions[:MaxCandidates]
	}

	result := &Result{Candidates: make([]Candidate, 0, len(suggestions))}
	for _, s := range suggestions {
		candidate := Candidate{
			Name:       s.Name,
			Confidence: s.Probability,
		}
		p.enrichFromKB(ctx, &candidate)
		result.Candidates = append(result.Candidates, candidate)
	}

	if top := result.Top(); top != nil {
		p.askHealingProperties(ctx, ident.AccessToken, top)
		p.generatePersona(ctx, top)
	}

	metrics.IdentificationsTotal.WithLabelValues("success").Inc()
	return result, nil
}

// enrichFromKB is best effort: failures are logged and the candidate keeps
// its empty detail fields.
func (p *Pipeline) enrichFromKB(ctx context.Context, candidate *Candidate) {
	if p.kb == nil {
		return
	}

	detail, err := p.kb.LookupSpecies(ctx, candidate.Name)
	if err != nil {
		if !errors.Is(err, plantid.ErrNoKBEntity) {
			metrics.UpstreamFailures.WithLabelValues("knowledge_base").Inc()
		}
		p.log.WarnContext(ctx, "Knowledge base lookup failed, continuing without details",
			"species", candidate.Name, "error", err)
		return
	}

	candidate.CommonNames = detail.CommonNames
	candidate.Description = detail.Description
}

// askHealingProperties queries the identification service's conversation
// endpoint for the top candidate. Best effort.
func (p *Pipeline) askHealingProperties(ctx context.Context, identificationToken string, top *Candidate) {
	if identificationToken == "" {
		return
	}

	answer, err := p.identifier.AskQuestion(ctx, identificationToken, healingQuestion)
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("identification_conversation").Inc()
		p.log.WarnContext(ctx, "Healing properties question failed, continuing without",
			"species", top.Name, "error", err)
		return
	}
	top.HealingProperties = answer
}

// generatePersona fills the top candidate's persona, substituting a fixed
// placeholder on any failure so the overall reply never breaks here.
func (p *Pipeline) generatePersona(ctx context.Context, top *Candidate) {
	if p.persona == nil {
		return
	}

	text, err := p.persona.GeneratePersona(ctx, persona.PlantInfo{
		Name:              top.Name,
		CommonNames:       top.CommonNames,
		Description:       top.Description,
		HealingProperties: top.HealingProperties,
	})
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("persona").Inc()
		p.log.ErrorContext(ctx, "Persona generation failed, using placeholder",
			"species", top.Name, "error", err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			top.Persona = persona.PlaceholderVeiledWisdom
		} else {
			top.Persona = persona.PlaceholderQuietSpirits
		}
		return
	}
	top.Persona = text
}
