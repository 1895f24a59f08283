// Package planner composes the full planning pipeline: requirement
// extraction, topology planning, code generation, confidence scoring, and
// narration. It is stateless; every call builds a fresh response.
package planner

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"infra-planner/internal/codegen"
	"infra-planner/internal/extract"
	"infra-planner/internal/narrate"
	"infra-planner/internal/pricing"
	"infra-planner/internal/topology"
	"infra-planner/pkg/api"
	"infra-planner/pkg/confidence"
)

// Service runs the planning pipeline against a pricing catalog snapshot.
type Service struct {
	pricing   *pricing.Holder
	extractor *extract.Extractor
	generator *codegen.Generator
	narrator  *narrate.Narrator
	logger    *slog.Logger
}

// NewService creates a planning service. The holder supplies the pricing
// catalog snapshot used for each run, so catalog reloads take effect on the
// next call without interrupting in-flight plans.
func NewService(holder *pricing.Holder, logger *slog.Logger) *Service {
	return &Service{
		pricing:   holder,
		extractor: extract.NewExtractor(),
		generator: codegen.NewGenerator(),
		narrator:  narrate.NewNarrator(),
		logger:    logger,
	}
}

// Plan turns free-text requirements into a full planning response. It never
// fails for well-formed string input: ambiguity becomes defaults and low
// confidence, infeasible budgets become a flagged estimate. Only a structural
// planner bug (a cyclic topology reaching the generator) returns an error.
func (s *Service) Plan(requestText, sessionID string) (*api.PlanningResponse, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	profile := s.extractor.Extract(requestText)

	trace := &api.ReasoningTrace{}
	defaulted := extract.DefaultedFields(profile)
	if len(defaulted) > 0 {
		trace.Append(fmt.Sprintf("Applied documented defaults for unspecified fields: %s.",
			strings.Join(defaulted, ", ")))
	}

	catalog := s.pricing.Catalog()
	result, err := topology.NewPlanner(catalog).PlanTopology(profile, trace)
	if err != nil {
		return nil, err
	}

	artifacts, err := s.generator.Generate(result.Topology)
	if err != nil {
		return nil, err
	}

	score := Score(profile, result)
	narrative := s.narrator.Narrate(profile, result, trace, defaulted)

	if !confidence.AboveThreshold(score, lowConfidenceThreshold) {
		s.logger.Warn("low confidence plan",
			"session_id", sessionID,
			"confidence", score,
			"defaulted_fields", defaulted,
		)
	}
	s.logger.Info("plan complete",
		"session_id", sessionID,
		"pattern", string(result.Pattern),
		"nodes", len(result.Topology.Nodes),
		"total_cost", result.Cost.Total.String(),
		"budget_exceeded", result.Topology.BudgetExceeded,
		"confidence", score,
	)

	return &api.PlanningResponse{
		Content:             narrative.Content,
		Confidence:          score,
		CostEstimate:        result.Cost.Total,
		TerraformCode:       artifacts,
		ReasoningSteps:      narrative.ReasoningSteps,
		ImplementationSteps: narrative.ImplementationSteps,
		SessionID:           sessionID,
	}, nil
}

// PlanTopologyOnly runs extraction and topology planning without generating
// artifacts. The graph and pricing CLI commands use this to inspect plans.
func (s *Service) PlanTopologyOnly(requestText string) (api.RequirementProfile, *topology.Result, error) {
	profile := s.extractor.Extract(requestText)
	trace := &api.ReasoningTrace{}
	result, err := topology.NewPlanner(s.pricing.Catalog()).PlanTopology(profile, trace)
	if err != nil {
		return api.RequirementProfile{}, nil, err
	}
	return profile, result, nil
}
