package model

import "time"

// Quality is the response-quality score breakdown, every field in [0,1].
type Quality struct {
	Length       float64
	Completeness float64
	Specificity  float64
	Coherence    float64
	CodeQuality  float64 // only meaningful when HasCode is true
	HasCode      bool
	Overall      float64
}

// ConsensusTheme records a shared architecture term appearing in two or
// more responses, and which agents contributed it.
type ConsensusTheme struct {
	Term   string
	Agents []string
}

// ConflictAnalysis is the result of comparing all pairs of successful
// responses for disagreement.
type ConflictAnalysis struct {
	HasCodeConflicts     bool
	HasApproachConflicts bool
	Consensus            []ConsensusTheme
}

// HasConflicts reports whether any conflict signal fired.
func (c ConflictAnalysis) HasConflicts() bool {
	return c.HasCodeConflicts || c.HasApproachConflicts
}

// PerformanceMetrics summarizes the timing of a multi-agent execution for
// the aggregator's structured output.
type PerformanceMetrics struct {
	TotalAgents          int
	SuccessfulAgents     int
	TotalExecutionTimeMs int64
	AggregationOverheadMs int64
}

// StructuredPrimary is the primary entry of the serialization-stable
// structured output.
type StructuredPrimary struct {
	Agent           string
	Confidence      Confidence
	Content         string
	Quality         float64
	ExecutionTimeMs int64
}

// StructuredSupporting is one supporting entry of the structured output.
type StructuredSupporting struct {
	Agent           string
	Confidence      Confidence
	Content         string
	Quality         float64
	ExecutionTimeMs int64
}

// StructuredAnalysis carries the aggregator's derived analysis fields.
type StructuredAnalysis struct {
	RecommendationStrength float64
	Consensus              []string
	Conflicts              []string
	Performance            PerformanceMetrics
}

// StructuredMetadata carries provenance for the structured output.
type StructuredMetadata struct {
	Strategy         string
	Timestamp        time.Time
	Query            string
	ProcessingTimeMs int64
}

// StructuredResponse is the aggregator's serialization-stable output
// record, versioned so downstream consumers can detect shape changes.
type StructuredResponse struct {
	Version    string
	Primary    StructuredPrimary
	Supporting []StructuredSupporting
	Analysis   StructuredAnalysis
	Metadata   StructuredMetadata
}

// AggregatedResponse is the ResultAggregator's output: one primary answer,
// ranked supporting answers, and the analysis that justifies the choice.
type AggregatedResponse struct {
	Primary                Response
	Supporting             []Response
	Confidence             Confidence
	Summary                string
	Alternatives           []Alternative
	PrimaryQuality         Quality
	SupportingQualities    []Quality
	ConflictAnalysis       ConflictAnalysis
	PerformanceMetrics     PerformanceMetrics
	RecommendationStrength float64
	AggregationMetadata    map[string]any
	Structured             StructuredResponse
}
