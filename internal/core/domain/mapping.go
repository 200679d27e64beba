package domain

import "time"

// MappingSource records how an artifact-to-control mapping was created.
type MappingSource string

const (
	// MappingAuto means the rule engine created the mapping.
	MappingAuto MappingSource = "auto"
	// MappingManual means an operator assigned the mapping.
	MappingManual MappingSource = "manual"
)

// ControlMapping associates an artifact with a compliance control.
// At most one mapping exists per (ArtifactID, ControlID).
type ControlMapping struct {
	// ID is the unique identifier (UUID).
	ID string

	// ArtifactID links to the EvidenceArtifact.
	ArtifactID string

	// ControlID names the control (e.g. "CC7.1").
	ControlID string

	// Source records auto vs manual provenance.
	Source MappingSource

	// Confidence is in [0,1]. Manual mappings are always 1.0.
	Confidence float64

	// Rationale explains which indicators contributed to the mapping.
	Rationale string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ControlRule configures the auto-mapping heuristics for one control.
type ControlRule struct {
	// ControlID names the control this rule maps evidence to.
	ControlID string

	// Name is the control's display name.
	Name string

	// Description explains what evidence the control requires.
	Description string

	// ArtifactTypes are the evidence types this control requires.
	ArtifactTypes []ArtifactType

	// Keywords are matched case-insensitively against artifact titles and
	// flattened normalised content.
	Keywords []string
}

// RequiresType reports whether the rule requires the given artifact type.
func (r *ControlRule) RequiresType(t ArtifactType) bool {
	for _, rt := range r.ArtifactTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// DefaultControlRules is the built-in Change Management control pack.
// Deployments can replace or extend it via configuration.
func DefaultControlRules() []ControlRule {
	return []ControlRule{
		{
			ControlID:     "CC7.1",
			Name:          "Change Management",
			Description:   "Evidence of defined change management process",
			ArtifactTypes: []ArtifactType{ArtifactPullRequest, ArtifactJiraIssue},
			Keywords:      []string{"change", "release", "deploy", "update"},
		},
		{
			ControlID:     "CC7.2",
			Name:          "Change Testing",
			Description:   "Evidence of changes tested before production",
			ArtifactTypes: []ArtifactType{ArtifactPullRequest, ArtifactCodeReview},
			Keywords:      []string{"test", "review", "approve", "qa"},
		},
		{
			ControlID:     "CC7.3",
			Name:          "Change Approval",
			Description:   "Evidence of management approval for changes",
			ArtifactTypes: []ArtifactType{ArtifactCodeReview, ArtifactJiraIssue},
			Keywords:      []string{"approved", "approval", "authorized"},
		},
	}
}
