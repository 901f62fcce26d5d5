package services

import (
	"strings"

	"github.com/rendezvous-csd/rendezvous-api/config"
	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	apperrors "github.com/rendezvous-csd/rendezvous-api/pkg/errors"
)

type classificationRule struct {
	marker string
	role   models.Role
}

func (r classificationRule) matches(email string) bool {
	return strings.Contains(email, r.marker)
}

// Classifier maps an identity claim to a role. Rules are tried in order and the
// first match wins, so a claim carrying both the TA and the student marker is a TA.
// A claim matching no rule belongs to a teacher.
type Classifier struct {
	rules []classificationRule
}

// NewClassifier builds the rule list: administrator, teaching assistant, student
func NewClassifier(markers config.RoleMarkerConfig) *Classifier {
	return &Classifier{
		rules: []classificationRule{
			{marker: markers.AdminMarker, role: models.RoleAdministrator},
			{marker: markers.TAMarker, role: models.RoleTeachingAssistant},
			{marker: markers.StudentMarker, role: models.RoleStudent},
		},
	}
}

// Classify returns the role for email. An empty claim is a usage error.
func (c *Classifier) Classify(email string) (models.Classification, error) {
	if email == "" {
		return models.Classification{}, apperrors.ValidationError("email", "is required")
	}

	for _, rule := range c.rules {
		if rule.matches(email) {
			return models.Classification{Role: rule.role, Email: email}, nil
		}
	}

	return models.Classification{Role: models.RoleTeacher, Email: email}, nil
}
