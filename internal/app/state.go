// Package app holds the per-identity application state and the service
// that moves it between signed-out, signed-in and updated.
package app

import (
	"github.com/terra-clan/aptitude-engine/internal/models"
	"github.com/terra-clan/aptitude-engine/internal/scoring"
)

// State is an immutable snapshot of one identity's application state.
// Every operation returns a new State and leaves the receiver untouched.
// The zero value is the signed-out state.
type State struct {
	identityID string
	identity   *models.Identity
	profile    *models.Profile
	scores     []models.ScoreEntry
}

// Login returns the signed-in state for an identity
func (s State) Login(identityID string, identity *models.Identity, profile *models.Profile, scores []models.ScoreEntry) State {
	return State{
		identityID: identityID,
		identity:   copyIdentity(identity),
		profile:    copyProfile(profile),
		scores:     append([]models.ScoreEntry{}, scores...),
	}
}

// Logout returns the signed-out state
func (s State) Logout() State {
	return State{}
}

// AddScore returns a state with entry appended to the history
func (s State) AddScore(entry models.ScoreEntry) State {
	scores := make([]models.ScoreEntry, 0, len(s.scores)+1)
	scores = append(scores, s.scores...)
	s.scores = append(scores, entry)
	return s
}

// UpdateProfile returns a state carrying p as its profile
func (s State) UpdateProfile(p *models.Profile) State {
	s.profile = copyProfile(p)
	return s
}

// SignedIn reports whether the state belongs to an identity
func (s State) SignedIn() bool {
	return s.identityID != ""
}

// IdentityID returns the owner of the state, empty when signed out
func (s State) IdentityID() string {
	return s.identityID
}

// Identity returns a copy of the identity, nil when not known
func (s State) Identity() *models.Identity {
	return copyIdentity(s.identity)
}

// Profile returns a copy of the profile, nil when not loaded
func (s State) Profile() *models.Profile {
	return copyProfile(s.profile)
}

// Scores returns a copy of the score history
func (s State) Scores() []models.ScoreEntry {
	return append([]models.ScoreEntry{}, s.scores...)
}

// Summary aggregates the score history
func (s State) Summary() scoring.Summary {
	return scoring.Summarize(s.scores)
}

// Best returns the personal best percentage for a topic and difficulty
func (s State) Best(topicID string, difficulty models.Difficulty) float64 {
	return scoring.PersonalBest(s.scores, topicID, difficulty)
}

func copyIdentity(i *models.Identity) *models.Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

func copyProfile(p *models.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Skills = append([]string{}, p.Skills...)
	c.Experience = append([]string{}, p.Experience...)
	if p.Certifications != nil {
		c.Certifications = append([]string{}, p.Certifications...)
	}
	if p.Achievements != nil {
		c.Achievements = append([]string{}, p.Achievements...)
	}
	if p.AcademicAchievements != nil {
		c.AcademicAchievements = append([]string{}, p.AcademicAchievements...)
	}
	if p.Projects != nil {
		c.Projects = append([]models.Project{}, p.Projects...)
	}
	return &c
}
