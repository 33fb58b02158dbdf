package models

import (
	"time"
)

// Profile holds the personal and résumé details of an identity
type Profile struct {
	IdentityID           string    `json:"-"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	Phone                string    `json:"phone"`
	Education            string    `json:"education"`
	Skills               []string  `json:"skills"`
	Experience           []string  `json:"experience"`
	PhotoURL             string    `json:"photoUrl,omitempty"`
	HSCPercentage        string    `json:"hscPercentage,omitempty"`
	SSLCPercentage       string    `json:"sslcPercentage,omitempty"`
	Certifications       []string  `json:"certifications,omitempty"`
	Projects             []Project `json:"projects,omitempty"`
	Achievements         []string  `json:"achievements,omitempty"`
	AcademicAchievements []string  `json:"academicAchievements,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Project is a résumé project entry
type Project struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies,omitempty"`
}

// ProfileUpdate is a partial profile edit; nil fields are left unchanged
type ProfileUpdate struct {
	Name                 *string    `json:"name,omitempty"`
	Phone                *string    `json:"phone,omitempty"`
	Education            *string    `json:"education,omitempty"`
	Skills               *[]string  `json:"skills,omitempty"`
	Experience           *[]string  `json:"experience,omitempty"`
	PhotoURL             *string    `json:"photoUrl,omitempty"`
	HSCPercentage        *string    `json:"hscPercentage,omitempty"`
	SSLCPercentage       *string    `json:"sslcPercentage,omitempty"`
	Certifications       *[]string  `json:"certifications,omitempty"`
	Projects             *[]Project `json:"projects,omitempty"`
	Achievements         *[]string  `json:"achievements,omitempty"`
	AcademicAchievements *[]string  `json:"academicAchievements,omitempty"`
}

// Apply returns a copy of p with the non-nil fields of u applied
func (p Profile) Apply(u ProfileUpdate) Profile {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Education != nil {
		p.Education = *u.Education
	}
	if u.Skills != nil {
		p.Skills = cloneStrings(*u.Skills)
	}
	if u.Experience != nil {
		p.Experience = cloneStrings(*u.Experience)
	}
	if u.PhotoURL != nil {
		p.PhotoURL = *u.PhotoURL
	}
	if u.HSCPercentage != nil {
		p.HSCPercentage = *u.HSCPercentage
	}
	if u.SSLCPercentage != nil {
		p.SSLCPercentage = *u.SSLCPercentage
	}
	if u.Certifications != nil {
		p.Certifications = cloneStrings(*u.Certifications)
	}
	if u.Projects != nil {
		p.Projects = append([]Project(nil), (*u.Projects)...)
	}
	if u.Achievements != nil {
		p.Achievements = cloneStrings(*u.Achievements)
	}
	if u.AcademicAchievements != nil {
		p.AcademicAchievements = cloneStrings(*u.AcademicAchievements)
	}
	return p
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}
