package schema

import (
	"strings"
	"testing"
)

func fullResume() *Resume {
	r := &Resume{
		PersonalInfo: PersonalInfo{
			FullName: "Jane Roe",
			Email:    "jane@example.com",
			Phone:    "555-0100",
			Location: "Berlin",
			Summary:  "Backend engineer.",
		},
		Experience: []Experience{
			{Company: "Acme", Position: "Engineer", StartDate: "2020-01-01"},
			{Company: "Initech", Position: "Senior Engineer", StartDate: "2022-03-01"},
			{Company: "Globex", Position: "Staff Engineer", StartDate: "2023-06-01"},
			{Company: "Umbrella", Position: "Lead", StartDate: "2024-02-01"},
		},
		Education: []Education{
			{Institution: "TU Berlin", Degree: "BSc"},
			{Institution: "TU Berlin", Degree: "MSc"},
			{Institution: "FU Berlin", Degree: "Cert"},
		},
		Skills: []SkillGroup{
			{Category: "Languages", Items: []string{"Go"}},
			{Category: "Databases", Items: []string{"PostgreSQL"}},
			{Category: "Cloud", Items: []string{"AWS"}},
			{Category: "Tools", Items: []string{"Docker"}},
			{Category: "Practices", Items: []string{"TDD"}},
		},
		Projects:       []Project{{Name: "cvstudio"}},
		Certifications: []Certification{{Name: "CKA"}},
		Languages:      []Language{{Name: "German", Fluency: "native"}},
		Volunteer:      []Volunteer{{Organization: "Code Club"}},
		Publications:   []Publication{{Title: "On Resumes"}},
		Awards:         []Award{{Title: "Best Talk"}},
	}
	r.EnsureDefaults()
	return r
}

func TestValidateMissingRequiredFields(t *testing.T) {
	v := NewValidator()

	res := v.Validate(&Resume{})
	if res.Valid {
		t.Fatal("expected invalid result for empty resume")
	}
	if len(res.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(res.Errors), res.Errors)
	}
	for _, msg := range res.Errors {
		if !strings.HasPrefix(msg, "personalInfo.") {
			t.Errorf("error message is not field-scoped: %q", msg)
		}
	}
}

func TestValidateMalformedEmail(t *testing.T) {
	v := NewValidator()

	res := v.Validate(&Resume{PersonalInfo: PersonalInfo{
		FullName: "Jane Roe",
		Email:    "not-an-email",
	}})
	if res.Valid {
		t.Fatal("expected invalid result for malformed email")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "invalid email format") {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestValidateEmptySectionWarnings(t *testing.T) {
	v := NewValidator()

	res := v.Validate(&Resume{PersonalInfo: PersonalInfo{
		FullName: "Jane Roe",
		Email:    "jane@example.com",
	}})
	if !res.Valid {
		t.Fatalf("expected valid result, errors: %v", res.Errors)
	}
	if len(res.Warnings) != 3 {
		t.Fatalf("expected 3 warnings (experience/education/skills), got %v", res.Warnings)
	}
}

func TestQualityScoreBounds(t *testing.T) {
	v := NewValidator()

	if got := v.QualityScore(&Resume{}); got != 0 {
		t.Errorf("empty resume score = %d, want 0", got)
	}
	if got := v.QualityScore(fullResume()); got != 100 {
		t.Errorf("full resume score = %d, want 100", got)
	}
}

func TestQualityScoreDeterministic(t *testing.T) {
	v := NewValidator()
	r := fullResume()
	r.Projects = nil
	r.Awards = nil
	r.EnsureDefaults()

	first := v.QualityScore(r)
	for i := 0; i < 10; i++ {
		if got := v.QualityScore(r); got != first {
			t.Fatalf("score not reproducible: %d != %d", got, first)
		}
	}
	if first <= 0 || first >= 100 {
		t.Fatalf("partial resume should score strictly between 0 and 100, got %d", first)
	}
}

func TestQualityScoreCaps(t *testing.T) {
	v := NewValidator()

	r := &Resume{}
	for i := 0; i < 50; i++ {
		r.Experience = append(r.Experience, Experience{Company: "A", Position: "B"})
	}
	r.EnsureDefaults()

	// 经历封顶 20 分，50 条与 4 条得分相同。
	capped := v.QualityScore(r)
	r.Experience = r.Experience[:4]
	if got := v.QualityScore(r); got != capped {
		t.Errorf("experience cap not applied: %d != %d", got, capped)
	}
}

func TestEnsureDefaultsNeverNil(t *testing.T) {
	r := &Resume{}
	r.EnsureDefaults()

	if r.Experience == nil || r.Education == nil || r.Skills == nil ||
		r.Projects == nil || r.Certifications == nil || r.Languages == nil ||
		r.Volunteer == nil || r.Publications == nil || r.Awards == nil {
		t.Fatal("EnsureDefaults left a nil section")
	}
}
