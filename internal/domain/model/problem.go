package model

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "easy"
	DifficultyMedium ProblemDifficulty = "medium"
	DifficultyHard   ProblemDifficulty = "hard"
)

func (d ProblemDifficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

var AllowedTags = mapset.NewSet(
	"array", "linkedlist", "graph", "dp", "hashmap", "math", "two-pointers", "string",
)

type Problem struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Slug              string            `json:"slug"`
	Description       string            `json:"description"`
	Difficulty        ProblemDifficulty `json:"difficulty"`
	Tags              []string          `json:"tags"`
	VisibleTestCases  []VisibleTestCase `json:"visible_test_cases"`
	HiddenTestCases   []HiddenTestCase  `json:"hidden_test_cases,omitempty"` // Admin only view
	StartCode         []CodeSnippet     `json:"start_code"`
	ReferenceSolution []CodeSnippet     `json:"reference_solution,omitempty"` // Admin only view
	DriverCode        []CodeSnippet     `json:"driver_code,omitempty"`        // Admin only view
	CreatedByID       *string           `json:"created_by_id,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// PublicProblem is what non-admin users see.
type PublicProblem struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Slug             string            `json:"slug"`
	Description      string            `json:"description"`
	Difficulty       ProblemDifficulty `json:"difficulty"`
	Tags             []string          `json:"tags"`
	VisibleTestCases []VisibleTestCase `json:"visible_test_cases"`
	StartCode        []CodeSnippet     `json:"start_code"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type ProblemSummary struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Slug       string            `json:"slug"`
	Difficulty ProblemDifficulty `json:"difficulty"`
	Tags       []string          `json:"tags"`
}

type VisibleTestCase struct {
	Input       string `json:"input" validate:"required"`
	Output      string `json:"output" validate:"required"`
	Explanation string `json:"explanation" validate:"required"`
}

type HiddenTestCase struct {
	Input  string `json:"input" validate:"required"`
	Output string `json:"output" validate:"required"`
}

// CodeSnippet is one language's start code, reference solution or driver code.
type CodeSnippet struct {
	Language string `json:"language" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

// DriverFor finds the driver code for language, matching aliases ("cpp" is "c++").
func (p *Problem) DriverFor(language string) (CodeSnippet, bool) {
	return findSnippet(p.DriverCode, language)
}

func (p *Problem) Summary() ProblemSummary {
	return ProblemSummary{ID: p.ID, Title: p.Title, Slug: p.Slug, Difficulty: p.Difficulty, Tags: p.Tags}
}

func findSnippet(snippets []CodeSnippet, language string) (CodeSnippet, bool) {
	want := CanonicalLanguage(language)
	for _, s := range snippets {
		if CanonicalLanguage(s.Language) == want {
			return s, true
		}
	}
	return CodeSnippet{}, false
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ProblemFilter narrows problem listings. Zero values mean "any".
type ProblemFilter struct {
	Difficulty ProblemDifficulty
	Tag        string
	Search     string
	Page       int
	PageSize   int
}

// Normalize clamps paging to sane values.
func (f ProblemFilter) Normalize() ProblemFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

func (f ProblemFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type ProblemPage struct {
	Problems []ProblemSummary `json:"problems"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}
