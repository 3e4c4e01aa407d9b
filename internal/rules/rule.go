package rules

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bakkerme/reviewbot/internal/core"
)

// Rule decides whether a new review is announced, e.g. `rating <= 3 && locale == "de"`.
// Reviews the rule rejects are suppressed for this run only.
type Rule struct {
	source  string
	program *vm.Program
}

// Env is the variable set available to rule expressions.
type Env struct {
	Platform string `expr:"platform"`
	ID       string `expr:"id"`
	Author   string `expr:"author"`
	Rating   int    `expr:"rating"`
	Title    string `expr:"title"`
	Body     string `expr:"body"`
	Locale   string `expr:"locale"`
	Version  string `expr:"version"`
	Link     string `expr:"link"`
}

// Compile returns nil for an empty expression.
func Compile(source string) (*Rule, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil
	}
	program, err := expr.Compile(source, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile review filter: %w", err)
	}
	return &Rule{source: source, program: program}, nil
}

func (r *Rule) String() string {
	if r == nil {
		return ""
	}
	return r.source
}

// Match reports whether review passes. A nil rule matches everything.
func (r *Rule) Match(review core.Review) (bool, error) {
	if r == nil {
		return true, nil
	}
	result, err := expr.Run(r.program, envOf(review))
	if err != nil {
		return false, fmt.Errorf("evaluate review filter: %w", err)
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("review filter did not return bool")
	}
	return matched, nil
}

func envOf(review core.Review) Env {
	return Env{
		Platform: string(review.Platform),
		ID:       review.ID,
		Author:   review.Author,
		Rating:   review.Rating,
		Title:    review.Title,
		Body:     review.Body,
		Locale:   review.Locale,
		Version:  review.Version,
		Link:     review.Link,
	}
}
