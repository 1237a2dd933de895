package chunking

import (
	"regexp"
	"strings"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

// Grammar is an ordered list of boundary markers, one per hierarchy level, root first.
// Each marker is anchored to a line start and its match is the level title.
type Grammar struct {
	Name   string
	Levels []*regexp.Regexp
}

var (
	vehicleGrammar = Grammar{
		Name: "vehicle",
		Levels: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^제\s*\d+\s*편[^\n]*`),
			regexp.MustCompile(`(?m)^제\s*\d+\s*장[^\n]*`),
			regexp.MustCompile(`(?m)^제\s*\d+\s*절[^\n]*`),
			regexp.MustCompile(`(?m)^제\s*\d+\s*조\s*\([^)\n]+\)`),
		},
	}
	defaultGrammar = Grammar{
		Name: "default",
		Levels: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^제\s*\d+\s*관[^\n]*`),
			regexp.MustCompile(`(?m)^제\s*\d+\s*조\s*\([^)\n]+\)`),
		},
	}
)

// GrammarFor selects part/chapter/section/article for vehicle insurance and part/article otherwise.
func GrammarFor(category domain.Category) Grammar {
	if category.UsesVehicleGrammar() {
		return vehicleGrammar
	}
	return defaultGrammar
}

type titledBody struct {
	title *string
	body  string
}

// splitWithPattern pairs every marker match with the text up to the next match.
// Text ahead of the first match is preamble and is dropped. With no match the
// whole input comes back untitled.
func splitWithPattern(text string, pattern *regexp.Regexp) []titledBody {
	locs := pattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []titledBody{{body: text}}
	}

	out := make([]titledBody, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		title := strings.TrimSpace(text[loc[0]:loc[1]])
		out = append(out, titledBody{
			title: &title,
			body:  text[loc[1]:end],
		})
	}
	return out
}
