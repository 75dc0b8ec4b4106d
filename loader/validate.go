package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/nathoo/neuraldive/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

var validQuestionKinds = map[types.QuestionKind]bool{
	types.MultipleChoice: true,
	types.ShortAnswer:    true,
	types.YesNo:          true,
}

var validMatchTypes = map[types.MatchType]bool{
	types.MatchExact:      true,
	types.MatchNumeric:    true,
	types.MatchComplexity: true,
}

var validNPCTypes = map[types.NPCType]bool{
	types.NPCSpecialist: true,
	types.NPCHelper:     true,
	types.NPCEnemy:      true,
}

// validate checks the compiled content for referential integrity and
// consistency.
func validate(content *types.Content) error {
	ve := &ValidationError{}

	if content.ID == "" {
		ve.Errors = append(ve.Errors, "Content.id is required")
	}
	if content.Title == "" {
		ve.Errors = append(ve.Errors, "Content.title is required")
	}
	if content.MaxFloors < 1 {
		ve.Errors = append(ve.Errors, "Content.max_floors must be at least 1")
	}

	referenced := map[string]bool{}

	for id, q := range content.Questions {
		validateQuestion(id, q, ve)
	}

	requiredPerFloor := map[int]int{}
	for id, n := range content.NPCs {
		if !validNPCTypes[n.Type] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"NPC %q has unknown type %q", id, n.Type))
		}
		if n.Floor < 1 || (content.MaxFloors >= 1 && n.Floor > content.MaxFloors) {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"NPC %q floor %d is outside 1..%d", id, n.Floor, content.MaxFloors))
		}
		if len(n.QuestionIDs) == 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"NPC %q has no questions", id))
		}
		for _, qid := range n.QuestionIDs {
			if _, ok := content.Questions[qid]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"NPC %q references undefined question %q", id, qid))
			}
			referenced[qid] = true
		}
		if n.Required {
			requiredPerFloor[n.Floor]++
		}
	}

	// Every floor needs at least one required NPC, or descending is
	// unconditional.
	for f := 1; f <= content.MaxFloors; f++ {
		if requiredPerFloor[f] == 0 {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"floor %d has no required NPC; its stairs are always open", f))
		}
	}

	for _, term := range content.Terminals {
		if term.Floor < 1 || term.Floor > content.MaxFloors {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"terminal %q floor %d is outside 1..%d", term.ID, term.Floor, content.MaxFloors))
		}
	}

	for number, layout := range content.Layouts {
		validateLayout(number, layout, content, ve)
	}

	// Warnings: authored questions no NPC ever asks.
	for id := range content.Questions {
		if !referenced[id] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"question %q is not referenced by any NPC", id))
		}
	}

	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateQuestion(id string, q *types.Question, ve *ValidationError) {
	if q.Text == "" {
		ve.Errors = append(ve.Errors, fmt.Sprintf("question %q has no text", id))
	}
	if !validQuestionKinds[q.Kind] {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"question %q has unknown kind %q", id, q.Kind))
		return
	}

	switch q.Kind {
	case types.MultipleChoice:
		if len(q.Answers) < 2 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"multiple-choice question %q needs at least 2 answers", id))
		}
		correct := 0
		for _, a := range q.Answers {
			if a.Correct {
				correct++
			}
		}
		if correct == 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"multiple-choice question %q has no correct answer", id))
		}
	default:
		if q.Accepted == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"question %q has no accepted answers", id))
		}
		if !validMatchTypes[q.Match] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"question %q has unknown match type %q", id, q.Match))
		}
	}
}

func validateLayout(number int, layout *types.FloorLayout, content *types.Content, ve *ValidationError) {
	if number < 1 || number > content.MaxFloors {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"layout for floor %d is outside 1..%d", number, content.MaxFloors))
	}
	if len(layout.Rows) > 0 && len(layout.Rows) < 3 {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"layout for floor %d has fewer than 3 rows", number))
	}
	width := -1
	for i, row := range layout.Rows {
		if width == -1 {
			width = len(row)
		} else if len(row) != width {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"layout for floor %d row %d has width %d, want %d", number, i, len(row), width))
		}
	}
	for id := range layout.NPCPositions {
		n, ok := content.NPCs[id]
		if !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"layout for floor %d positions undefined NPC %q", number, id))
			continue
		}
		if n.Floor != number {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"layout for floor %d positions NPC %q which lives on floor %d", number, id, n.Floor))
		}
	}
}
