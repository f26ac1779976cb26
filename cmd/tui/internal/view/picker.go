package view

import (
	"fmt"

	"github.com/dmcalde/sitework/internal/project"
)

// projectPicker is the shared project-selection step used by every view.
type projectPicker struct {
	projects []*project.Project
	cursor   int
}

func (p *projectPicker) moveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

func (p *projectPicker) moveDown() {
	if p.cursor < len(p.projects)-1 {
		p.cursor++
	}
}

func (p *projectPicker) selected() *project.Project {
	if p.cursor < 0 || p.cursor >= len(p.projects) {
		return nil
	}

	return p.projects[p.cursor]
}

func (p *projectPicker) view() string {
	if len(p.projects) == 0 {
		return "No projects found.\n\n(Esc to back)"
	}

	s := "Select Project:\n\n"

	for i, proj := range p.projects {
		cursor := " "
		if i == p.cursor {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s (budget %s)\n", cursor, proj.Name, FormatMoney(proj.TotalBudget))
	}

	s += "\n(Enter to select, Esc to back)"

	return s
}
