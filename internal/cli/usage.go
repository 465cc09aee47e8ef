package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/soochol/droidflow/internal/registry"
)

// Usage returns the help text: base flags, plugin flags grouped by
// workflow, then the available workflows.
func (p *Parser) Usage() string {
	s, err := p.build()
	if err != nil {
		return err.Error()
	}
	var b strings.Builder
	p.writeUsage(&b, s)
	return b.String()
}

func (p *Parser) writeUsage(w io.Writer, s *schema) {
	fmt.Fprintf(w, "Usage: %s --workflow <name> [--action <action>] [flags]\n\n", p.name)
	fmt.Fprintf(w, "Flags:\n%s", s.base.FlagUsages())
	for _, g := range s.groups {
		fmt.Fprintf(w, "\n%s flags:\n%s", g.owner, g.flags.FlagUsages())
	}
	if len(p.entries) > 0 {
		fmt.Fprintf(w, "\nWorkflows:\n")
		for _, e := range p.entries {
			fmt.Fprintf(w, "  %s\n", e.Name)
		}
	}
}

// PrintList writes one line per workflow with its root and actions.
func PrintList(w io.Writer, infos []registry.Info) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "no workflows registered")
		return
	}
	for _, info := range infos {
		actions := make([]string, len(info.Actions))
		for i, a := range info.Actions {
			actions[i] = string(a)
		}
		fmt.Fprintf(w, "%-32s %-10s %s\n", info.Name, info.Root, strings.Join(actions, ","))
	}
}
