// Package script loads declarative workflows from YAML files found in
// workflow search roots. A definition looks like:
//
//	name: app.example.checkin
//	package: com.example.app
//	flags:
//	  - name: example-user
//	    default: guest
//	actions:
//	  login:
//	    - launch: ""            # empty means the definition's package
//	    - wait: 2s
//	    - tap: [540, 1200]
//	    - expect: foreground == app
//	    - press: back
//	      when: flags["example-user"] != "guest"
//
// Conditions are expr-lang expressions over screen_on, foreground, app
// and flags.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soochol/droidflow/internal/droidflow"
)

// Definition is one parsed workflow file.
type Definition struct {
	Name    droidflow.WorkflowName          `yaml:"name"`
	Package string                          `yaml:"package"`
	Flags   []FlagDef                       `yaml:"flags"`
	Actions map[droidflow.ActionName][]Step `yaml:"actions"`

	// Path is the file the definition was read from.
	Path string `yaml:"-"`
}

// FlagDef declares a string flag contributed to the command line.
type FlagDef struct {
	Name    string `yaml:"name"`
	Default string `yaml:"default"`
	Usage   string `yaml:"usage"`
}

// Step is a single device command. Exactly one of the command fields is set.
type Step struct {
	Launch *string          `yaml:"launch"`
	Stop   *string          `yaml:"stop"`
	Press  string           `yaml:"press"`
	Tap    []int            `yaml:"tap"`
	Swipe  *droidflow.Swipe `yaml:"swipe"`
	Wait   time.Duration    `yaml:"wait"`
	Expect string           `yaml:"expect"`
	When   string           `yaml:"when"`

	expect *condition
	when   *condition
}

// Kind names the command a step performs.
func (s *Step) Kind() string {
	kinds := s.kinds()
	if len(kinds) != 1 {
		return "invalid"
	}
	return kinds[0]
}

func (s *Step) kinds() []string {
	var k []string
	if s.Launch != nil {
		k = append(k, "launch")
	}
	if s.Stop != nil {
		k = append(k, "stop")
	}
	if s.Press != "" {
		k = append(k, "press")
	}
	if s.Tap != nil {
		k = append(k, "tap")
	}
	if s.Swipe != nil {
		k = append(k, "swipe")
	}
	if s.Wait != 0 {
		k = append(k, "wait")
	}
	if s.Expect != "" {
		k = append(k, "expect")
	}
	return k
}

var flagNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ParseDefinition decodes and validates a workflow document. Unknown keys
// are rejected.
func ParseDefinition(data []byte, path string) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty workflow definition", path)
		}
		return nil, fmt.Errorf("%s: parsing workflow definition: %w", path, err)
	}
	def.Path = path
	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &def, nil
}

// LoadDefinition reads and parses a workflow file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow definition: %w", err)
	}
	return ParseDefinition(data, path)
}

func (d *Definition) validate() error {
	if d.Name == "" {
		return errors.New("name is required")
	}
	if len(d.Actions) == 0 {
		return fmt.Errorf("workflow %q declares no actions", d.Name)
	}
	seen := make(map[string]bool)
	for _, f := range d.Flags {
		if !flagNameRe.MatchString(f.Name) {
			return fmt.Errorf("invalid flag name %q", f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("flag %q declared twice", f.Name)
		}
		seen[f.Name] = true
	}

	for action, steps := range d.Actions {
		if action == "" {
			return errors.New("empty action name")
		}
		for i := range steps {
			if err := d.prepare(&steps[i]); err != nil {
				return fmt.Errorf("action %q step %d: %w", action, i+1, err)
			}
		}
	}
	return nil
}

// prepare validates a step and compiles its conditions.
func (d *Definition) prepare(s *Step) error {
	if kinds := s.kinds(); len(kinds) != 1 {
		return fmt.Errorf("expected exactly one command, got %v", kinds)
	}
	if s.Tap != nil && len(s.Tap) != 2 {
		return fmt.Errorf("tap takes [x, y], got %v", s.Tap)
	}
	if s.Wait < 0 {
		return fmt.Errorf("negative wait %s", s.Wait)
	}
	if (s.Launch != nil && *s.Launch == "" || s.Stop != nil && *s.Stop == "") && d.Package == "" {
		return errors.New("empty package with no default package declared")
	}

	var err error
	if s.Expect != "" {
		if s.expect, err = compileCondition(s.Expect); err != nil {
			return err
		}
	}
	if s.When != "" {
		if s.when, err = compileCondition(s.When); err != nil {
			return err
		}
	}
	return nil
}
