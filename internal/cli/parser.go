// Package cli builds the command-line surface from a fixed set of base flags
// plus the flags every discovered workflow declares.
package cli

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/soochol/droidflow/internal/droidflow"
	"github.com/soochol/droidflow/internal/registry"
)

// EnvDeviceID supplies the default for --device-id.
const EnvDeviceID = "ANDROID_DEVICE_ID"

const (
	flagWorkflow     = "workflow"
	flagAction       = "action"
	flagDeviceID     = "device-id"
	flagDelay        = "delay"
	flagList         = "list"
	flagDebug        = "debug"
	flagDryRun       = "dry-run"
	flagNoNotify     = "no-notify"
	flagNotifyConfig = "notify-config"
	flagReturnHome   = "return-home"
	flagSealSecret   = "seal-secret"

	defaultAction = "status"
	// maxDelay is the largest --delay whose minutes still fit a time.Duration.
	maxDelay = math.MaxInt64 / int64(time.Minute)
	baseOwner     = "droidflow"
)

var aliases = map[string]string{
	"wf": flagWorkflow,
}

// Discoverer enumerates workflow implementations.
type Discoverer interface {
	Discover() ([]registry.Entry, error)
}

// Options is the parsed command line.
type Options struct {
	Workflow     droidflow.WorkflowName
	Action       droidflow.ActionName
	DeviceID     string
	Delay        int
	List         bool
	Debug        bool
	DryRun       bool
	NoNotify     bool
	NotifyConfig string
	ReturnHome   bool
	SealSecret   bool

	Flags *pflag.FlagSet
}

// RunConfig derives the per-run configuration.
func (o *Options) RunConfig() *droidflow.RunConfig {
	return &droidflow.RunConfig{
		Workflow:        o.Workflow,
		Action:          o.Action,
		DeviceID:        o.DeviceID,
		DelayMinutesMax: o.Delay,
		ReturnHome:      o.ReturnHome,
		Flags:           o.Flags,
	}
}

// Parser aggregates base and plugin flags. It keeps no parse state: every
// call to Parse builds a fresh flag set.
type Parser struct {
	name    string
	entries []registry.Entry
	getenv  func(string) string
	output  io.Writer
}

// Option configures a Parser.
type Option func(*Parser)

// WithGetenv overrides environment lookup.
func WithGetenv(fn func(string) string) Option {
	return func(p *Parser) { p.getenv = fn }
}

// WithOutput sets where usage text is written.
func WithOutput(w io.Writer) Option {
	return func(p *Parser) { p.output = w }
}

// NewParser discovers workflows and validates the combined flag schema.
// A flag declared twice is reported as droidflow.ErrFlagConflict.
func NewParser(name string, d Discoverer, opts ...Option) (*Parser, error) {
	entries, err := d.Discover()
	if err != nil {
		return nil, err
	}
	p := &Parser{name: name, entries: entries, getenv: os.Getenv, output: os.Stderr}
	for _, o := range opts {
		o(p)
	}
	if _, err := p.build(); err != nil {
		return nil, err
	}
	return p, nil
}

type group struct {
	owner string
	flags *pflag.FlagSet
}

type schema struct {
	fs     *pflag.FlagSet
	base   *pflag.FlagSet
	groups []group
}

func (p *Parser) build() (*schema, error) {
	base := pflag.NewFlagSet(baseOwner, pflag.ContinueOnError)
	base.StringP(flagWorkflow, "w", "", "workflow name to run (alias --wf)")
	base.StringP(flagAction, "a", defaultAction, "action to dispatch")
	base.String(flagDeviceID, p.getenv(EnvDeviceID), "device serial (env "+EnvDeviceID+")")
	base.IntP(flagDelay, "d", 0, "randomized delay of 1..N minutes before dispatch, 0 disables")
	base.Bool(flagList, false, "list available workflows and exit")
	base.Bool(flagDebug, false, "enable debug logging")
	base.Bool(flagDryRun, false, "run against an in-memory device and only log notifications")
	base.Bool(flagNoNotify, false, "do not send notifications")
	base.String(flagNotifyConfig, "", "notification config path (env MESSAGING_CONFIG_PATH)")
	base.Bool(flagReturnHome, false, "stop the workflow's package and press home after dispatch")
	base.Bool(flagSealSecret, false, "read a secret from stdin, print it sealed for the messaging config, and exit")

	fs := pflag.NewFlagSet(p.name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetNormalizeFunc(normalize)
	fs.AddFlagSet(base)

	owners := make(map[string]string)
	shorts := make(map[string]string)
	base.VisitAll(func(f *pflag.Flag) {
		owners[f.Name] = baseOwner
		if f.Shorthand != "" {
			shorts[f.Shorthand] = baseOwner
		}
	})

	s := &schema{fs: fs, base: base}
	for _, e := range p.entries {
		owner := fmt.Sprintf("%s (%s)", e.Name, e.Type)
		scratch, err := declare(e)
		if err != nil {
			return nil, err
		}

		var conflict error
		scratch.VisitAll(func(f *pflag.Flag) {
			if conflict != nil {
				return
			}
			name := string(normalize(fs, f.Name))
			if prev, ok := owners[name]; ok {
				conflict = fmt.Errorf("%w: --%s declared by %s is already declared by %s",
					droidflow.ErrFlagConflict, f.Name, owner, prev)
				return
			}
			if f.Shorthand != "" {
				if prev, ok := shorts[f.Shorthand]; ok {
					conflict = fmt.Errorf("%w: -%s (--%s) declared by %s is already declared by %s",
						droidflow.ErrFlagConflict, f.Shorthand, f.Name, owner, prev)
					return
				}
				shorts[f.Shorthand] = owner
			}
			owners[name] = owner
			fs.AddFlag(f)
		})
		if conflict != nil {
			return nil, conflict
		}
		if scratch.HasFlags() {
			s.groups = append(s.groups, group{owner: string(e.Name), flags: scratch})
		}
	}
	return s, nil
}

// declare collects a plugin's flags on a scratch set. pflag panics on
// malformed definitions; that panic becomes a configuration error.
func declare(e registry.Entry) (fs *pflag.FlagSet, err error) {
	fs = pflag.NewFlagSet(string(e.Name), pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: declaring flags for %s: %v", droidflow.ErrConfiguration, e.Type, rec)
		}
	}()
	e.Plugin.RegisterFlags(fs)
	return fs, nil
}

func normalize(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	return pflag.NormalizedName(name)
}

// Parse parses args (without the program name). It returns pflag.ErrHelp
// after printing usage when -h/--help is given.
func (p *Parser) Parse(args []string) (*Options, error) {
	s, err := p.build()
	if err != nil {
		return nil, err
	}
	if err := s.fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			p.writeUsage(p.output, s)
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", droidflow.ErrConfiguration, err)
	}
	if s.fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %q", droidflow.ErrConfiguration, s.fs.Args())
	}

	fs := s.fs
	opts := &Options{Flags: fs}
	var wf, action string
	for _, read := range []error{
		get(fs.GetString, flagWorkflow, &wf),
		get(fs.GetString, flagAction, &action),
		get(fs.GetString, flagDeviceID, &opts.DeviceID),
		get(fs.GetInt, flagDelay, &opts.Delay),
		get(fs.GetBool, flagList, &opts.List),
		get(fs.GetBool, flagDebug, &opts.Debug),
		get(fs.GetBool, flagDryRun, &opts.DryRun),
		get(fs.GetBool, flagNoNotify, &opts.NoNotify),
		get(fs.GetString, flagNotifyConfig, &opts.NotifyConfig),
		get(fs.GetBool, flagReturnHome, &opts.ReturnHome),
		get(fs.GetBool, flagSealSecret, &opts.SealSecret),
	} {
		if read != nil {
			return nil, read
		}
	}
	opts.Workflow = droidflow.WorkflowName(wf)
	opts.Action = droidflow.ActionName(action)

	if opts.Delay < 0 {
		return nil, fmt.Errorf("%w: --delay must be >= 0, got %d", droidflow.ErrConfiguration, opts.Delay)
	}
	if int64(opts.Delay) > maxDelay {
		return nil, fmt.Errorf("%w: --delay must be <= %d minutes, got %d", droidflow.ErrConfiguration, maxDelay, opts.Delay)
	}
	standalone := opts.List || opts.SealSecret
	if opts.Workflow == "" && !standalone {
		return nil, fmt.Errorf("%w: --workflow is required", droidflow.ErrConfiguration)
	}
	if opts.Action == "" && !standalone {
		return nil, fmt.Errorf("%w: --action must not be empty", droidflow.ErrConfiguration)
	}
	return opts, nil
}

func get[T any](fn func(string) (T, error), name string, dst *T) error {
	v, err := fn(name)
	if err != nil {
		return fmt.Errorf("reading --%s: %w", name, err)
	}
	*dst = v
	return nil
}
