package config

import (
	"fmt"
	"strings"

	"github.com/mensylisir/xmstack/common"
)

// Validate reports every structural problem of cfg at once.
// The returned error wraps common.ErrConfig.
func Validate(cfg *ConsoleConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", common.ErrConfig)
	}
	var problems []string
	addf := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if cfg.Kind != KindConsole {
		addf("kind must be '%s', got '%s'", KindConsole, cfg.Kind)
	}
	if cfg.Metadata.Name == "" {
		addf("metadata.name is required")
	}
	if cfg.Spec.Settings.PollInterval < 0 {
		addf("spec.settings.pollInterval must not be negative")
	}
	if !strings.Contains(cfg.Spec.Settings.ImageImportCommand, "%s") {
		addf("spec.settings.imageImportCommand must contain %%s for the archive path")
	}
	if len(cfg.Spec.Sections) == 0 && len(cfg.Spec.Components) == 0 {
		addf("spec must declare at least one section or component")
	}

	componentNames := make(map[string]struct{}, len(cfg.Spec.Components))
	for _, c := range cfg.Spec.Components {
		componentNames[c.Name] = struct{}{}
	}

	sectionNames := make(map[string]struct{}, len(cfg.Spec.Sections))
	for i, sec := range cfg.Spec.Sections {
		where := fmt.Sprintf("spec.sections[%d]", i)
		if strings.TrimSpace(sec.Name) == "" {
			addf("%s.name is required", where)
		} else {
			if _, dup := sectionNames[sec.Name]; dup {
				addf("%s: duplicate section name '%s'", where, sec.Name)
			}
			sectionNames[sec.Name] = struct{}{}
			where = fmt.Sprintf("section '%s'", sec.Name)
		}
		if len(sec.Steps) == 0 {
			addf("%s has no steps", where)
		}
		for j, st := range sec.Steps {
			problems = append(problems, validateStep(fmt.Sprintf("%s step[%d]", where, j), st, componentNames)...)
		}
	}

	seen := make(map[string]struct{}, len(cfg.Spec.Components))
	for i, c := range cfg.Spec.Components {
		where := fmt.Sprintf("spec.components[%d]", i)
		if strings.TrimSpace(c.Name) == "" {
			addf("%s.name is required", where)
		} else {
			if _, dup := seen[c.Name]; dup {
				addf("%s: duplicate component name '%s'", where, c.Name)
			}
			seen[c.Name] = struct{}{}
			where = fmt.Sprintf("component '%s'", c.Name)
		}
		problems = append(problems, validateComponent(where, c)...)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}

func validateStep(where string, st StepSpec, components map[string]struct{}) []string {
	var problems []string
	if strings.TrimSpace(st.Name) == "" {
		problems = append(problems, where+": name is required")
	} else {
		where = fmt.Sprintf("%s '%s'", where, st.Name)
	}
	hasCommand := strings.TrimSpace(st.Command) != ""
	switch {
	case st.Component != "":
		if hasCommand {
			problems = append(problems, where+": names both a command and a component")
		}
		if _, ok := components[st.Component]; !ok {
			problems = append(problems, fmt.Sprintf("%s: unknown component '%s'", where, st.Component))
		}
		switch st.Action {
		case "", ActionDeploy, ActionCleanup:
		default:
			problems = append(problems, fmt.Sprintf("%s: unknown action '%s' (want %s or %s)", where, st.Action, ActionDeploy, ActionCleanup))
		}
		if st.Sudo {
			problems = append(problems, where+": sudo applies to commands only")
		}
	case !hasCommand:
		problems = append(problems, where+": command or component is required")
	case st.Action != "":
		problems = append(problems, where+": action applies to components only")
	}
	if v := st.Validation; v != nil {
		if strings.TrimSpace(v.Command) == "" {
			problems = append(problems, where+": validation.command is required")
		}
		if v.Timeout < 0 {
			problems = append(problems, where+": validation.timeout must not be negative")
		}
	}
	return problems
}

func validateComponent(where string, c ComponentSpec) []string {
	var problems []string
	if c.Image.Ref == "" && len(c.Manifests) == 0 {
		problems = append(problems, where+": needs an image.ref or at least one manifest")
	}
	for _, m := range c.Manifests {
		if strings.TrimSpace(m) == "" {
			problems = append(problems, where+": empty manifest pattern")
		}
	}
	if r := c.Readiness; r != nil {
		hasCommand := strings.TrimSpace(r.Command) != ""
		hasWorkload := r.Kind != "" || r.Name != ""
		switch {
		case hasCommand && hasWorkload:
			problems = append(problems, where+": readiness names both a command and a workload")
		case !hasCommand && !hasWorkload:
			problems = append(problems, where+": readiness needs a command or a kind and name")
		case hasWorkload:
			if r.Name == "" {
				problems = append(problems, where+": readiness.name is required with readiness.kind")
			}
			switch r.Kind {
			case WorkloadDeployment, WorkloadStatefulSet, WorkloadDaemonSet:
			default:
				problems = append(problems, fmt.Sprintf("%s: unsupported readiness.kind '%s'", where, r.Kind))
			}
		}
		if r.Timeout < 0 {
			problems = append(problems, where+": readiness.timeout must not be negative")
		}
	}
	return problems
}
