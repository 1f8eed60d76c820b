package pipeline

import (
	"fmt"
	"sort"
)

// OperatorFactory creates an operator for unattended runs.
type OperatorFactory func() Operator

// policies maps --on-failure values to operators.
var policies = map[string]OperatorFactory{
	string(AbortOnFailure):    func() Operator { return Unattended(AbortOnFailure) },
	string(ContinueOnFailure): func() Operator { return Unattended(ContinueOnFailure) },
}

// OperatorFor returns a new operator for the named failure policy.
func OperatorFor(name string) (Operator, error) {
	factory, exists := policies[name]
	if !exists {
		return nil, fmt.Errorf("unknown failure policy '%s' (want one of %v)", name, PolicyNames())
	}
	return factory(), nil
}

// PolicyNames returns the known failure policies, sorted.
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
