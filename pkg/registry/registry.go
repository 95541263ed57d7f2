// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &reg, nil
}

// Validate checks required fields, duplicate ids and task types, timeouts,
// and that every declared error code is accepted by knownCode.
func (r *ActivityRegistry) Validate(knownCode func(string) bool) error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, a := range r.Activities {
		if a.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate activity ID: %s", a.ID)
		}
		ids[a.ID] = true

		if a.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", a.ID)
		}
		if a.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", a.ID)
		}
		if a.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: TaskType", a.ID)
		}
		if taskTypes[a.TaskType] {
			return fmt.Errorf("duplicate task type: %s", a.TaskType)
		}
		taskTypes[a.TaskType] = true

		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				return fmt.Errorf("activity %s has invalid timeout %q", a.ID, a.Timeout)
			}
		}
		for _, code := range a.ErrorCodes {
			if knownCode != nil && !knownCode(code) {
				return fmt.Errorf("activity %s declares unknown error code %s", a.ID, code)
			}
		}
	}
	return nil
}

// TaskTypes lists the registered task types in file order.
func (r *ActivityRegistry) TaskTypes() []string {
	out := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.TaskType)
	}
	return out
}

// Missing returns the registered task types not present in started.
func (r *ActivityRegistry) Missing(started []string) []string {
	running := make(map[string]bool, len(started))
	for _, s := range started {
		running[s] = true
	}
	missing := []string{}
	for _, t := range r.TaskTypes() {
		if !running[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
