package models

// Phase names used by every composed scenario, in schedule order.
const (
	// PhasePlan is the first, serial phase.
	PhasePlan = "Plan"
	// PhaseExecute is the second, parallel phase.
	PhaseExecute = "Execute"
	// PhaseTestValidate is the final, parallel phase.
	PhaseTestValidate = "Test&Validate"
)

// Phase is one bucket of the executable schedule.
type Phase struct {
	// Name is the phase name (Plan, Execute or Test&Validate).
	Name string `json:"name"`
	// Parallel indicates tasks in this phase may be dispatched concurrently.
	Parallel bool `json:"parallel"`
	// Tasks maps a role alias to its ordered list of task descriptions.
	Tasks map[string][]string `json:"tasks"`
}

// Scenario is the presentation/execution artifact derived from a validated
// planning artifact. It always carries exactly three phases.
type Scenario struct {
	// Title is the scenario headline, usually the original goal.
	Title string `json:"title"`
	// Why maps each selected agent ID to its selection reason.
	Why map[string]string `json:"why"`
	// Phases is the ordered schedule: Plan, Execute, Test&Validate.
	Phases []Phase `json:"phases"`
}
