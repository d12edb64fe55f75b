package plan

// FallbackTasks returns the fixed three-step list used when the task
// generator fails outright. A fresh slice is returned on every call.
func FallbackTasks() []RawTask {
	return []RawTask{
		{Title: "Understand the goal", Description: "Clarify scope and constraints", DependsOn: []any{}},
		{Title: "Draft plan", Description: "Create task breakdown with timeline", DependsOn: []any{0}},
		{Title: "Execute tasks", Description: "Carry out the plan", DependsOn: []any{1}},
	}
}
