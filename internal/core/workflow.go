package core

// Workflow is a named, ordered collection of tasks.
//
// Tasks keep the order in which they were first added; that order drives
// the scheduler's scan. Dependencies may name tasks that do not exist yet,
// which is detected at execution time rather than here.
type Workflow struct {
	Name        string
	Description string

	tasks map[string]*Task
	order []string
}

// NewWorkflow creates an empty workflow.
func NewWorkflow(name, description string) *Workflow {
	return &Workflow{
		Name:        name,
		Description: description,
		tasks:       make(map[string]*Task),
	}
}

// AddTask inserts a pending task. Adding a name that already exists replaces
// the previous task in place.
func (w *Workflow) AddTask(name string, action Action, deps ...string) {
	w.PutTask(NewTask(name, action, deps...))
}

// PutTask inserts a prepared task, replacing one with the same name.
func (w *Workflow) PutTask(task *Task) {
	if w.tasks == nil {
		w.tasks = make(map[string]*Task)
	}
	if _, exists := w.tasks[task.Name]; !exists {
		w.order = append(w.order, task.Name)
	}
	w.tasks[task.Name] = task
}

// GetTask returns a task by name.
func (w *Workflow) GetTask(name string) (*Task, bool) {
	t, ok := w.tasks[name]
	return t, ok
}

// Tasks returns the tasks in insertion order.
func (w *Workflow) Tasks() []*Task {
	result := make([]*Task, 0, len(w.order))
	for _, name := range w.order {
		result = append(result, w.tasks[name])
	}
	return result
}

// TaskNames returns the task names in insertion order.
func (w *Workflow) TaskNames() []string {
	return append([]string(nil), w.order...)
}

// Len returns the number of tasks.
func (w *Workflow) Len() int {
	return len(w.order)
}

// Reset returns every task to pending so the workflow can run again.
func (w *Workflow) Reset() {
	for _, t := range w.tasks {
		t.Reset()
	}
}

// IsSettled reports whether every task is terminal.
func (w *Workflow) IsSettled() bool {
	for _, t := range w.tasks {
		if !t.IsTerminal() {
			return false
		}
	}
	return true
}

// Validate checks workflow invariants that do not involve the graph.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return ErrValidation(CodeEmptyName, "workflow name cannot be empty")
	}
	for _, t := range w.Tasks() {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}
