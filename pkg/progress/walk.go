package progress

import "github.com/dd0wney/cluso-gds/pkg/pools"

// Walk visits the tree rooted at task depth-first, parent before children.
// Returning false from fn skips the children of the visited task.
func Walk(task *Task, fn func(t *Task, depth int) bool) {
	walk(task, 0, fn)
}

func walk(t *Task, depth int, fn func(*Task, int) bool) {
	if !fn(t, depth) {
		return
	}
	for _, c := range t.Children() {
		walk(c, depth+1, fn)
	}
}

// Find returns the first task in pre-order whose name matches.
func Find(task *Task, name string) *Task {
	var found *Task
	Walk(task, func(t *Task, _ int) bool {
		if found != nil {
			return false
		}
		if t.name == name {
			found = t
			return false
		}
		return true
	})
	return found
}

// Render draws the tree one task per line as name(STATUS), children
// indented below their parent.
func Render(task *Task) string {
	b := pools.NewTextBuilder(pools.BlockSize)
	defer b.Release()

	Walk(task, func(t *Task, depth int) bool {
		if depth > 1 {
			b.WriteRepeat("\t", depth-1)
		}
		if depth > 0 {
			b.WriteString("|-- ")
		}
		b.WriteString(t.name)
		_ = b.WriteByte('(')
		b.WriteString(t.Status().String())
		b.WriteString(")\n")
		return true
	})
	return b.String()
}
