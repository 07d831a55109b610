package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Task {
	return Composite("root",
		Leaf("load", 10),
		Composite("compute",
			Leaf("scatter", 5),
			Leaf("gather", 5),
		),
	)
}

func TestWalkPreOrder(t *testing.T) {
	var names []string
	var depths []int
	Walk(sampleTree(), func(task *Task, depth int) bool {
		names = append(names, task.Name())
		depths = append(depths, depth)
		return true
	})

	assert.Equal(t, []string{"root", "load", "compute", "scatter", "gather"}, names)
	assert.Equal(t, []int{0, 1, 1, 2, 2}, depths)
}

func TestWalkPrunes(t *testing.T) {
	var names []string
	Walk(sampleTree(), func(task *Task, _ int) bool {
		names = append(names, task.Name())
		return task.Name() != "compute"
	})
	assert.Equal(t, []string{"root", "load", "compute"}, names)
}

func TestFind(t *testing.T) {
	tree := sampleTree()
	found := Find(tree, "gather")
	require.NotNil(t, found)
	assert.Equal(t, "gather", found.Name())
	assert.Nil(t, Find(tree, "missing"))
}

func TestRender(t *testing.T) {
	tree := sampleTree()
	require.NoError(t, tree.Start())
	require.NoError(t, tree.Children()[0].Start())

	expected := "root(RUNNING)\n" +
		"|-- load(RUNNING)\n" +
		"|-- compute(PENDING)\n" +
		"\t|-- scatter(PENDING)\n" +
		"\t|-- gather(PENDING)\n"
	assert.Equal(t, expected, Render(tree))
}
