package render

import (
	"bytes"
	"io"
	"sync"

	"github.com/vango-dev/overlay/pkg/vdom"
)

// Container owns a region of rendered HTML. Its content is only ever
// replaced as a whole: every write is preceded by a clear, so output from a
// previous render can never survive into the next one.
type Container struct {
	id      string
	mu      sync.Mutex
	content bytes.Buffer
	writes  int
}

// NewContainer creates an empty container rendered as <div id="id">.
func NewContainer(id string) *Container {
	return &Container{id: id}
}

// ID returns the element id of the container.
func (c *Container) ID() string {
	return c.id
}

// Replace clears the container and fills it with whatever fn writes.
// If fn fails the container is left empty.
func (c *Container) Replace(fn func(w io.Writer) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.content.Reset()
	c.writes++
	if err := fn(&c.content); err != nil {
		c.content.Reset()
		return err
	}
	return nil
}

// ReplaceHTML clears the container and sets its content to html.
func (c *Container) ReplaceHTML(html string) {
	c.Replace(func(w io.Writer) error {
		_, err := io.WriteString(w, html)
		return err
	})
}

// Clear empties the container.
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content.Reset()
}

// HTML returns the current content.
func (c *Container) HTML() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content.String()
}

// Writes returns how many times the content has been replaced.
func (c *Container) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// Node returns the container as an element holding its current content.
func (c *Container) Node() *vdom.VNode {
	return vdom.Div(
		vdom.ID(c.id),
		vdom.Data("overlay-container", ""),
		vdom.Raw(c.HTML()),
	)
}
