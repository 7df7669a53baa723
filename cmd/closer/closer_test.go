package closer

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type failCloser struct {
	order *[]string
}

func (c *failCloser) Close() error {
	*c.order = append(*c.order, "store")
	return errors.New("already closed")
}

func TestCloseAll(t *testing.T) {
	order := []string{}
	cm := NewManager()
	cm.Add("store", &failCloser{order: &order})
	cm.Add("api", Func(func() { order = append(order, "api") }))
	cm.Add("node", Func(func() { order = append(order, "node") }))

	waited := make(chan struct{})
	go func() {
		cm.Wait()
		close(waited)
	}()

	assert.False(t, cm.IsClosed())
	cm.CloseAll()
	cm.CloseAll()
	assert.True(t, cm.IsClosed())
	assert.Equal(t, []string{"node", "api", "store"}, order)

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("wait is not released")
	}
}
