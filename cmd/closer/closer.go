package closer

import (
	"sync"

	"github.com/meverselabs/coinnet/common/rlog"
)

// Closer is Closer inferface
type Closer interface {
	Close() error
}

// Func adapts a function without a result to a Closer
type Func func()

// Close calls the function
func (f Func) Close() error {
	f()
	return nil
}

// Manager handles closers
type Manager struct {
	sync.Mutex
	isClosed bool
	Names    []string
	Closers  []Closer
	wg       sync.WaitGroup
}

// NewManager returns a Manager
func NewManager() *Manager {
	cm := &Manager{
		Names:   []string{},
		Closers: []Closer{},
	}
	cm.wg.Add(1)
	return cm
}

// IsClosed returns it is closed or not
func (cm *Manager) IsClosed() bool {
	cm.Lock()
	defer cm.Unlock()

	return cm.isClosed
}

// Add adds a closer with a name
func (cm *Manager) Add(Name string, c Closer) {
	cm.Lock()
	defer cm.Unlock()

	cm.Names = append(cm.Names, Name)
	cm.Closers = append(cm.Closers, c)
}

// CloseAll closes all closers in the reverse order of Add
func (cm *Manager) CloseAll() {
	cm.Lock()
	if cm.isClosed {
		cm.Unlock()
		return
	}
	cm.isClosed = true
	names := cm.Names
	closers := cm.Closers
	cm.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		rlog.Println("Close", names[i])
		if err := closers[i].Close(); err != nil {
			rlog.Println("Close", names[i], "failed:", err)
		}
	}
	cm.wg.Done()
}

// Wait waits close all
func (cm *Manager) Wait() {
	cm.wg.Wait()
}
