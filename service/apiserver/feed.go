package apiserver

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/meverselabs/coinnet/p2p/notify"
)

const (
	feedQueueSize   = 64
	feedPingPeriod  = 30 * time.Second
	feedWriteWindow = 10 * time.Second
)

// NotificationMessage is the json form of a notification on the websocket feed
type NotificationMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// feed streams notifications to a websocket subscriber
type feed struct {
	sync.Mutex
	conn    *websocket.Conn
	queue   chan notify.Notification
	done    chan struct{}
	isClose bool
}

func newFeed(conn *websocket.Conn) *feed {
	conn.EnableWriteCompression(false)
	return &feed{
		conn:  conn,
		queue: make(chan notify.Notification, feedQueueSize),
		done:  make(chan struct{}),
	}
}

// push queues the notification, false when the subscriber is too slow or closed
func (f *feed) push(n notify.Notification) bool {
	select {
	case <-f.done:
		return false
	case f.queue <- n:
		return true
	default:
		return false
	}
}

// Run writes queued notifications until the subscriber goes away
func (f *feed) Run() {
	defer f.Close()

	go func() {
		defer f.Close()
		for {
			if _, _, err := f.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			if err := f.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWindow)); err != nil {
				return
			}
		case n := <-f.queue:
			if err := f.conn.SetWriteDeadline(time.Now().Add(feedWriteWindow)); err != nil {
				return
			}
			if err := f.conn.WriteJSON(&NotificationMessage{Kind: n.Kind(), Message: n.String()}); err != nil {
				return
			}
		}
	}
}

// Close closes the connection of the subscriber
func (f *feed) Close() {
	f.Lock()
	defer f.Unlock()

	if f.isClose {
		return
	}
	f.isClose = true
	close(f.done)
	f.conn.Close()
}
