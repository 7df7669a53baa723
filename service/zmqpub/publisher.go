package zmqpub

import (
	"context"
	"sync"

	"github.com/bluele/gcache"
	"github.com/go-zeromq/zmq4"
	"github.com/meverselabs/coinnet/common/bin"
	"github.com/meverselabs/coinnet/common/hash"
	"github.com/meverselabs/coinnet/common/rlog"
	"github.com/meverselabs/coinnet/p2p/notify"
	"github.com/pkg/errors"
)

// topics
const (
	TopicHashBlock = "hashblock"
	TopicRawBlock  = "rawblock"
	TopicHashTx    = "hashtx"
	TopicRawTx     = "rawtx"
)

const (
	queueSize       = 256
	publishedTxSize = 4096
)

// Sender is the sending side of a zmq socket
type Sender interface {
	Send(msg zmq4.Msg) error
	Close() error
}

// Publisher publishes accepted blocks and wallet transactions as
// multipart [topic, body, sequence] messages
type Publisher struct {
	sync.Mutex
	sock    Sender
	seqMap  map[string]uint32
	txCache gcache.Cache
	queue   chan notify.Notification
	done    chan struct{}
	wg      sync.WaitGroup
	isClose bool
	logger  rlog.Logger
}

// NewPublisher returns a Publisher listening on the zmq endpoint, e.g. tcp://127.0.0.1:28332
func NewPublisher(ctx context.Context, endpoint string) (*Publisher, error) {
	sock := zmq4.NewPub(ctx)
	if err := sock.Listen(endpoint); err != nil {
		sock.Close()
		return nil, errors.WithStack(err)
	}
	p := NewPublisherWithSender(sock)
	p.logger.Info("Start to publish", "endpoint", endpoint)
	return p, nil
}

// NewPublisherWithSender returns a Publisher writing to the sender
func NewPublisherWithSender(sock Sender) *Publisher {
	p := &Publisher{
		sock:    sock,
		seqMap:  map[string]uint32{},
		txCache: gcache.New(publishedTxSize).LRU().Build(),
		queue:   make(chan notify.Notification, queueSize),
		done:    make(chan struct{}),
		logger:  rlog.New("module", "zmqpub"),
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run()
	}()
	return p
}

// Notify queues the notification. Only new blocks and wallet transactions are published.
func (p *Publisher) Notify(n notify.Notification) {
	switch n.(type) {
	case *notify.NewBlockAdded, *notify.TransactionOfAccountReceived:
	default:
		return
	}
	select {
	case <-p.done:
	case p.queue <- n:
	default:
		p.logger.Warn("Publish queue is full", "kind", n.Kind())
	}
}

// Close stops publishing and closes the socket
func (p *Publisher) Close() error {
	p.Lock()
	if p.isClose {
		p.Unlock()
		return nil
	}
	p.isClose = true
	close(p.done)
	p.Unlock()

	p.wg.Wait()
	return p.sock.Close()
}

func (p *Publisher) run() {
	for {
		select {
		case <-p.done:
			return
		case n := <-p.queue:
			if err := p.publish(n); err != nil {
				p.logger.Warn("Publish failed", "kind", n.Kind(), "err", err)
			}
		}
	}
}

func (p *Publisher) publish(n notify.Notification) error {
	switch msg := n.(type) {
	case *notify.NewBlockAdded:
		raw, _, err := bin.WriterToBytes(msg.Block)
		if err != nil {
			return err
		}
		if err := p.send(TopicHashBlock, displayBytes(msg.Block.Hash())); err != nil {
			return err
		}
		return p.send(TopicRawBlock, raw)
	case *notify.TransactionOfAccountReceived:
		TxHash := msg.Tx.Hash()
		if _, err := p.txCache.Get(TxHash); err == nil {
			return nil
		}
		if err := p.txCache.Set(TxHash, true); err != nil {
			return errors.WithStack(err)
		}
		raw, _, err := bin.WriterToBytes(msg.Tx)
		if err != nil {
			return err
		}
		if err := p.send(TopicHashTx, displayBytes(TxHash)); err != nil {
			return err
		}
		return p.send(TopicRawTx, raw)
	}
	return nil
}

func (p *Publisher) send(topic string, body []byte) error {
	seq := p.seqMap[topic]
	p.seqMap[topic] = seq + 1

	if err := p.sock.Send(zmq4.NewMsgFrom([]byte(topic), body, bin.Uint32Bytes(seq))); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// displayBytes returns the hash in the byte order it is displayed
func displayBytes(h hash.Hash256) []byte {
	bs := make([]byte, len(h))
	for i := range h {
		bs[len(h)-1-i] = h[i]
	}
	return bs
}
