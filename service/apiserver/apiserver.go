package apiserver

import (
	"net/http"
	"sync"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/meverselabs/coinnet/common/rlog"
	"github.com/meverselabs/coinnet/p2p/notify"
)

const workerCount = 16

type reqData struct {
	req   *JRPCRequest
	resCh chan *JRPCResponse
}

// APIServer provides json rpc and web service for the node
type APIServer struct {
	sync.Mutex
	e       *echo.Echo
	subMap  map[string]*JRPCSub
	feedMap map[*feed]bool
	reqCh   chan *reqData
	done    chan struct{}
	isClose bool
	logger  rlog.Logger
}

// NewAPIServer returns a APIServer with its routes and workers ready
func NewAPIServer() *APIServer {
	s := &APIServer{
		e:       echo.New(),
		subMap:  map[string]*JRPCSub{},
		feedMap: map[*feed]bool{},
		reqCh:   make(chan *reqData),
		done:    make(chan struct{}),
		logger:  rlog.New("module", "apiserver"),
	}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	s.e.POST("/api/endpoints/http", s.serveHTTP)
	s.e.GET("/api/endpoints/websocket", s.serveWebsocket)

	for i := 0; i < workerCount; i++ {
		go func() {
			for {
				select {
				case <-s.done:
					return
				case r := <-s.reqCh:
					r.resCh <- s.handleJRPC(r.req)
				}
			}
		}()
	}
	return s
}

// Name returns the name of the service
func (s *APIServer) Name() string {
	return "coinnet.apiserver"
}

// Handler returns the http handler of the server
func (s *APIServer) Handler() http.Handler {
	return s.e
}

// Mount serves the handler on GET path
func (s *APIServer) Mount(path string, h http.Handler) {
	s.e.GET(path, echo.WrapHandler(h))
}

// Run starts web service of the apiserver and blocks until it is closed
func (s *APIServer) Run(BindAddress string) error {
	s.logger.Info("Start API server", "addr", BindAddress)
	if err := s.e.Start(BindAddress); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close stops the server and drops the notification subscribers
func (s *APIServer) Close() error {
	s.Lock()
	if s.isClose {
		s.Unlock()
		return nil
	}
	s.isClose = true
	close(s.done)
	feeds := make([]*feed, 0, len(s.feedMap))
	for f := range s.feedMap {
		feeds = append(feeds, f)
	}
	s.feedMap = map[*feed]bool{}
	s.Unlock()

	for _, f := range feeds {
		f.Close()
	}
	return s.e.Close()
}

// Notify forwards the notification to every websocket subscriber
func (s *APIServer) Notify(n notify.Notification) {
	s.Lock()
	feeds := make([]*feed, 0, len(s.feedMap))
	for f := range s.feedMap {
		feeds = append(feeds, f)
	}
	s.Unlock()

	for _, f := range feeds {
		if !f.push(n) {
			s.logger.Debug("Drop slow subscriber", "addr", f.conn.RemoteAddr().String())
			s.removeFeed(f)
			f.Close()
		}
	}
}

func (s *APIServer) addFeed(f *feed) bool {
	s.Lock()
	defer s.Unlock()

	if s.isClose {
		return false
	}
	s.feedMap[f] = true
	return true
}

func (s *APIServer) removeFeed(f *feed) {
	s.Lock()
	defer s.Unlock()

	delete(s.feedMap, f)
}

// FeedCount returns the number of notification subscribers
func (s *APIServer) FeedCount() int {
	s.Lock()
	defer s.Unlock()

	return len(s.feedMap)
}
