package apiserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo"
	"github.com/pkg/errors"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func decodeRequest(r io.Reader) (*JRPCRequest, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var req JRPCRequest
	if err := dec.Decode(&req); err != nil {
		return nil, errors.Wrap(ErrInvalidArgument, err.Error())
	}
	return &req, nil
}

func (s *APIServer) serveHTTP(c echo.Context) error {
	defer c.Request().Body.Close()

	req, err := decodeRequest(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, &JRPCResponse{JSONRPC: "2.0", Error: err.Error()})
	}
	res, err := s.request(req)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, &JRPCResponse{JSONRPC: req.JSONRPC, ID: req.ID, Error: err.Error()})
	}
	if res == nil {
		return c.NoContent(http.StatusOK)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *APIServer) serveWebsocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response().Writer, c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	Type := strings.ToLower(c.QueryParam("type"))
	switch Type {
	case "notifications":
		f := newFeed(conn)
		if !s.addFeed(f) {
			return nil
		}
		defer s.removeFeed(f)
		f.Run()
		return nil
	default:
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return nil
			}
			req, err := decodeRequest(bytes.NewReader(data))
			if err != nil {
				return err
			}
			res, err := s.request(req)
			if err != nil {
				return err
			}
			if res != nil {
				if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
					return err
				}
				if err := conn.WriteJSON(res); err != nil {
					return err
				}
			}
		}
	}
}

func (s *APIServer) request(req *JRPCRequest) (*JRPCResponse, error) {
	resCh := make(chan *JRPCResponse, 1)
	select {
	case <-s.done:
		return nil, errors.WithStack(ErrClosedServer)
	case s.reqCh <- &reqData{req: req, resCh: resCh}:
	}
	return <-resCh, nil
}

// JRPC provides the json rpc feature as a SubName.FunctionName methods
func (s *APIServer) JRPC(SubName string) (*JRPCSub, error) {
	s.Lock()
	defer s.Unlock()

	if _, has := s.subMap[SubName]; has {
		return nil, errors.Wrap(ErrExistSubName, SubName)
	}
	js := NewJRPCSub()
	s.subMap[SubName] = js
	return js, nil
}

func (s *APIServer) handleJRPC(req *JRPCRequest) *JRPCResponse {
	res := &JRPCResponse{
		JSONRPC: req.JSONRPC,
		ID:      req.ID,
	}
	ls := strings.SplitN(req.Method, ".", 2)
	if len(ls) != 2 {
		res.Error = ErrInvalidMethod.Error()
		return res
	}

	s.Lock()
	sub, has := s.subMap[ls[0]]
	s.Unlock()
	if !has {
		res.Error = ErrInvalidMethod.Error()
		return res
	}
	fn, has := sub.get(ls[1])
	if !has {
		if req.ID == nil {
			return nil
		}
		res.Error = ErrInvalidMethod.Error()
		return res
	}

	ret, err := fn(req.ID, NewArgument(req.Params))
	if req.ID == nil {
		return nil
	}
	if err != nil {
		res.Error = err.Error()
	} else {
		res.Result = ret
	}
	return res
}
