package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meverselabs/coinnet/service/apiserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRequest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/endpoints/http", r.URL.Path)
		var req apiserver.JRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.ID)

		res := &apiserver.JRPCResponse{JSONRPC: "2.0", ID: req.ID}
		if req.Method == "node.height" {
			res.Result = 12
		} else {
			res.Error = apiserver.ErrInvalidMethod.Error()
		}
		json.NewEncoder(w).Encode(res)
	}))
	defer ts.Close()

	res, err := DoRequest(ts.URL, "node.height", []interface{}{})
	require.NoError(t, err)
	assert.Equal(t, float64(12), res)

	_, err = DoRequest(ts.URL, "node.mempool", []interface{}{})
	assert.EqualError(t, err, apiserver.ErrInvalidMethod.Error())
}
