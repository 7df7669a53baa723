package apiserver

import (
	"sort"

	"github.com/meverselabs/coinnet/core/chain"
	"github.com/meverselabs/coinnet/core/types"
	"github.com/meverselabs/coinnet/core/wallet"
	"github.com/meverselabs/coinnet/p2p/peer"
)

// PeerLister lists the connections of the mesh
type PeerLister interface {
	Peers() []peer.Conn
}

// UTXOView reads the spendable outputs of an account
type UTXOView interface {
	Query(acc types.Account) []*types.UnspentOutput
	Balance(acc types.Account) int64
}

// PeerInfo is the json form of a connection
type PeerInfo struct {
	ID            string `json:"id"`
	Address       string `json:"address"`
	Type          string `json:"type"`
	State         string `json:"state"`
	ConnectedTime int64  `json:"connected_time"`
}

// UTXOInfo is the json form of an unspent output
type UTXOInfo struct {
	TxID   string `json:"txid"`
	Index  uint32 `json:"index"`
	Value  int64  `json:"value"`
	Height int32  `json:"height"`
}

// NodeService serves the status of the node as the node.* methods
type NodeService struct {
	mesh   PeerLister
	cn     chain.Blockchain
	utxos  UTXOView
	wallet wallet.Wallet
}

// NewNodeService returns a NodeService registered on the api server
func NewNodeService(api *APIServer, mesh PeerLister, cn chain.Blockchain, utxos UTXOView, wl wallet.Wallet) (*NodeService, error) {
	s := &NodeService{
		mesh:   mesh,
		cn:     cn,
		utxos:  utxos,
		wallet: wl,
	}
	js, err := api.JRPC("node")
	if err != nil {
		return nil, err
	}
	js.Set("peers", s.peers)
	js.Set("height", s.height)
	js.Set("utxos", s.utxoList)
	js.Set("balance", s.balance)
	js.Set("accounts", s.accounts)
	return s, nil
}

func (s *NodeService) peers(ID interface{}, arg *Argument) (interface{}, error) {
	list := []*PeerInfo{}
	for _, p := range s.mesh.Peers() {
		list = append(list, &PeerInfo{
			ID:            p.ID().String(),
			Address:       p.ID().Address,
			Type:          p.ID().Type.String(),
			State:         p.State().String(),
			ConnectedTime: p.ConnectedTime(),
		})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *NodeService) height(ID interface{}, arg *Argument) (interface{}, error) {
	return s.cn.Height(), nil
}

func (s *NodeService) utxoList(ID interface{}, arg *Argument) (interface{}, error) {
	acc, err := arg.Account(0)
	if err != nil {
		return nil, err
	}
	list := []*UTXOInfo{}
	for _, uo := range s.utxos.Query(acc) {
		list = append(list, &UTXOInfo{
			TxID:   uo.OutPoint.Hash.String(),
			Index:  uo.OutPoint.Index,
			Value:  uo.TxOut.Value,
			Height: uo.Height,
		})
	}
	return list, nil
}

func (s *NodeService) balance(ID interface{}, arg *Argument) (interface{}, error) {
	acc, err := arg.Account(0)
	if err != nil {
		return nil, err
	}
	return s.utxos.Balance(acc), nil
}

func (s *NodeService) accounts(ID interface{}, arg *Argument) (interface{}, error) {
	list := []string{}
	for _, acc := range s.wallet.Accounts() {
		list = append(list, acc.String())
	}
	return list, nil
}
