package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/meverselabs/coinnet/cmd/closer"
	"github.com/meverselabs/coinnet/common/rlog"
	"github.com/meverselabs/coinnet/core/chain"
	"github.com/meverselabs/coinnet/core/types"
	"github.com/meverselabs/coinnet/core/utxo"
	"github.com/meverselabs/coinnet/core/wallet"
	"github.com/meverselabs/coinnet/p2p"
	"github.com/meverselabs/coinnet/p2p/notify"
	"github.com/meverselabs/coinnet/p2p/storage"
	"github.com/meverselabs/coinnet/service/apiserver"
	"github.com/meverselabs/coinnet/service/metrics"
	"github.com/meverselabs/coinnet/service/zmqpub"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "coinnet-node [config]",
		Short: "runs a bitcoin network node watching the configured accounts",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := run(args[0]); err != nil {
				rlog.Fatal(err)
			}
		},
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}
	if lvl := os.Getenv("LOG_LEVEL"); len(lvl) > 0 {
		if err := rlog.SetLevel(lvl); err != nil {
			return err
		}
	}

	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	network, err := p2p.NetworkByName(cfg.Network)
	if err != nil {
		return err
	}
	pcfg, err := cfg.P2PConfig(network)
	if err != nil {
		return err
	}
	accs, err := cfg.ParseAccounts()
	if err != nil {
		return err
	}
	addrs, err := cfg.Addresses(network, nil)
	if err != nil {
		return err
	}

	cm := closer.NewManager()
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		<-sigc
		cm.CloseAll()
	}()
	defer cm.CloseAll()

	book, err := storage.NewAddrBook(cfg.PeerStorePath)
	if err != nil {
		return err
	}
	cm.Add("addrbook", book)

	cn := chain.NewMemChain(network.Genesis())
	set := utxo.NewSet()
	wl := wallet.NewWatchWallet(accs...)
	met := metrics.NewMetrics("coinnet")

	done := make(chan struct{})
	defer close(done)
	uiCh := make(chan notify.Notification, 256)
	notifiers := notify.Multi{notify.NewChanNotifier(uiCh, done), met}

	var api *apiserver.APIServer
	if len(cfg.APIAddress) > 0 {
		api = apiserver.NewAPIServer()
		api.Mount("/metrics", met.Handler())
		notifiers = append(notifiers, api)
	}
	if len(cfg.ZMQAddress) > 0 {
		pub, err := zmqpub.NewPublisher(context.Background(), cfg.ZMQAddress)
		if err != nil {
			return err
		}
		cm.Add("zmqpub", pub)
		notifiers = append(notifiers, pub)
	}

	nd := p2p.NewNode(pcfg, network, cn, set, wl, notifiers, book)
	nd.Mesh().SetRecorder(met)
	mnCh := make(chan p2p.MessageNotify, 256)
	nd.SetMessageNotify(mnCh)

	if api != nil {
		if _, err := apiserver.NewNodeService(api, nd.Mesh(), cn, set, wl); err != nil {
			return err
		}
		cm.Add("apiserver", api)
		go func() {
			if err := api.Run(cfg.APIAddress); err != nil {
				rlog.Println("API server stopped:", err)
				cm.CloseAll()
			}
		}()
	}

	console := NewConsole(os.Stdout, func() (types.Account, int64, bool) {
		acc, has := nd.SelectedAccount()
		if !has {
			return acc, 0, false
		}
		return acc, set.Balance(acc), true
	})
	go console.Run(uiCh, mnCh, done)

	if err := nd.Run(); err != nil {
		return err
	}
	cm.Add("node", closer.Func(nd.Close))
	go func() {
		<-nd.Done()
		cm.CloseAll()
	}()

	rlog.Println("Node started on", network.Name(), "with", len(addrs), "addresses")
	for _, addr := range addrs {
		nd.Mesh().Discover(addr)
	}
	cm.Wait()
	return nil
}
