package main

import (
	"context"
	"math/big"
	"math/rand"

	"github.com/sirupsen/logrus"
	plogrus "perun.network/go-perun/log/logrus"

	"github.com/lendfi/paychan/channel"
	"github.com/lendfi/paychan/client"
	"github.com/lendfi/paychan/config"
	"github.com/lendfi/paychan/funds"
	"github.com/lendfi/paychan/store"
	"github.com/lendfi/paychan/wallet"
)

// Demo run: open a channel between two random participants, move the balance
// once off-ledger, and settle.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	plogrus.Set(logrus.Level(cfg.LogLevel), &logrus.TextFormatter{})

	rng := rand.New(rand.NewSource(1))
	w := wallet.NewEphemeralWallet()

	admin, err := w.AddNewAccount(rng)
	if err != nil {
		panic(err)
	}
	alice, err := w.AddNewAccount(rng)
	if err != nil {
		panic(err)
	}
	bob, err := w.AddNewAccount(rng)
	if err != nil {
		panic(err)
	}

	cfg.Admin = admin.Address()

	var st store.ChannelStore
	if cfg.StoreType == "badger" {
		st, err = store.NewBadgerStore(cfg.Datadir, nil)
		if err != nil {
			panic(err)
		}
	} else {
		st = store.NewInMemoryStore()
	}
	defer st.Close()

	bank := funds.NewBank()
	if err := bank.Mint(alice.Address(), big.NewInt(1_000_000)); err != nil {
		panic(err)
	}

	engine := channel.NewEngine(cfg, st, bank)
	aliceClient := client.New(engine, alice)
	bobClient := client.New(engine, bob)

	ctx := context.Background()
	id, err := aliceClient.OpenChannel(ctx, bob.Address(), big.NewInt(500), big.NewInt(500), cfg.MinTimeout)
	if err != nil {
		panic(err)
	}

	update, err := aliceClient.ProposeUpdate(ctx, id, big.NewInt(300), big.NewInt(700))
	if err != nil {
		panic(err)
	}
	if err := bobClient.Countersign(ctx, update); err != nil {
		panic(err)
	}
	if err := aliceClient.SubmitUpdate(ctx, update); err != nil {
		panic(err)
	}

	if err := bobClient.CloseChannel(ctx, id, nil); err != nil {
		panic(err)
	}

	logrus.Infof("settled: alice=%s bob=%s treasury=%s",
		bank.Balance(alice.Address()), bank.Balance(bob.Address()), bank.Treasury())
}
