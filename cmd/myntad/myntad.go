// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Slashx124/mynta-core/blockchain"
	"github.com/Slashx124/mynta-core/dex"
	"github.com/Slashx124/mynta-core/evodb"
	"github.com/Slashx124/mynta-core/llmq"
	"github.com/Slashx124/mynta-core/mnlist"
)

// semver of the daemon shim.
func version() string {
	return "0.1.0"
}

// myntadMain is the real main function for myntad.  The managers are
// constructed in dependency order -- state database, masternode list,
// quorums, signing, then the lock subsystems and the order book -- and
// torn down in reverse.
func myntadMain() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	myntLog.Infof("Version %s", version())

	db, err := evodb.Open(filepath.Join(cfg.DataDir, "evodb"))
	if err != nil {
		return err
	}
	defer db.Close()

	chain := blockchain.NewBlockIndex()

	mnMgr, err := mnlist.NewManager(&mnlist.Config{
		ChainParams:           cfg.params,
		Chain:                 chain,
		DB:                    db,
		AllowPrivateEndpoints: cfg.RegressionTest,
	})
	if err != nil {
		return err
	}

	quorums, err := llmq.NewQuorumManager(&llmq.QuorumConfig{
		ChainParams: cfg.params,
		Chain:       chain,
		MNList:      mnMgr,
	})
	if err != nil {
		return err
	}

	// Recovered signatures fan out to both lock subsystems; the
	// dispatcher is bound after they are constructed.
	var dispatchRecovered func(*llmq.RecoveredSig)
	signing := llmq.NewSigningManager(&llmq.SigningConfig{
		ChainParams: cfg.params,
		Quorums:     quorums,
		BestHeight: func() int32 {
			if tip := chain.Tip(); tip != nil {
				return tip.Height
			}
			return 0
		},
		OnRecovered: func(rs *llmq.RecoveredSig) {
			if dispatchRecovered != nil {
				dispatchRecovered(rs)
			}
		},
	})

	instantSend := llmq.NewInstantSendManager(&llmq.InstantSendConfig{
		ChainParams: cfg.params,
		Signing:     signing,
	})

	chainLocks, err := llmq.NewChainLocksManager(&llmq.ChainLocksConfig{
		ChainParams: cfg.params,
		Chain:       chain,
		Signing:     signing,
		DB:          db,
	})
	if err != nil {
		return err
	}
	if best, _ := chainLocks.BestLocked(); best >= 0 {
		myntLog.Infof("Best chainlocked height: %d", best)
	}

	dispatchRecovered = func(rs *llmq.RecoveredSig) {
		instantSend.HandleNewRecoveredSig(rs)
		chainLocks.HandleNewRecoveredSig(rs)
	}

	orderBook, err := dex.NewOrderBook(&dex.OrderBookConfig{
		ChainParams: cfg.params,
		DB:          db,
	})
	if err != nil {
		return err
	}
	defer orderBook.Flush()

	myntLog.Infof("Consensus subsystems ready on %s", cfg.params.Name)

	// Block until an interrupt is received.  The block source feeding
	// the chain index (P2P, RPC) lives outside this subsystem.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	myntLog.Info("Shutting down")
	return nil
}

func main() {
	if err := myntadMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
