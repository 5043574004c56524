package main

import (
	"os"

	"github.com/blkchain/ingress/chain"
	"github.com/blkchain/ingress/journal"
	"github.com/blkchain/ingress/rpc"
	"github.com/blkchain/ingress/synchronizer"
	"github.com/blkchain/ingress/txpool"
	"github.com/btcsuite/btclog"
)

var (
	backendLog = btclog.NewBackend(os.Stdout)

	log     = backendLog.Logger("INGR")
	chanLog = backendLog.Logger("CHAN")
	syncLog = backendLog.Logger("SYNC")
	txplLog = backendLog.Logger("TXPL")
	rpcsLog = backendLog.Logger("RPCS")
	jrnlLog = backendLog.Logger("JRNL")
)

var subsystemLoggers = map[string]btclog.Logger{
	"INGR": log,
	"CHAN": chanLog,
	"SYNC": syncLog,
	"TXPL": txplLog,
	"RPCS": rpcsLog,
	"JRNL": jrnlLog,
}

func init() {
	chain.UseLogger(chanLog)
	synchronizer.UseLogger(syncLog)
	txpool.UseLogger(txplLog)
	rpc.UseLogger(rpcsLog)
	journal.UseLogger(jrnlLog)
}

// setLogLevels sets every subsystem logger to level, which must be one
// of trace, debug, info, warn, error, critical or off.
func setLogLevels(level string) bool {
	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		return false
	}
	for _, logger := range subsystemLoggers {
		logger.SetLevel(lvl)
	}
	return true
}
