// Command mpccommit builds a multi-protocol commitment over a sample set of
// protocols, then walks it through concealment, merge, and verification to
// exercise the library end to end.
package main

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/22388o/client-side-validation/pkg/mpc"
)

func main() {
	protocolCount := flag.Int("protocols", 4, "number of sample protocols to commit")
	minDepth := flag.Int("min-depth", 0, "minimum tree depth to start the builder search at")
	revealCount := flag.Int("reveal", 1, "number of protocols the first demo block reveals")
	dump := flag.Bool("dump", false, "cbor-dump the final merged block to stdout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *protocolCount < 1 {
		logger.Error("protocols must be positive", "protocols", *protocolCount)
		os.Exit(1)
	}
	if *revealCount < 1 || *revealCount > *protocolCount {
		logger.Error("reveal must be in [1, protocols]", "reveal", *revealCount, "protocols", *protocolCount)
		os.Exit(1)
	}

	pids, inputs := sampleProtocols(*protocolCount)

	tree, err := mpc.NewTree(inputs, mpc.Depth(*minDepth), randomEntropy())
	if err != nil {
		logger.Error("building tree failed", "err", err)
		os.Exit(1)
	}
	logger.Info("tree built", "depth", tree.Depth(), "cofactor", tree.Cofactor(), "protocols", len(pids))

	commitment, err := tree.Commitment()
	if err != nil {
		logger.Error("computing commitment failed", "err", err)
		os.Exit(1)
	}
	fmt.Printf("commitment: %s\n", hex.EncodeToString(commitment[:]))

	full, err := mpc.FromTree(tree)
	if err != nil {
		logger.Error("deriving block failed", "err", err)
		os.Exit(1)
	}

	revealed := map[mpc.ProtocolID]struct{}{}
	for _, p := range pids[:*revealCount] {
		revealed[p] = struct{}{}
	}
	concealed := map[mpc.ProtocolID]struct{}{}
	for _, p := range pids[*revealCount:] {
		concealed[p] = struct{}{}
	}

	left := full.ConcealExcept(revealed)
	right := full.ConcealExcept(concealed)

	for _, p := range pids[:*revealCount] {
		msg, err := left.Convolve(p)
		if err != nil {
			logger.Error("revealed protocol should convolve", "protocol", hex.EncodeToString(p[:4]), "err", err)
			os.Exit(1)
		}
		fmt.Printf("revealed  %s -> %s\n", hex.EncodeToString(p[:4]), hex.EncodeToString(msg[:4]))
	}

	merged, err := left.Merge(right)
	if err != nil {
		logger.Error("merging complementary blocks failed", "err", err)
		os.Exit(1)
	}

	mergedID, err := merged.CommitID()
	if err != nil {
		logger.Error("computing merged commit id failed", "err", err)
		os.Exit(1)
	}
	if !mergedID.Equal(commitment) {
		logger.Error("merged block does not reproduce the original commitment")
		os.Exit(1)
	}
	logger.Info("merge reproduced the original commitment", "commitment", hex.EncodeToString(mergedID[:]))

	for _, p := range pids {
		if _, err := merged.Convolve(p); err != nil {
			logger.Error("fully merged block should reveal every protocol", "protocol", hex.EncodeToString(p[:4]), "err", err)
			os.Exit(1)
		}
	}

	if *dump {
		encoded, err := cbor.Marshal(merged.Encode())
		if err != nil {
			logger.Error("cbor marshal failed", "err", err)
			os.Exit(1)
		}
		os.Stdout.Write(encoded)
		fmt.Println()
	}
}

// sampleProtocols generates n distinct protocol IDs (a 16-byte uuid.New
// value in the first 16 bytes, zero-padded to 32) each paired with a random
// 32-byte message.
func sampleProtocols(n int) ([]mpc.ProtocolID, []mpc.Inhabited) {
	pids := make([]mpc.ProtocolID, 0, n)
	inputs := make([]mpc.Inhabited, 0, n)
	for i := 0; i < n; i++ {
		var pid mpc.ProtocolID
		id := uuid.New()
		copy(pid[:16], id[:])

		var message mpc.Message
		if _, err := rand.Read(message[:]); err != nil {
			panic(err)
		}

		pids = append(pids, pid)
		inputs = append(inputs, mpc.Inhabited{Protocol: pid, Message: message})
	}
	return pids, inputs
}

// randomEntropy returns a CSPRNG-seeded filler value for entropy leaves.
func randomEntropy() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return binary.LittleEndian.Uint64(b[:])
}
