package mpc

import (
	"fmt"
	"os"
	"path"

	"github.com/aead/chacha20/chacha"
	"github.com/hhcho/frand"
	"go.dedis.ch/onet/v3/log"

	"github.com/hhcho/falcon/ring"
)

// Random holds one party's PRG table: a PRG shared by all parties, one PRG
// per pairwise relationship, and a private local PRG. Pairwise PRGs back the
// communication-free correlated randomness (PRZS and PRSS): both holders of
// a seed draw the same stream as long as every protocol step is executed by
// all parties in the same order.
type Random struct {
	pid      int
	prgTable map[int]*frand.RNG
	curPRG   *frand.RNG
}

const (
	bufferSize   int = 1024
	chachaRounds     = 20

	// GlobalPRG selects the PRG whose seed all parties share.
	GlobalPRG int = -1
)

func sortInt(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}

func readSeed(sharedKeysPath, name string) []byte {
	seed := make([]byte, chacha.KeySize)
	key, err := os.ReadFile(path.Join(sharedKeysPath, name))
	if err != nil {
		panic(err)
	}
	copy(seed, key)
	return seed
}

// InitializePRGs builds the PRG table for every party of an in-process
// session. If sharedKeysPath is set, seeds are read from the same key files
// a deployed party would use; otherwise fresh random seeds are drawn once
// and handed to both holders.
func InitializePRGs(numParties int, sharedKeysPath string) []*Random {
	if sharedKeysPath == "" {
		log.LLvl1("shared_keys_path not set; generating session-local PRG seeds")
	}

	freshSeed := func() []byte {
		seed := make([]byte, chacha.KeySize)
		frand.Read(seed)
		return seed
	}

	var globalSeed []byte
	if sharedKeysPath != "" {
		globalSeed = readSeed(sharedKeysPath, "shared_key_global.bin")
	} else {
		globalSeed = freshSeed()
	}

	pairSeeds := make(map[[2]int][]byte)
	for i := 0; i < numParties; i++ {
		for j := i + 1; j < numParties; j++ {
			if sharedKeysPath != "" {
				pairSeeds[[2]int{i, j}] = readSeed(sharedKeysPath, fmt.Sprintf("shared_key_%d_%d.bin", i, j))
			} else {
				pairSeeds[[2]int{i, j}] = freshSeed()
			}
		}
	}

	out := make([]*Random, numParties)
	for pid := 0; pid < numParties; pid++ {
		prgTable := make(map[int]*frand.RNG)
		prgTable[GlobalPRG] = frand.NewCustom(globalSeed, bufferSize, chachaRounds)
		for other := 0; other < numParties; other++ {
			if other == pid {
				continue
			}
			a, b := sortInt(pid, other)
			prgTable[other] = frand.NewCustom(pairSeeds[[2]int{a, b}], bufferSize, chachaRounds)
		}
		prgTable[pid] = frand.NewCustom(freshSeed(), bufferSize, chachaRounds)
		out[pid] = &Random{
			pid:      pid,
			prgTable: prgTable,
			curPRG:   prgTable[pid],
		}
	}
	return out
}

// NewDealerRandom returns an independent PRG for roles that sit outside the
// party tables: the triple dealer and the TTP share-conversion helpers.
func NewDealerRandom() *Random {
	seed := make([]byte, chacha.KeySize)
	frand.Read(seed)
	prg := frand.NewCustom(seed, bufferSize, chachaRounds)
	return &Random{
		pid:      0,
		prgTable: map[int]*frand.RNG{0: prg},
		curPRG:   prg,
	}
}

func (rand *Random) SwitchPRG(otherPid int) {
	rand.curPRG = rand.prgTable[otherPid]
}

func (rand *Random) RestorePRG() {
	rand.curPRG = rand.prgTable[rand.pid]
}

func (rand *Random) RandRead(buf []byte) {
	rand.curPRG.Read(buf)
}

func (rand *Random) RandElem(rg ring.Ring) uint64 {
	return rg.RandElem(rand.curPRG)
}

func (rand *Random) RandVec(rg ring.Ring, n int) ring.Vec {
	return rg.RandVec(rand.curPRG, n)
}
