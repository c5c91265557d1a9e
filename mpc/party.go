package mpc

import "sync"

// NumParties is fixed by the Falcon protocol: three parties, honest majority.
const NumParties = 3

// Party is one protocol participant, modeled as an in-process actor. A party
// only ever touches its own PRG table and its own share handles; all
// cross-party synchronization happens at dispatch-then-reconstruct
// boundaries in the protocol layer.
type Party struct {
	pid  int
	Rand *Random
}

func (p *Party) Pid() int { return p.pid }

func next(pid int) int { return (pid + 1) % NumParties }
func prev(pid int) int { return (pid + 2) % NumParties }

// dispatch runs fn independently at every party on its own goroutine and
// blocks until all three contributions are collected. There is no
// inter-party dependency within a dispatched step.
func dispatch[T any](s *Session, fn func(p *Party) (T, error)) ([NumParties]T, error) {
	if len(s.parties) != NumParties {
		panic("mpc: dispatch requires a three-party session")
	}
	var out [NumParties]T
	var errs [NumParties]error
	var wg sync.WaitGroup
	for i := 0; i < NumParties; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i], errs[i] = fn(s.parties[i])
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
