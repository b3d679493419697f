// Package comm provides the collective operations used by SPMD workers. Each
// rank is a goroutine, messages move through a utils.MailBox and every
// collective is a post, deliver, wait, receive, wait round.
package comm

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/notargets/gocontact/utils"
)

var (
	ErrAborted     = errors.New("communicator aborted by another rank")
	ErrMessageSize = errors.New("send buffer count does not match communicator size")
)

// Communicator is the handle a rank uses for collective communication. Every
// rank of a group must call the same collectives in the same order.
type Communicator interface {
	Rank() int
	Size() int
	Barrier() error
	AllGatherFloat64(send []float64) ([][]float64, error)
	AllGatherInt(send []int) ([][]int, error)
	AllToAllFloat64(send [][]float64) ([][]float64, error)
	AllToAllInt(send [][]int) ([][]int, error)
	BroadcastFloat64(root int, data []float64) ([]float64, error)
	AllReduceMaxFloat64(val float64) (float64, error)
	AllReduceSumInt(val int) (int, error)
}

type envelope struct {
	Source int
	Floats []float64
	Ints   []int
}

type group struct {
	np      int
	mb      *utils.MailBox[envelope]
	barrier *barrier
}

func newGroup(np int) *group {
	return &group{
		np:      np,
		mb:      utils.NewMailBox[envelope](np),
		barrier: newBarrier(np),
	}
}

type rankComm struct {
	g    *group
	rank int
}

// Self returns a single rank communicator
func Self() Communicator {
	return &rankComm{g: newGroup(1)}
}

/*
Run launches np ranks, each calling fn with its own communicator, and waits for all of them. The first failing rank
breaks the group so that ranks blocked in a collective return ErrAborted. The error returned is the one that caused
the abort.
*/
func Run(np int, fn func(c Communicator) error) error {
	if np < 1 {
		return fmt.Errorf("number of ranks must be positive, have %d", np)
	}
	var (
		g    = newGroup(np)
		wg   sync.WaitGroup
		errs = make([]error, np)
	)
	for n := 0; n < np; n++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[rank] = fmt.Errorf("rank %d panic: %v", rank, r)
					g.barrier.Break()
				}
			}()
			if err := fn(&rankComm{g: g, rank: rank}); err != nil {
				errs[rank] = fmt.Errorf("rank %d: %w", rank, err)
				g.barrier.Break()
			}
		}(n)
	}
	wg.Wait()
	var aborted error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrAborted) {
			return err
		}
		if aborted == nil {
			aborted = err
		}
	}
	return aborted
}

func (c *rankComm) Rank() int { return c.rank }
func (c *rankComm) Size() int { return c.g.np }

func (c *rankComm) Barrier() error { return c.g.barrier.Wait() }

// exchange sends send[target] to every target and returns what arrived, indexed by source
func (c *rankComm) exchange(send []envelope) (recv []envelope, err error) {
	if len(send) != c.g.np {
		return nil, fmt.Errorf("%w: have %d, size %d", ErrMessageSize, len(send), c.g.np)
	}
	for tgt, env := range send {
		c.g.mb.PostMessage(c.rank, tgt, envelope{
			Source: c.rank,
			Floats: append([]float64(nil), env.Floats...),
			Ints:   append([]int(nil), env.Ints...),
		})
	}
	c.g.mb.DeliverMyMessages(c.rank)
	if err = c.g.barrier.Wait(); err != nil {
		return
	}
	msgs := c.g.mb.TakeMyMessages(c.rank)
	if err = c.g.barrier.Wait(); err != nil {
		return
	}
	if len(msgs) != c.g.np {
		return nil, fmt.Errorf("%w: rank %d received %d messages, expected %d", ErrMessageSize, c.rank, len(msgs), c.g.np)
	}
	recv = make([]envelope, c.g.np)
	for _, msg := range msgs {
		recv[msg.Source] = msg
	}
	return
}

func (c *rankComm) AllGatherFloat64(send []float64) (recv [][]float64, err error) {
	out := make([]envelope, c.g.np)
	for n := range out {
		out[n].Floats = send
	}
	var in []envelope
	if in, err = c.exchange(out); err != nil {
		return
	}
	recv = make([][]float64, c.g.np)
	for n, env := range in {
		recv[n] = env.Floats
	}
	return
}

func (c *rankComm) AllGatherInt(send []int) (recv [][]int, err error) {
	out := make([]envelope, c.g.np)
	for n := range out {
		out[n].Ints = send
	}
	var in []envelope
	if in, err = c.exchange(out); err != nil {
		return
	}
	recv = make([][]int, c.g.np)
	for n, env := range in {
		recv[n] = env.Ints
	}
	return
}

func (c *rankComm) AllToAllFloat64(send [][]float64) (recv [][]float64, err error) {
	if len(send) != c.g.np {
		return nil, fmt.Errorf("%w: have %d, size %d", ErrMessageSize, len(send), c.g.np)
	}
	out := make([]envelope, c.g.np)
	for n := range out {
		out[n].Floats = send[n]
	}
	var in []envelope
	if in, err = c.exchange(out); err != nil {
		return
	}
	recv = make([][]float64, c.g.np)
	for n, env := range in {
		recv[n] = env.Floats
	}
	return
}

func (c *rankComm) AllToAllInt(send [][]int) (recv [][]int, err error) {
	if len(send) != c.g.np {
		return nil, fmt.Errorf("%w: have %d, size %d", ErrMessageSize, len(send), c.g.np)
	}
	out := make([]envelope, c.g.np)
	for n := range out {
		out[n].Ints = send[n]
	}
	var in []envelope
	if in, err = c.exchange(out); err != nil {
		return
	}
	recv = make([][]int, c.g.np)
	for n, env := range in {
		recv[n] = env.Ints
	}
	return
}

func (c *rankComm) BroadcastFloat64(root int, data []float64) (recv []float64, err error) {
	if root < 0 || root >= c.g.np {
		return nil, fmt.Errorf("broadcast root %d out of range [0,%d)", root, c.g.np)
	}
	out := make([]envelope, c.g.np)
	if c.rank == root {
		for n := range out {
			out[n].Floats = data
		}
	}
	var in []envelope
	if in, err = c.exchange(out); err != nil {
		return
	}
	recv = in[root].Floats
	return
}

func (c *rankComm) AllReduceMaxFloat64(val float64) (max float64, err error) {
	var all [][]float64
	if all, err = c.AllGatherFloat64([]float64{val}); err != nil {
		return
	}
	max = math.Inf(-1)
	for _, v := range all {
		max = math.Max(max, v[0])
	}
	return
}

func (c *rankComm) AllReduceSumInt(val int) (sum int, err error) {
	var all [][]int
	if all, err = c.AllGatherInt([]int{val}); err != nil {
		return
	}
	for _, v := range all {
		sum += v[0]
	}
	return
}
