package utils

import "fmt"

// DynBuffer is a growable message buffer, reused between exchange rounds
type DynBuffer[T any] struct {
	cells []T
}

func NewDynBuffer[T any](capacity int) *DynBuffer[T] {
	return &DynBuffer[T]{cells: make([]T, 0, capacity)}
}

func (db *DynBuffer[T]) Add(msg T)  { db.cells = append(db.cells, msg) }
func (db *DynBuffer[T]) Cells() []T { return db.cells }
func (db *DynBuffer[T]) Len() int   { return len(db.cells) }
func (db *DynBuffer[T]) Reset()     { db.cells = db.cells[:0] }

/*
MailBox moves messages between NP threads. The pattern for one exchange is:

	for range messages {Post}; Deliver; blockWait; Receive; blockWait

Each thread only touches its own post queues and its own inbox, the channels carry the filled buffers. The second
wait is required because the receiver resets the sender's buffer after copying out of it.
*/
type MailBox[T any] struct {
	NP           int
	MessageChans []chan *DynBuffer[T]    // One for each thread
	PostMsgQs    []map[int]*DynBuffer[T] // One for each thread, key is target thread
	ReceiveMsgQs []*DynBuffer[T]         // One for each thread
	MailFlag     []bool                  // MyThread has messages in outbox
}

func NewMailBox[T any](NP int) *MailBox[T] {
	mb := &MailBox[T]{
		NP:           NP,
		MessageChans: make([]chan *DynBuffer[T], NP),
		PostMsgQs:    make([]map[int]*DynBuffer[T], NP),
		ReceiveMsgQs: make([]*DynBuffer[T], NP),
		MailFlag:     make([]bool, NP),
	}
	for n := 0; n < NP; n++ {
		mb.MessageChans[n] = make(chan *DynBuffer[T], NP) // Worst case is all-to-all
		mb.PostMsgQs[n] = make(map[int]*DynBuffer[T])
		mb.ReceiveMsgQs[n] = NewDynBuffer[T](0)
	}
	return mb
}

func (mb *MailBox[T]) PostMessage(myThread, targetThread int, msg T) {
	if targetThread < 0 || targetThread > mb.NP-1 {
		panic(fmt.Sprintf("Target thread %d out of bounds", targetThread))
	}
	tgt, exists := mb.PostMsgQs[myThread][targetThread]
	if !exists {
		tgt = NewDynBuffer[T](1)
		mb.PostMsgQs[myThread][targetThread] = tgt
	}
	tgt.Add(msg)
	mb.MailFlag[myThread] = true
}

func (mb *MailBox[T]) DeliverMyMessages(myThread int) {
	if !mb.MailFlag[myThread] {
		return
	}
	for targetThread, msgBuffer := range mb.PostMsgQs[myThread] {
		if msgBuffer.Len() == 0 {
			continue
		}
		mb.MessageChans[targetThread] <- msgBuffer
	}
	mb.MailFlag[myThread] = false
}

func (mb *MailBox[T]) ReceiveMyMessages(myThread int) {
	for {
		select {
		case msgBuffer := <-mb.MessageChans[myThread]:
			for _, msg := range msgBuffer.Cells() {
				mb.ReceiveMsgQs[myThread].Add(msg)
			}
			msgBuffer.Reset() // Reset the originating buffer
		default:
			return
		}
	}
}

// TakeMyMessages receives, copies out and clears the inbox of myThread
func (mb *MailBox[T]) TakeMyMessages(myThread int) (msgs []T) {
	mb.ReceiveMyMessages(myThread)
	msgs = append(msgs, mb.ReceiveMsgQs[myThread].Cells()...)
	mb.ClearMyMessages(myThread)
	return
}

func (mb *MailBox[T]) ClearMyMessages(myThread int) {
	mb.ReceiveMsgQs[myThread].Reset()
}

type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// NewPartitionMapFromCounts builds a map whose bucket n holds counts[n] consecutive indices
func NewPartitionMapFromCounts(counts []int) (pm *PartitionMap) {
	pm = &PartitionMap{
		ParallelDegree: len(counts),
		Partitions:     make([][2]int, len(counts)),
	}
	for n, count := range counts {
		pm.Partitions[n] = [2]int{pm.MaxIndex, pm.MaxIndex + count}
		pm.MaxIndex += count
	}
	return
}

func (pm *PartitionMap) GetBucket(kDim int) (bucketNum, min, max int) {
	_, bucketNum, min, max = pm.getBucketWithTryCount(kDim)
	return
}

func (pm *PartitionMap) getBucketWithTryCount(kDim int) (tryCount, bucketNum, min, max int) {
	if kDim < 0 || kDim >= pm.MaxIndex {
		return 0, -1, 0, 0
	}
	// Initial guess
	bucketNum = int(float64(pm.ParallelDegree*kDim) / float64(pm.MaxIndex))
	for !(pm.Partitions[bucketNum][0] <= kDim && pm.Partitions[bucketNum][1] > kDim) {
		if pm.Partitions[bucketNum][0] > kDim {
			bucketNum--
		} else {
			bucketNum++
		}
		if bucketNum == -1 || bucketNum == pm.ParallelDegree {
			return 0, -1, 0, 0
		}
		tryCount++
	}
	min, max = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetLocalK(baseK int) (k, Kmax, bn int) {
	var (
		kmin, kmax int
	)
	bn, kmin, kmax = pm.GetBucket(baseK)
	Kmax = kmax - kmin
	k = baseK - kmin
	return
}

func (pm *PartitionMap) GetGlobalK(kLocal, bn int) (kGlobal int) {
	if bn == -1 {
		kGlobal = kLocal
		return
	}
	kGlobal = pm.Partitions[bn][0] + kLocal
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) (kMax int) {
	if bn == -1 {
		kMax = pm.MaxIndex
		return
	}
	var (
		k1, k2 = pm.GetBucketRange(bn)
	)
	kMax = k2 - k1
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// This routine splits one dimension into c.ParallelDegree pieces, with a maximum imbalance of one item
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}
