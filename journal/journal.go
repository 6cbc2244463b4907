// Package journal provides a durable downstream consumer: a subscriber that
// persists every buffer it receives to a nutsdb bucket. It requests demand
// in fixed batches, so upstream operators see a consumer with real, bounded
// demand.
package journal

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"sync"

	"github.com/pkg/errors"
	"github.com/xujiajun/nutsdb"

	"github.com/streamwerks/flux/log"
	"github.com/streamwerks/flux/rx"
)

// Sink persists buffers of type C in arrival order. After a terminal signal
// or a write failure the sink cancels its subscription and Done is closed;
// Err reports what stopped it.
type Sink[C any] struct {
	db     *nutsdb.DB
	bucket string
	batch  int64
	logger log.Logger

	mu      sync.Mutex
	sub     rx.Subscription
	seq     uint64
	pending int64
	err     error
	closed  bool
	done    chan struct{}
}

// NewSink opens (or reopens) a nutsdb database under dir and journals into
// bucket. batch is the demand requested at a time; it must be positive.
func NewSink[C any](dir, bucket string, batch int64) (*Sink[C], error) {
	if batch <= 0 {
		return nil, errors.New("journal: batch must be positive")
	}
	opts := nutsdb.DefaultOptions
	opts.Dir = dir
	db, err := nutsdb.Open(opts)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to open journal db")
	}
	return &Sink[C]{
		db:     db,
		bucket: bucket,
		batch:  batch,
		logger: log.Global().Named("journal"),
		done:   make(chan struct{}),
	}, nil
}

func (s *Sink[C]) OnSubscribe(sub rx.Subscription) {
	s.mu.Lock()
	if s.sub != nil || s.closed {
		s.mu.Unlock()
		sub.Cancel()
		return
	}
	s.sub = sub
	s.pending = s.batch
	s.mu.Unlock()
	sub.Request(s.batch)
}

func (s *Sink[C]) OnNext(buffer C) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	key := s.seq
	s.seq++
	s.pending--
	refill := s.pending == 0
	if refill {
		s.pending = s.batch
	}
	sub := s.sub
	s.mu.Unlock()

	if err := s.persist(key, buffer); err != nil {
		s.logger.Errorw("failed to journal buffer", "error", err)
		if sub != nil {
			sub.Cancel()
		}
		s.finish(err)
		return
	}
	if refill && sub != nil {
		sub.Request(s.batch)
	}
}

func (s *Sink[C]) OnError(err error) {
	s.finish(errors.WithMessage(err, "journal upstream"))
}

func (s *Sink[C]) OnComplete() {
	s.finish(nil)
}

func (s *Sink[C]) persist(seq uint64, buffer C) error {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(buffer); err != nil {
		return errors.WithMessage(err, "failed to encode buffer to gob bytes")
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return s.db.Update(func(tx *nutsdb.Tx) error {
		return tx.Put(s.bucket, key, payload.Bytes(), 0)
	})
}

func (s *Sink[C]) finish(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	s.sub = nil
	s.mu.Unlock()
	close(s.done)
}

// Done is closed once the sink stopped consuming, for any reason.
func (s *Sink[C]) Done() <-chan struct{} {
	return s.done
}

// Err reports why the sink stopped; nil after a normal completion.
func (s *Sink[C]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Buffers reads back every journaled buffer in arrival order.
func (s *Sink[C]) Buffers() ([]C, error) {
	var out []C
	err := s.db.View(func(tx *nutsdb.Tx) error {
		entries, err := tx.GetAll(s.bucket)
		if err != nil {
			if errors.Is(err, nutsdb.ErrBucketEmpty) {
				return nil
			}
			return errors.WithMessagef(err, "failed to read journal bucket %s", s.bucket)
		}
		for _, entry := range entries {
			var buffer C
			if err := gob.NewDecoder(bytes.NewReader(entry.Value)).Decode(&buffer); err != nil {
				return errors.WithMessage(err, "failed to decode gob bytes")
			}
			out = append(out, buffer)
		}
		return nil
	})
	return out, err
}

// Close releases the underlying database. The sink must not be subscribed
// afterwards.
func (s *Sink[C]) Close() error {
	s.finish(s.Err())
	return s.db.Close()
}
