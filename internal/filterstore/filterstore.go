// Package filterstore implements the consumption filter store (§4.2): a
// set-membership filter per spatial region, with optimistic-concurrency
// sequence numbers, backing the "a drop can be claimed at most once"
// guarantee (I5).
package filterstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clusterium/invledger/internal/idhash"
	"github.com/clusterium/invledger/internal/metrics"
)

// ClaimResult is the outcome of TryClaim.
type ClaimResult int

const (
	// Claimed means the drop was not previously recorded as consumed and
	// has now been marked so.
	Claimed ClaimResult = iota
	// AlreadyConsumed means the filter reported "possibly in set" — the
	// pessimistic policy treats a collision as a spent claim.
	AlreadyConsumed
)

// regionDocument mirrors the spatial store schema in §6.
type regionDocument struct {
	RegionKey      []byte `bson:"_id"`
	BitArray       []byte `bson:"bit_array"`
	NumHashes      int32  `bson:"num_hashes"`
	NumBits        int32  `bson:"num_bits"`
	SequenceNumber int32  `bson:"sequence_number"`
}

// regionCollection is the minimal surface filterstore needs from a Mongo
// collection, narrowed to an interface so tests can substitute a fake
// instead of driving a real MongoDB deployment.
type regionCollection interface {
	FindOne(ctx context.Context, regionKey []byte) (*regionDocument, error)
	InsertOne(ctx context.Context, doc regionDocument) error
	CompareAndSwap(ctx context.Context, regionKey []byte, expectedSeq int32, newBitArray []byte) (bool, error)
}

// Store is the consumption filter store, backed by a document collection
// keyed by region_key.
type Store struct {
	coll       regionCollection
	maxRetries int
}

// Connect opens a MongoDB client and returns a Store backed by the named
// database's "consumption_regions" collection.
func Connect(ctx context.Context, uri, database string, maxRetries int) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect filter store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping filter store: %w", err)
	}

	coll := client.Database(database).Collection("consumption_regions")
	return &Store{coll: &mongoRegionCollection{coll: coll}, maxRetries: maxRetries}, nil
}

// newForTest builds a Store over a caller-supplied fake collection.
func newForTest(coll regionCollection, maxRetries int) *Store {
	return &Store{coll: coll, maxRetries: maxRetries}
}

// ErrContentionExceeded is returned when the CAS retry loop in TryClaim runs
// out of attempts without a clean win or loss (§4.2's "implementers may
// bound retries ... and surface a ContentionExceeded error").
var ErrContentionExceeded = errors.New("filter store: contention exceeded")

// TryClaim attempts to claim the spatially anchored drop at (x,y,z,a). It
// implements the loop in §4.2 exactly: read the region filter, test
// membership, and on a miss, write back a CAS-guarded update with the
// element inserted, retrying on a sequence-number mismatch.
func (s *Store) TryClaim(ctx context.Context, x, y, z int64, a uint32) (ClaimResult, error) {
	elementKey := idhash.XYZAUUID(x, y, z, a)
	regionKey := idhash.RegionKey(x, y, z, a)

	attempts := s.maxRetries
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		doc, err := s.coll.FindOne(ctx, regionKey[:])
		if err != nil {
			return AlreadyConsumed, fmt.Errorf("read region: %w", err)
		}

		if doc == nil {
			filter := newBloomFilter(DefaultNumBits, DefaultNumHashes).Inserted(elementKey)
			newDoc := regionDocument{
				RegionKey:      regionKey[:],
				BitArray:       filter.Bytes(),
				NumHashes:      DefaultNumHashes,
				NumBits:        DefaultNumBits,
				SequenceNumber: 1,
			}
			if err := s.coll.InsertOne(ctx, newDoc); err != nil {
				if isDuplicateKey(err) {
					metrics.FilterCASRetriesTotal.Inc()
					continue // concurrent writer created the region first; retry the read
				}
				return AlreadyConsumed, fmt.Errorf("insert region: %w", err)
			}
			metrics.ClaimsTotal.WithLabelValues("claimed").Inc()
			return Claimed, nil
		}

		filter := bloomFilterFromBytes(doc.BitArray, uint32(doc.NumBits), uint32(doc.NumHashes))
		if filter.MightContain(elementKey) {
			metrics.ClaimsTotal.WithLabelValues("already_consumed").Inc()
			return AlreadyConsumed, nil
		}

		next := filter.Inserted(elementKey)
		ok, err := s.coll.CompareAndSwap(ctx, regionKey[:], doc.SequenceNumber, next.Bytes())
		if err != nil {
			return AlreadyConsumed, fmt.Errorf("compare-and-swap region: %w", err)
		}
		if ok {
			metrics.ClaimsTotal.WithLabelValues("claimed").Inc()
			return Claimed, nil
		}
		// A concurrent writer advanced sequence_number first; restart
		// from a fresh read (§4.2 step 5-6).
		metrics.FilterCASRetriesTotal.Inc()
	}

	metrics.ClaimsTotal.WithLabelValues("contention_exceeded").Inc()
	return AlreadyConsumed, fmt.Errorf("%w for region %x", ErrContentionExceeded, regionKey)
}

// errDuplicateKey is the sentinel regionCollection implementations (real or
// fake) should wrap/return when InsertOne loses a concurrent first-touch
// race on region_key.
var errDuplicateKey = errors.New("filter store: duplicate region key")

func isDuplicateKey(err error) bool {
	if errors.Is(err, errDuplicateKey) {
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == 11000
	}
	return false
}
