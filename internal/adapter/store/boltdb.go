package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"yada/internal/domain"
	"yada/internal/port"
)

var _ port.Store = (*BoltStore)(nil)

// Layout:
//
//	foods/<id>                         Food
//	users/<user>/entries/<date>        []FoodEntry
//	users/<user>/history/<seq>         Command
//	users/<user>/profile/active        Profile
//	users/<user>/profile_history/<seq> Profile
//	meta/schema_version                int
var (
	bucketFoods          = []byte("foods")
	bucketUsers          = []byte("users")
	bucketMeta           = []byte("meta")
	bucketEntries        = []byte("entries")
	bucketHistory        = []byte("history")
	bucketProfile        = []byte("profile")
	bucketProfileHistory = []byte("profile_history")
	keyActive            = []byte("active")
)

type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the database at path and brings its
// schema up to date.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketFoods, bucketUsers, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// SaveFoods replaces the whole catalog.
func (s *BoltStore) SaveFoods(ctx context.Context, foods []domain.Food) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := resetBucket(tx, nil, bucketFoods)
		if err != nil {
			return err
		}
		for _, f := range foods {
			if err := putJSON(b, []byte(f.ID), f); err != nil {
				return fmt.Errorf("failed to store food %s: %w", f.ID, err)
			}
		}
		return nil
	})
}

// LoadFoods returns the catalog ordered by ID.
func (s *BoltStore) LoadFoods(ctx context.Context) ([]domain.Food, error) {
	var foods []domain.Food
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFoods).ForEach(func(k, v []byte) error {
			var f domain.Food
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("failed to decode food %s: %w", k, err)
			}
			foods = append(foods, f)
			return nil
		})
	})
	return foods, err
}

func (s *BoltStore) SaveLedger(ctx context.Context, user string, state domain.LedgerState) error {
	byDate := make(map[string][]domain.FoodEntry)
	for _, de := range state.Entries {
		byDate[de.Date] = append(byDate[de.Date], de.Entry)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		ub, err := userBucket(tx, user)
		if err != nil {
			return err
		}

		entries, err := resetBucket(tx, ub, bucketEntries)
		if err != nil {
			return err
		}
		for date, seq := range byDate {
			if err := putJSON(entries, []byte(date), seq); err != nil {
				return fmt.Errorf("failed to store entries for %s: %w", date, err)
			}
		}

		history, err := resetBucket(tx, ub, bucketHistory)
		if err != nil {
			return err
		}
		for i, cmd := range state.History {
			if err := putJSON(history, seqKey(i), cmd); err != nil {
				return fmt.Errorf("failed to store command: %w", err)
			}
		}
		return nil
	})
}

// LoadLedger returns entries ordered by date, then insertion, and the
// command history oldest first.
func (s *BoltStore) LoadLedger(ctx context.Context, user string) (domain.LedgerState, error) {
	var state domain.LedgerState
	err := s.db.View(func(tx *bbolt.Tx) error {
		ub := tx.Bucket(bucketUsers).Bucket([]byte(user))
		if ub == nil {
			return nil
		}

		if b := ub.Bucket(bucketEntries); b != nil {
			err := b.ForEach(func(k, v []byte) error {
				var seq []domain.FoodEntry
				if err := json.Unmarshal(v, &seq); err != nil {
					return fmt.Errorf("failed to decode entries for %s: %w", k, err)
				}
				for _, e := range seq {
					state.Entries = append(state.Entries, domain.DatedEntry{Date: string(k), Entry: e})
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		if b := ub.Bucket(bucketHistory); b != nil {
			return b.ForEach(func(k, v []byte) error {
				var cmd domain.Command
				if err := json.Unmarshal(v, &cmd); err != nil {
					return fmt.Errorf("failed to decode command: %w", err)
				}
				state.History = append(state.History, cmd)
				return nil
			})
		}
		return nil
	})
	return state, err
}

func (s *BoltStore) SaveProfile(ctx context.Context, user string, state domain.ProfileState) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		ub, err := userBucket(tx, user)
		if err != nil {
			return err
		}

		pb, err := resetBucket(tx, ub, bucketProfile)
		if err != nil {
			return err
		}
		if state.Active != nil {
			if err := putJSON(pb, keyActive, state.Active); err != nil {
				return fmt.Errorf("failed to store profile: %w", err)
			}
		}

		hb, err := resetBucket(tx, ub, bucketProfileHistory)
		if err != nil {
			return err
		}
		for i, p := range state.History {
			if err := putJSON(hb, seqKey(i), p); err != nil {
				return fmt.Errorf("failed to store profile snapshot: %w", err)
			}
		}
		return nil
	})
}

func (s *BoltStore) LoadProfile(ctx context.Context, user string) (domain.ProfileState, error) {
	var state domain.ProfileState
	err := s.db.View(func(tx *bbolt.Tx) error {
		ub := tx.Bucket(bucketUsers).Bucket([]byte(user))
		if ub == nil {
			return nil
		}

		if pb := ub.Bucket(bucketProfile); pb != nil {
			if data := pb.Get(keyActive); data != nil {
				var p domain.Profile
				if err := json.Unmarshal(data, &p); err != nil {
					return fmt.Errorf("failed to decode profile: %w", err)
				}
				state.Active = &p
			}
		}

		if hb := ub.Bucket(bucketProfileHistory); hb != nil {
			return hb.ForEach(func(k, v []byte) error {
				var p domain.Profile
				if err := json.Unmarshal(v, &p); err != nil {
					return fmt.Errorf("failed to decode profile snapshot: %w", err)
				}
				state.History = append(state.History, p)
				return nil
			})
		}
		return nil
	})
	return state, err
}

func (s *BoltStore) Users(ctx context.Context) ([]string, error) {
	var users []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketUsers).ForEach(func(k, v []byte) error {
			if v == nil {
				users = append(users, string(k))
			}
			return nil
		})
	})
	sort.Strings(users)
	return users, err
}

func userBucket(tx *bbolt.Tx, user string) (*bbolt.Bucket, error) {
	if user == "" {
		return nil, fmt.Errorf("empty user name")
	}
	ub, err := tx.Bucket(bucketUsers).CreateBucketIfNotExists([]byte(user))
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket for user %s: %w", user, err)
	}
	return ub, nil
}

// resetBucket drops and recreates name under parent, or at the top level
// when parent is nil.
func resetBucket(tx *bbolt.Tx, parent *bbolt.Bucket, name []byte) (*bbolt.Bucket, error) {
	var (
		b   *bbolt.Bucket
		err error
	)
	if parent == nil {
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return nil, err
			}
		}
		b, err = tx.CreateBucket(name)
	} else {
		if parent.Bucket(name) != nil {
			if err := parent.DeleteBucket(name); err != nil {
				return nil, err
			}
		}
		b, err = parent.CreateBucket(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return b, nil
}

func putJSON(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// seqKey keeps ForEach order equal to insertion order.
func seqKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}
