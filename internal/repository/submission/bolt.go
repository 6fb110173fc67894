package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jgivc/celty/internal/entity"
	"go.etcd.io/bbolt"
)

const (
	boltBucketSubmissions = "submissions" // key: torrent id -> Record JSON
	boltOpenTimeout       = time.Second
)

type boltRepository struct {
	db  *bbolt.DB
	log *slog.Logger
}

// NewBoltRepository opens the history file at path, creating it if needed.
// It serves hosts without redis.
func NewBoltRepository(path string, log *slog.Logger) (*boltRepository, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("cannot open history file %s: %w", path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketSubmissions))

		return err
	}); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("cannot init history file %s: %w", path, err)
	}

	return &boltRepository{
		db:  db,
		log: log.With(slog.String("item", "BoltRepository")),
	}, nil
}

func (r *boltRepository) Exists(_ context.Context, id string) (bool, error) {
	var exists bool

	err := r.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket([]byte(boltBucketSubmissions)).Get([]byte(id)) != nil

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("cannot check submission %s: %w", id, err)
	}

	return exists, nil
}

func (r *boltRepository) Save(_ context.Context, sub *entity.Submission) error {
	data, err := json.Marshal(newRecord(sub))
	if err != nil {
		return fmt.Errorf("cannot marshal submission %s: %w", sub.Torrent.ID, err)
	}

	err = r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketSubmissions)).Put([]byte(sub.Torrent.ID), data)
	})
	if err != nil {
		r.log.Error("Cannot save submission", slog.String("id", sub.Torrent.ID), slog.Any("error", err))

		return fmt.Errorf("cannot save submission %s: %w", sub.Torrent.ID, err)
	}

	return nil
}

func (r *boltRepository) List(_ context.Context) ([]*Record, error) {
	var records []*Record

	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketSubmissions)).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				r.log.Error("Cannot decode submission", slog.String("id", string(k)), slog.Any("error", err))

				return nil
			}

			rec.ID = string(k)
			records = append(records, &rec)

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("cannot list submissions: %w", err)
	}

	return records, nil
}

func (r *boltRepository) Delete(_ context.Context, id string) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketSubmissions)).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("cannot delete submission %s: %w", id, err)
	}

	return nil
}

func (r *boltRepository) Close() error {
	return r.db.Close()
}
