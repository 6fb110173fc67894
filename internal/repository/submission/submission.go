package submission

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jgivc/celty/internal/entity"
	"github.com/redis/go-redis/v9"
)

const (
	KeySubmission = "sub" // HASH. sub:{torrent_id} gid, path, dir, series, at

	FieldGID    = "gid"
	FieldPath   = "path"
	FieldDir    = "dir"
	FieldSeries = "series"
	FieldAt     = "at"

	KeySeparator = ":"

	ScanCount = 1000
)

// Record is a stored submission.
type Record struct {
	ID          string    `json:"-"`
	GID         string    `json:"gid"`
	Path        string    `json:"path"`
	DownloadDir string    `json:"dir"`
	Series      string    `json:"series"`
	SubmittedAt time.Time `json:"at"`
}

func newRecord(sub *entity.Submission) *Record {
	return &Record{
		ID:          sub.Torrent.ID,
		GID:         sub.GID,
		Path:        sub.Torrent.Path,
		DownloadDir: sub.Resolution.DownloadDir,
		Series:      sub.Resolution.SeriesName(),
		SubmittedAt: sub.SubmittedAt,
	}
}

type submissionRepository struct {
	cl  *redis.Client
	log *slog.Logger
}

func NewSubmissionRepository(cl *redis.Client, log *slog.Logger) *submissionRepository {
	return &submissionRepository{
		cl:  cl,
		log: log.With(slog.String("item", "SubmissionRepository")),
	}
}

func (r *submissionRepository) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.cl.Exists(ctx, getKey(KeySubmission, id)).Result()
	if err != nil {
		return false, fmt.Errorf("cannot check submission %s: %w", id, err)
	}

	return n > 0, nil
}

func (r *submissionRepository) Save(ctx context.Context, sub *entity.Submission) error {
	key := getKey(KeySubmission, sub.Torrent.ID)
	rec := newRecord(sub)

	_, err := r.cl.HSet(ctx, key,
		FieldGID, rec.GID,
		FieldPath, rec.Path,
		FieldDir, rec.DownloadDir,
		FieldSeries, rec.Series,
		FieldAt, rec.SubmittedAt.UTC().Format(time.RFC3339),
	).Result()
	if err != nil {
		r.log.Error("Cannot save submission", slog.String("key", key), slog.Any("error", err))

		return fmt.Errorf("cannot save submission %s: %w", sub.Torrent.ID, err)
	}

	return nil
}

// List returns every stored submission.
func (r *submissionRepository) List(ctx context.Context) ([]*Record, error) {
	var (
		cursor  uint64
		records []*Record
	)

	pattern := getKey(KeySubmission, "*")
	for {
		keys, nextCursor, err := r.cl.Scan(ctx, cursor, pattern, ScanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("error scanning keys: %w", err)
		}

		if len(keys) > 0 {
			pipe := r.cl.Pipeline()
			cmds := make([]*redis.MapStringStringCmd, len(keys))
			for i, key := range keys {
				cmds[i] = pipe.HGetAll(ctx, key)
			}

			if _, err := pipe.Exec(ctx); err != nil {
				return nil, fmt.Errorf("cannot exec pipe: %w", err)
			}

			for i, cmd := range cmds {
				fields, err := cmd.Result()
				if err != nil {
					r.log.Error("Cannot get submission", slog.String("key", keys[i]), slog.Any("error", err))

					continue
				}

				id := strings.TrimPrefix(keys[i], KeySubmission+KeySeparator)
				records = append(records, toRecord(id, fields, r.log))
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return records, nil
}

func (r *submissionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.cl.Del(ctx, getKey(KeySubmission, id)).Result(); err != nil {
		return fmt.Errorf("cannot delete submission %s: %w", id, err)
	}

	return nil
}

func toRecord(id string, fields map[string]string, log *slog.Logger) *Record {
	rec := &Record{
		ID:          id,
		GID:         fields[FieldGID],
		Path:        fields[FieldPath],
		DownloadDir: fields[FieldDir],
		Series:      fields[FieldSeries],
	}

	if at := fields[FieldAt]; at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			log.Error("Cannot parse submission time", slog.String("id", id), slog.Any("error", err))
		} else {
			rec.SubmittedAt = t
		}
	}

	return rec
}

func getKey(keys ...string) string {
	return strings.Join(keys, KeySeparator)
}
