package scene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/branchplay/branchplay/internal/database"
	"github.com/jackc/pgx/v5"
)

var ErrSceneNotFound = errors.New("scene not found")

// Store persists authored scenes. Questions are kept as a JSONB array in
// definition order.
type Store struct {
	db database.DBTX
}

func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]Scene, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, video_url, video_key, duration_seconds, questions FROM scenes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query scenes: %w", err)
	}
	defer rows.Close()

	scenes := make([]Scene, 0)
	for rows.Next() {
		sc, err := scanScene(rows)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenes: %w", err)
	}
	return scenes, nil
}

func (s *Store) Get(ctx context.Context, id string) (Scene, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, title, video_url, video_key, duration_seconds, questions FROM scenes WHERE id = $1`,
		id,
	)
	sc, err := scanScene(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Scene{}, ErrSceneNotFound
	}
	return sc, err
}

func (s *Store) Upsert(ctx context.Context, sc Scene) error {
	if err := Validate(sc); err != nil {
		return err
	}
	questions, err := json.Marshal(CloneQuestions(sc.Questions))
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	if _, err := s.db.Exec(ctx,
		`INSERT INTO scenes (id, title, video_url, video_key, duration_seconds, questions)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, video_url = EXCLUDED.video_url,
		   video_key = EXCLUDED.video_key, duration_seconds = EXCLUDED.duration_seconds,
		   questions = EXCLUDED.questions, updated_at = now()`,
		sc.ID, sc.Title, sc.VideoURL, sc.VideoKey, sc.DurationSeconds, questions,
	); err != nil {
		return fmt.Errorf("upsert scene: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM scenes WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete scene: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// LoadInto copies every stored scene into the catalog. Rows that no longer
// validate are skipped and logged.
func (s *Store) LoadInto(ctx context.Context, c *Catalog) (int, error) {
	scenes, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, sc := range scenes {
		if err := c.Put(sc); err != nil {
			slog.Warn("scene store: skipping invalid scene", "scene_id", sc.ID, "error", err)
			continue
		}
		loaded++
	}
	return loaded, nil
}

func scanScene(row pgx.Row) (Scene, error) {
	var sc Scene
	var questions []byte
	if err := row.Scan(&sc.ID, &sc.Title, &sc.VideoURL, &sc.VideoKey, &sc.DurationSeconds, &questions); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Scene{}, err
		}
		return Scene{}, fmt.Errorf("scan scene: %w", err)
	}
	sc.Questions = []Question{}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &sc.Questions); err != nil {
			return Scene{}, fmt.Errorf("decode questions for scene %s: %w", sc.ID, err)
		}
	}
	return sc, nil
}
