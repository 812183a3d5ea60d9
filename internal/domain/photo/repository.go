package photo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository defines photo data access interface.
// Records are immutable: there is no update.
type Repository interface {
	List(ctx context.Context) ([]*Photo, error)
	GetByID(ctx context.Context, id int64) (*Photo, error)
	GetByShareID(ctx context.Context, shareID string) (*Photo, error)
	Create(ctx context.Context, p *NewPhoto) (*Photo, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// MemoryRepository keeps photos for the lifetime of the process
type MemoryRepository struct {
	mu     sync.RWMutex
	photos map[int64]*Photo
	nextID int64
	now    func() time.Time
}

// NewMemoryRepository creates an empty store. Ids start at 1.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		photos: make(map[int64]*Photo),
		nextID: 1,
		now:    time.Now,
	}
}

func (r *MemoryRepository) List(ctx context.Context) ([]*Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Photo, 0, len(r.photos))
	for _, p := range r.photos {
		out = append(out, clonePhoto(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.photos[id]
	if !ok {
		return nil, nil
	}
	return clonePhoto(p), nil
}

func (r *MemoryRepository) GetByShareID(ctx context.Context, shareID string) (*Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.photos {
		if p.ShareID == shareID {
			return clonePhoto(p), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Create(ctx context.Context, np *NewPhoto) (*Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &Photo{
		ID:         r.nextID,
		Type:       np.Type,
		Filter:     np.Filter,
		Background: np.Background,
		FilePath:   np.FilePath,
		PhotoURLs:  append(URLList(nil), np.PhotoURLs...),
		QRCode:     np.QRCode,
		ShareID:    np.ShareID,
		CreatedAt:  r.now(),
	}
	r.nextID++
	r.photos[p.ID] = p
	return clonePhoto(p), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.photos[id]; !ok {
		return false, nil
	}
	delete(r.photos, id)
	return true, nil
}

func clonePhoto(p *Photo) *Photo {
	c := *p
	c.PhotoURLs = append(URLList(nil), p.PhotoURLs...)
	return &c
}

// PostgresRepository stores photos in the photos table
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates new photo repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const photoColumns = `id, type, filter, background, file_path, photo_urls, qr_code, share_id, created_at`

func (r *PostgresRepository) List(ctx context.Context) ([]*Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos ORDER BY created_at DESC, id DESC`
	photos := []*Photo{}
	if err := r.db.SelectContext(ctx, &photos, query); err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = $1`
	var p Photo
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) GetByShareID(ctx context.Context, shareID string) (*Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE share_id = $1`
	var p Photo
	err := r.db.GetContext(ctx, &p, query, shareID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, np *NewPhoto) (*Photo, error) {
	query := `
		INSERT INTO photos (type, filter, background, file_path, photo_urls, qr_code, share_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + photoColumns
	var p Photo
	err := r.db.GetContext(ctx, &p, query,
		np.Type,
		np.Filter,
		np.Background,
		np.FilePath,
		URLList(np.PhotoURLs),
		np.QRCode,
		np.ShareID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert photo: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM photos WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
