package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lwatty24/fortniteshop.site/internal/domain"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository stores the per-user profile document.
type ProfileRepository interface {
	SaveProfile(ctx context.Context, profile *domain.Profile) error
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

// CollectionRepository stores user collections. Items are embedded in the
// collection document and copied by value at add-time.
type CollectionRepository interface {
	CreateCollection(ctx context.Context, userID, name, description string) (*domain.Collection, error)
	GetCollection(ctx context.Context, id string) (*domain.Collection, error)
	ListCollections(ctx context.Context, userID string) ([]domain.Collection, error)
	UpdateCollection(ctx context.Context, id, name, description string, isPublic bool) error
	DeleteCollection(ctx context.Context, id string) error
	AddItem(ctx context.Context, collectionID string, item domain.CatalogItem) error
	RemoveItem(ctx context.Context, collectionID, itemID string) error
	// ShareCollection assigns (or returns) the public share identifier.
	ShareCollection(ctx context.Context, id string) (string, error)
	GetByShareID(ctx context.Context, shareID string) (*domain.Collection, error)
}

// SubscriptionRepository stores notification email subscriptions.
type SubscriptionRepository interface {
	// Subscribe fails with domain.ErrSubscriptionConflict for a duplicate.
	Subscribe(ctx context.Context, email string) error
	Unsubscribe(ctx context.Context, email string) error
	IsSubscribed(ctx context.Context, email string) (bool, error)
}

type documentRepository struct {
	db    *pgxpool.Pool
	clock clock.Clock
}

// DocumentRepository bundles every hosted-document concern behind one pool.
type DocumentRepository interface {
	ProfileRepository
	CollectionRepository
	SubscriptionRepository
	EnsureSchema(ctx context.Context) error
}

func NewDocumentRepository(db *pgxpool.Pool, clk clock.Clock) DocumentRepository {
	return &documentRepository{db: db, clock: clk}
}

// EnsureSchema creates the backing tables if they don't exist.
func (r *documentRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			avatar_url TEXT,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS collections (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			is_public BOOLEAN NOT NULL DEFAULT FALSE,
			share_id TEXT UNIQUE,
			items JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_collections_user ON collections (user_id)`,
		`CREATE TABLE IF NOT EXISTS notification_subscriptions (
			email TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func (r *documentRepository) SaveProfile(ctx context.Context, profile *domain.Profile) error {
	query := `
	INSERT INTO profiles (user_id, display_name, avatar_url, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id)
	DO UPDATE SET display_name = $2, avatar_url = $3, updated_at = $4`
	_, err := r.db.Exec(ctx, query, profile.UserID, profile.DisplayName, profile.AvatarURL, r.clock.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save profile for %s: %w", profile.UserID, err)
	}
	return nil
}

func (r *documentRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile
	query := `SELECT user_id, display_name, COALESCE(avatar_url, ''), updated_at FROM profiles WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&profile.UserID, &profile.DisplayName, &profile.AvatarURL, &profile.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile for %s: %w", userID, err)
	}
	return &profile, nil
}

func (r *documentRepository) CreateCollection(ctx context.Context, userID, name, description string) (*domain.Collection, error) {
	now := r.clock.Now().UTC()
	collection := &domain.Collection{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Items:       []domain.CatalogItem{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `
	INSERT INTO collections (id, user_id, name, description, is_public, items, created_at, updated_at)
	VALUES ($1, $2, $3, $4, FALSE, '[]', $5, $5)`
	if _, err := r.db.Exec(ctx, query, collection.ID, userID, name, description, now); err != nil {
		return nil, fmt.Errorf("failed to create collection %q: %w", name, err)
	}
	return collection, nil
}

const collectionColumns = `id, user_id, name, COALESCE(description, ''), is_public, COALESCE(share_id, ''), items, created_at, updated_at`

func scanCollection(row pgx.Row) (*domain.Collection, error) {
	var c domain.Collection
	var itemsJSON []byte
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.IsPublic, &c.ShareID, &itemsJSON, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &c.Items); err != nil {
		return nil, fmt.Errorf("failed to decode collection items: %w", err)
	}
	return &c, nil
}

func (r *documentRepository) GetCollection(ctx context.Context, id string) (*domain.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE id = $1`
	collection, err := scanCollection(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", id, err)
	}
	return collection, nil
}

func (r *documentRepository) ListCollections(ctx context.Context, userID string) ([]domain.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections for %s: %w", userID, err)
	}
	defer rows.Close()

	var collections []domain.Collection
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, *collection)
	}
	return collections, rows.Err()
}

func (r *documentRepository) UpdateCollection(ctx context.Context, id, name, description string, isPublic bool) error {
	query := `UPDATE collections SET name = $2, description = $3, is_public = $4, updated_at = $5 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, name, description, isPublic, r.clock.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update collection %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *documentRepository) DeleteCollection(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", id, err)
	}
	return nil
}

func (r *documentRepository) AddItem(ctx context.Context, collectionID string, item domain.CatalogItem) error {
	collection, err := r.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	for _, existing := range collection.Items {
		if existing.ID == item.ID {
			return nil
		}
	}
	return r.writeItems(ctx, collectionID, append(collection.Items, item))
}

func (r *documentRepository) RemoveItem(ctx context.Context, collectionID, itemID string) error {
	collection, err := r.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	items := collection.Items[:0]
	for _, item := range collection.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	return r.writeItems(ctx, collectionID, items)
}

func (r *documentRepository) writeItems(ctx context.Context, collectionID string, items []domain.CatalogItem) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to serialize items for collection %s: %w", collectionID, err)
	}
	query := `UPDATE collections SET items = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, collectionID, itemsJSON, r.clock.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update items for collection %s: %w", collectionID, err)
	}
	return nil
}

func (r *documentRepository) ShareCollection(ctx context.Context, id string) (string, error) {
	collection, err := r.GetCollection(ctx, id)
	if err != nil {
		return "", err
	}
	if collection.ShareID != "" {
		return collection.ShareID, nil
	}

	shareID := uuid.NewString()
	query := `UPDATE collections SET share_id = $2, is_public = TRUE, updated_at = $3 WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id, shareID, r.clock.Now().UTC()); err != nil {
		return "", fmt.Errorf("failed to share collection %s: %w", id, err)
	}
	return shareID, nil
}

func (r *documentRepository) GetByShareID(ctx context.Context, shareID string) (*domain.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE share_id = $1 AND is_public`
	collection, err := scanCollection(r.db.QueryRow(ctx, query, shareID))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read shared collection %s: %w", shareID, err)
	}
	return collection, nil
}

func (r *documentRepository) Subscribe(ctx context.Context, email string) error {
	query := `INSERT INTO notification_subscriptions (email, created_at) VALUES ($1, $2) ON CONFLICT (email) DO NOTHING`
	tag, err := r.db.Exec(ctx, query, email, r.clock.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to subscribe %s: %w", email, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionConflict
	}
	return nil
}

func (r *documentRepository) Unsubscribe(ctx context.Context, email string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM notification_subscriptions WHERE email = $1`, email); err != nil {
		return fmt.Errorf("failed to unsubscribe %s: %w", email, err)
	}
	return nil
}

func (r *documentRepository) IsSubscribed(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM notification_subscriptions WHERE email = $1)`
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check subscription for %s: %w", email, err)
	}
	return exists, nil
}
