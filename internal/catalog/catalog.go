package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/musikito/imagigenie/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// Sentinel errors for catalog failures.
var (
	ErrNotFound       = errors.New("catalog: image not found")
	ErrAuthorNotFound = errors.New("catalog: author not found")
	ErrUnauthorized   = errors.New("catalog: actor is not the author")
)

// Catalog is ownership-scoped CRUD over image records.
type Catalog struct {
	db *gorm.DB
}

// New returns a Catalog backed by db.
func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// CreateParams describes a new image record.
type CreateParams struct {
	AuthorID  uint
	Title     string
	Config    domain.TransformationConfig
	SourceURL string
	ResultURL string
	Width     int
	Height    int
}

// Create persists a new image. The author must resolve to an existing user.
func (c *Catalog) Create(ctx context.Context, p CreateParams) (*domain.Image, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	var count int64
	if err := c.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", p.AuthorID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check author: %w", err)
	}
	if count == 0 {
		return nil, ErrAuthorNotFound
	}
	image := domain.Image{
		AuthorID:  p.AuthorID,
		Title:     p.Title,
		Kind:      p.Config.Kind,
		Config:    p.Config,
		SourceURL: p.SourceURL,
		ResultURL: p.ResultURL,
		Width:     p.Width,
		Height:    p.Height,
	}
	if err := c.db.WithContext(ctx).Create(&image).Error; err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	return &image, nil
}

// GetByID fetches a single image.
func (c *Catalog) GetByID(ctx context.Context, id uint) (*domain.Image, error) {
	var image domain.Image
	if err := c.db.WithContext(ctx).First(&image, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query image: %w", err)
	}
	return &image, nil
}

// UpdateParams holds the mutable image fields; nil fields are left unchanged.
type UpdateParams struct {
	Title  *string
	Config *domain.TransformationConfig
}

// Update mutates an image. Only the original author may update it.
func (c *Catalog) Update(ctx context.Context, id, actorID uint, p UpdateParams) (*domain.Image, error) {
	image, err := c.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if image.AuthorID != actorID {
		return nil, ErrUnauthorized
	}
	if p.Title != nil {
		image.Title = *p.Title
	}
	if p.Config != nil {
		if err := p.Config.Validate(); err != nil {
			return nil, err
		}
		image.Config = *p.Config
		image.Kind = p.Config.Kind
	}
	if err := c.db.WithContext(ctx).Save(image).Error; err != nil {
		return nil, fmt.Errorf("update image: %w", err)
	}
	return image, nil
}

// Delete removes an image. Only the original author may delete it. Hard
// delete, no tombstone.
func (c *Catalog) Delete(ctx context.Context, id, actorID uint) error {
	image, err := c.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if image.AuthorID != actorID {
		return ErrUnauthorized
	}
	if err := c.db.WithContext(ctx).Delete(image).Error; err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

// ListFilter narrows a listing; zero values match everything.
type ListFilter struct {
	AuthorID uint
	Kind     domain.TransformationKind
}

// Page is one page of a listing plus its pagination metadata.
type Page struct {
	Images     []domain.Image `json:"images"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"total_pages"`
}

// ListPaged returns images ordered by most-recently-updated first. The id
// tiebreak keeps the ordering stable across pages when timestamps collide.
func (c *Catalog) ListPaged(ctx context.Context, f ListFilter, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 9
	}
	q := c.db.WithContext(ctx).Model(&domain.Image{})
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count images: %w", err)
	}
	var images []domain.Image
	if err := q.Order("updated_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&images).Error; err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	// Calculate total pages
	totalPages := (int(total) + pageSize - 1) / pageSize
	return &Page{
		Images:     images,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}
