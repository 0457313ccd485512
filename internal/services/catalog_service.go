package services

import (
	"context"
	"io"
	"strings"

	"github.com/saeid-a/tradechat/internal/api"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/store"
	"github.com/saeid-a/tradechat/internal/validator"
)

type ItemAPI interface {
	ListItems(ctx context.Context, supplierID int64) ([]models.Item, error)
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	CreateItem(ctx context.Context, dto models.PostItemDto) (*models.Item, error)
	UpdateItem(ctx context.Context, item models.Item) (*models.Item, error)
	DeleteItem(ctx context.Context, id int64) error
}

// CatalogService is supplier item CRUD.
type CatalogService struct {
	identity store.Identity
	items    ItemAPI
	images   ImageUploader
}

// ItemInput describes an item form. Image is optional on update, in which
// case the current image is kept.
type ItemInput struct {
	Name      string
	Unit      string
	Size      float32
	ImageName string
	Image     io.Reader
}

func NewCatalogService(identity store.Identity, items ItemAPI, images ImageUploader) *CatalogService {
	return &CatalogService{
		identity: identity,
		items:    items,
		images:   images,
	}
}

// List returns the supplier's items. supplierID 0 lists the whole catalog.
func (s *CatalogService) List(ctx context.Context, supplierID int64) ([]models.Item, error) {
	return s.items.ListItems(ctx, supplierID)
}

func (s *CatalogService) ListMine(ctx context.Context) ([]models.Item, error) {
	me := s.identity.UserID()
	if me == 0 {
		return nil, store.ErrUnauthenticated
	}
	return s.items.ListItems(ctx, me)
}

func (s *CatalogService) Get(ctx context.Context, id int64) (*models.Item, error) {
	return s.items.GetItem(ctx, id)
}

func (s *CatalogService) Create(ctx context.Context, input ItemInput) (*models.Item, error) {
	dto := input.dto()
	v := validator.New()
	models.ValidatePostItem(v, dto)
	v.Check(input.Image != nil, "image", "must be provided")
	if err := api.Validate(v); err != nil {
		return nil, err
	}

	imageID, err := s.images.UploadImage(ctx, input.ImageName, input.Image)
	if err != nil {
		return nil, err
	}
	dto.ImageID = imageID
	return s.items.CreateItem(ctx, dto)
}

func (s *CatalogService) Update(ctx context.Context, id int64, input ItemInput) (*models.Item, error) {
	current, err := s.items.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := input.dto()
	v := validator.New()
	models.ValidatePostItem(v, dto)
	if err := api.Validate(v); err != nil {
		return nil, err
	}

	item := *current
	item.Name = dto.Name
	item.Unit = dto.Unit
	item.Size = dto.Size
	if input.Image != nil {
		imageID, err := s.images.UploadImage(ctx, input.ImageName, input.Image)
		if err != nil {
			return nil, err
		}
		item.ImageID = imageID
	}
	return s.items.UpdateItem(ctx, item)
}

func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	return s.items.DeleteItem(ctx, id)
}

func (in ItemInput) dto() models.PostItemDto {
	return models.PostItemDto{
		Name: strings.TrimSpace(in.Name),
		Unit: strings.ToLower(strings.TrimSpace(in.Unit)),
		Size: in.Size,
	}
}
