package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"food-marketplace-api/apperr"
	"food-marketplace-api/models"
)

// CatalogService manages restaurants, their menus and reviews.
type CatalogService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewCatalogService(db *gorm.DB, log zerolog.Logger) *CatalogService {
	return &CatalogService{db: db, log: log}
}

// ── Restaurants ─────────────────────────────────────────────────────────────

type RestaurantInput struct {
	Name         string              `json:"name" binding:"required,max=200"`
	Description  string              `json:"description"`
	CuisineType  string              `json:"cuisine_type" binding:"required,max=100"`
	Address      string              `json:"address" binding:"required"`
	Phone        string              `json:"phone_number" binding:"max=15"`
	Email        string              `json:"email" binding:"omitempty,email"`
	Website      string              `json:"website" binding:"omitempty,url"`
	ImageURL     string              `json:"image"`
	PriceRange   models.PriceRange   `json:"price_range" binding:"required"`
	OpeningHours []models.DailyHours `json:"opening_hours" binding:"dive"`
	Features     []string            `json:"features"`
	DeliveryFee  *decimal.Decimal    `json:"delivery_fee"`
	DeliveryTime string              `json:"delivery_time"`
	MinOrder     *decimal.Decimal    `json:"min_order"`
	IsActive     *bool               `json:"is_active"`
}

func (in *RestaurantInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("restaurant name is required")
	}
	if !in.PriceRange.Valid() {
		return apperr.Validation("price_range must be one of $, $$, $$$, $$$$")
	}
	if in.DeliveryFee != nil && in.DeliveryFee.IsNegative() {
		return apperr.Validation("delivery_fee must not be negative")
	}
	if in.MinOrder != nil && in.MinOrder.IsNegative() {
		return apperr.Validation("min_order must not be negative")
	}
	return nil
}

func (in *RestaurantInput) apply(r *models.Restaurant) {
	r.Name = strings.TrimSpace(in.Name)
	r.Description = in.Description
	r.CuisineType = in.CuisineType
	r.Address = in.Address
	r.Phone = in.Phone
	r.Email = in.Email
	r.Website = in.Website
	r.ImageURL = in.ImageURL
	r.PriceRange = in.PriceRange
	r.OpeningHours = datatypes.JSONSlice[models.DailyHours](in.OpeningHours)
	r.Features = datatypes.JSONSlice[string](in.Features)
	if in.DeliveryFee != nil {
		r.DeliveryFee = *in.DeliveryFee
	}
	if in.MinOrder != nil {
		r.MinOrder = *in.MinOrder
	}
	if in.DeliveryTime != "" {
		r.DeliveryTime = in.DeliveryTime
	}
	if in.IsActive != nil {
		r.IsActive = *in.IsActive
	}
}

// CreateRestaurant stores a restaurant owned by owner with a fresh unique slug.
func (s *CatalogService) CreateRestaurant(ctx context.Context, owner *models.User, in RestaurantInput) (*models.Restaurant, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	r := models.Restaurant{
		OwnerID:      &owner.ID,
		Rating:       decimal.Zero,
		DeliveryFee:  decimal.RequireFromString("2.99"),
		DeliveryTime: "30-45 min",
		MinOrder:     decimal.RequireFromString("15.00"),
		IsActive:     true,
	}
	in.apply(&r)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := UniqueSlug(tx, &models.Restaurant{}, r.Name, "restaurant", 0)
		if err != nil {
			return err
		}
		r.Slug = slug
		if err := tx.Create(&r).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("restaurant slug %q is taken, retry", slug).Wrap(err)
			}
			return fmt.Errorf("create restaurant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("restaurant_id", r.ID).Str("slug", r.Slug).Uint("owner_id", owner.ID).Msg("restaurant created")
	return &r, nil
}

// UpdateRestaurant replaces the editable fields. The slug is kept so links stay valid.
func (s *CatalogService) UpdateRestaurant(ctx context.Context, actor *models.User, id uint, in RestaurantInput) (*models.Restaurant, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var r *models.Restaurant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if r, err = managedRestaurant(tx, actor, id); err != nil {
			return err
		}
		in.apply(r)
		return tx.Save(r).Error
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteRestaurant removes the restaurant with its menu and reviews.
func (s *CatalogService) DeleteRestaurant(ctx context.Context, actor *models.User, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := managedRestaurant(tx, actor, id)
		if err != nil {
			return err
		}
		var orders int64
		if err := tx.Model(&models.Order{}).Where("restaurant_id = ?", r.ID).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return apperr.Conflict("restaurant has %d orders; deactivate it instead", orders)
		}
		for _, model := range []any{&models.RestaurantReview{}, &models.MenuItem{}, &models.MenuCategory{}} {
			if err := tx.Where("restaurant_id = ?", r.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(r).Error
	})
}

// GetRestaurant returns an active restaurant with its categories and items.
func (s *CatalogService) GetRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	return s.findRestaurant(ctx, "id = ?", id)
}

func (s *CatalogService) GetRestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	return s.findRestaurant(ctx, "slug = ?", slug)
}

func (s *CatalogService) findRestaurant(ctx context.Context, cond string, arg any) (*models.Restaurant, error) {
	var r models.Restaurant
	err := s.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("display_order, id") }).
		Preload("Categories.Items", "is_available = ?", true).
		Where(cond, arg).
		Where("is_active = ?", true).
		First(&r).Error
	if err != nil {
		return nil, notFoundOr(err, "restaurant not found")
	}
	return &r, nil
}

// RestaurantFilter narrows the public restaurant list.
type RestaurantFilter struct {
	CuisineType string
	PriceRange  models.PriceRange
	Search      string
	Ordering    string
}

var restaurantOrderings = map[string]string{
	"name":        "name ASC",
	"-name":       "name DESC",
	"rating":      "rating ASC, name ASC",
	"-rating":     "rating DESC, name ASC",
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
}

func orderRestaurants(q *gorm.DB, ordering string) (*gorm.DB, error) {
	if ordering == "" {
		return q.Order("rating DESC, name ASC"), nil
	}
	clause, ok := restaurantOrderings[ordering]
	if !ok {
		return nil, apperr.Validation("unsupported ordering %q", ordering).
			With("allowed", lo.Keys(restaurantOrderings))
	}
	return q.Order(clause), nil
}

// ListRestaurants returns active restaurants, best rated first unless ordered otherwise.
func (s *CatalogService) ListRestaurants(ctx context.Context, f RestaurantFilter) ([]models.Restaurant, error) {
	q := s.db.WithContext(ctx).Model(&models.Restaurant{}).Where("is_active = ?", true)
	if f.CuisineType != "" {
		q = q.Where("cuisine_type = ?", f.CuisineType)
	}
	if f.PriceRange != "" {
		q = q.Where("price_range = ?", f.PriceRange)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(cuisine_type) LIKE ? OR LOWER(address) LIKE ?", p, p, p, p)
	}
	q, err := orderRestaurants(q, f.Ordering)
	if err != nil {
		return nil, err
	}
	var out []models.Restaurant
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return out, nil
}

// SearchInput is the body of the advanced restaurant search.
type SearchInput struct {
	Query       string            `json:"query"`
	CuisineType string            `json:"cuisine_type"`
	PriceRange  models.PriceRange `json:"price_range"`
	MinRating   *decimal.Decimal  `json:"min_rating"`
	Features    []string          `json:"features"`
	Ordering    string            `json:"ordering"`
}

// SearchRestaurants applies every supplied criterion. Features must all be present.
func (s *CatalogService) SearchRestaurants(ctx context.Context, in SearchInput) ([]models.Restaurant, error) {
	if in.PriceRange != "" && !in.PriceRange.Valid() {
		return nil, apperr.Validation("price_range must be one of $, $$, $$$, $$$$")
	}
	q := s.db.WithContext(ctx).Model(&models.Restaurant{}).Where("is_active = ?", true)
	if in.Query != "" {
		p := likePattern(in.Query)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(cuisine_type) LIKE ?", p, p, p)
	}
	if in.CuisineType != "" {
		q = q.Where("LOWER(cuisine_type) LIKE ?", likePattern(in.CuisineType))
	}
	if in.PriceRange != "" {
		q = q.Where("price_range = ?", in.PriceRange)
	}
	if in.MinRating != nil {
		q = q.Where("rating >= ?", in.MinRating.InexactFloat64())
	}
	q, err := orderRestaurants(q, in.Ordering)
	if err != nil {
		return nil, err
	}
	var found []models.Restaurant
	if err := q.Find(&found).Error; err != nil {
		return nil, fmt.Errorf("search restaurants: %w", err)
	}
	if len(in.Features) == 0 {
		return found, nil
	}
	// features live in a JSON column; match them here to stay dialect neutral
	return lo.Filter(found, func(r models.Restaurant, _ int) bool {
		return lo.Every(r.Features, in.Features)
	}), nil
}

// CuisineStat is one row of the popular cuisines aggregate.
type CuisineStat struct {
	Name            string  `json:"name"`
	RestaurantCount int64   `json:"restaurant_count"`
	AvgRating       float64 `json:"avg_rating"`
}

// PopularCuisines counts active restaurants per cuisine, most common first.
func (s *CatalogService) PopularCuisines(ctx context.Context) ([]CuisineStat, error) {
	var stats []CuisineStat
	err := s.db.WithContext(ctx).Model(&models.Restaurant{}).
		Select("cuisine_type AS name, COUNT(*) AS restaurant_count, AVG(rating) AS avg_rating").
		Where("is_active = ? AND cuisine_type <> ''", true).
		Group("cuisine_type").
		Order("restaurant_count DESC, name ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("popular cuisines: %w", err)
	}
	for i := range stats {
		stats[i].AvgRating = decimal.NewFromFloat(stats[i].AvgRating).Round(2).InexactFloat64()
	}
	return stats, nil
}

// ListAllRestaurants is the admin view, inactive ones included.
func (s *CatalogService) ListAllRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	var out []models.Restaurant
	err := s.db.WithContext(ctx).Preload("Owner").Order("id").Find(&out).Error
	return out, err
}

// OwnedRestaurants lists the restaurants actor manages.
func (s *CatalogService) OwnedRestaurants(ctx context.Context, actor *models.User) ([]models.Restaurant, error) {
	var out []models.Restaurant
	err := s.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("display_order, id") }).
		Preload("Categories.Items").
		Where("owner_id = ?", actor.ID).
		Order("id").
		Find(&out).Error
	return out, err
}

// managedRestaurant loads a restaurant actor may edit. Other owners' restaurants
// are reported as missing.
func managedRestaurant(tx *gorm.DB, actor *models.User, id uint) (*models.Restaurant, error) {
	var r models.Restaurant
	q := tx.Where("id = ?", id)
	if actor.Role != models.RolePlatformAdmin {
		q = q.Where("owner_id = ?", actor.ID)
	}
	if err := q.First(&r).Error; err != nil {
		return nil, notFoundOr(err, "restaurant %d not found", id)
	}
	return &r, nil
}

// ── Categories ──────────────────────────────────────────────────────────────

type CategoryInput struct {
	Name         string            `json:"name" binding:"required,max=100"`
	Description  string            `json:"description"`
	ImageURL     string            `json:"image"`
	MealPeriod   models.MealPeriod `json:"meal_period"`
	DisplayOrder int               `json:"display_order"`
}

func (in *CategoryInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("category name is required")
	}
	if in.MealPeriod == "" {
		in.MealPeriod = models.MealAllDay
	}
	if !in.MealPeriod.Valid() {
		return apperr.Validation("unknown meal_period %q", in.MealPeriod)
	}
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor *models.User, restaurantID uint, in CategoryInput) (*models.MenuCategory, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var c models.MenuCategory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := managedRestaurant(tx, actor, restaurantID); err != nil {
			return err
		}
		c = models.MenuCategory{
			RestaurantID: restaurantID,
			Name:         strings.TrimSpace(in.Name),
			Description:  in.Description,
			ImageURL:     in.ImageURL,
			MealPeriod:   in.MealPeriod,
			DisplayOrder: in.DisplayOrder,
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, actor *models.User, id uint, in CategoryInput) (*models.MenuCategory, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var c models.MenuCategory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return notFoundOr(err, "category %d not found", id)
		}
		if _, err := managedRestaurant(tx, actor, c.RestaurantID); err != nil {
			return apperr.NotFound("category %d not found", id)
		}
		c.Name = strings.TrimSpace(in.Name)
		c.Description = in.Description
		c.ImageURL = in.ImageURL
		c.MealPeriod = in.MealPeriod
		c.DisplayOrder = in.DisplayOrder
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCategory refuses while items still reference the category.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor *models.User, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.MenuCategory
		if err := tx.First(&c, id).Error; err != nil {
			return notFoundOr(err, "category %d not found", id)
		}
		if _, err := managedRestaurant(tx, actor, c.RestaurantID); err != nil {
			return apperr.NotFound("category %d not found", id)
		}
		var items int64
		if err := tx.Model(&models.MenuItem{}).Where("category_id = ?", id).Count(&items).Error; err != nil {
			return err
		}
		if items > 0 {
			return apperr.Conflict("category still has %d menu items", items)
		}
		return tx.Delete(&c).Error
	})
}

// ListCategories returns a restaurant's categories in display order.
func (s *CatalogService) ListCategories(ctx context.Context, restaurantID uint) ([]models.MenuCategory, error) {
	var out []models.MenuCategory
	err := s.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("display_order, id").Find(&out).Error
	return out, err
}

// ── Menu items ──────────────────────────────────────────────────────────────

type MenuItemInput struct {
	CategoryID      uint                  `json:"category_id" binding:"required"`
	Name            string                `json:"name" binding:"required,max=200"`
	Description     string                `json:"description"`
	Price           decimal.Decimal       `json:"price" binding:"required"`
	ImageURL        string                `json:"image"`
	Ingredients     []models.Ingredient   `json:"ingredients" binding:"dive"`
	Allergens       []string              `json:"allergens"`
	Nutrition       models.NutritionFacts `json:"nutritional_info"`
	IsAvailable     *bool                 `json:"is_available"`
	IsVegetarian    bool                  `json:"is_vegetarian"`
	IsVegan         bool                  `json:"is_vegan"`
	IsGlutenFree    bool                  `json:"is_gluten_free"`
	SpiceLevel      int                   `json:"spice_level" binding:"min=0,max=5"`
	PrepTimeMinutes int                   `json:"prep_time" binding:"min=0"`
}

func (in *MenuItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("menu item name is required")
	}
	if !in.Price.IsPositive() {
		return apperr.Validation("price must be greater than zero")
	}
	if in.SpiceLevel < 0 || in.SpiceLevel > 5 {
		return apperr.Validation("spice_level must be between 0 and 5")
	}
	for i, ing := range in.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return apperr.Validation("ingredient %d has no name", i+1)
		}
	}
	return nil
}

func (in *MenuItemInput) apply(m *models.MenuItem) {
	m.CategoryID = in.CategoryID
	m.Name = strings.TrimSpace(in.Name)
	m.Description = in.Description
	m.Price = in.Price.Round(2)
	m.ImageURL = in.ImageURL
	m.Ingredients = datatypes.JSONSlice[models.Ingredient](in.Ingredients)
	m.Allergens = datatypes.JSONSlice[string](in.Allergens)
	m.Nutrition = datatypes.NewJSONType(in.Nutrition)
	m.IsAvailable = in.IsAvailable == nil || *in.IsAvailable
	m.IsVegetarian = in.IsVegetarian
	m.IsVegan = in.IsVegan
	m.IsGlutenFree = in.IsGlutenFree
	m.SpiceLevel = in.SpiceLevel
	m.PrepTimeMinutes = in.PrepTimeMinutes
}

// categoryOf checks that categoryID belongs to restaurantID.
func categoryOf(tx *gorm.DB, restaurantID, categoryID uint) error {
	var c models.MenuCategory
	if err := tx.First(&c, categoryID).Error; err != nil {
		return notFoundOr(err, "category %d not found", categoryID)
	}
	if c.RestaurantID != restaurantID {
		return apperr.Validation("category %d does not belong to restaurant %d", categoryID, restaurantID)
	}
	return nil
}

// CreateMenuItem adds an item; its slug combines restaurant and item names.
func (s *CatalogService) CreateMenuItem(ctx context.Context, actor *models.User, restaurantID uint, in MenuItemInput) (*models.MenuItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var m models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := managedRestaurant(tx, actor, restaurantID)
		if err != nil {
			return err
		}
		if err := categoryOf(tx, r.ID, in.CategoryID); err != nil {
			return err
		}
		m = models.MenuItem{RestaurantID: r.ID}
		in.apply(&m)
		if m.Slug, err = UniqueSlug(tx, &models.MenuItem{}, r.Name+"-"+m.Name, "menu-item", 0); err != nil {
			return err
		}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("create menu item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMenuItem edits an item. Orders already placed keep their snapshot price.
func (s *CatalogService) UpdateMenuItem(ctx context.Context, actor *models.User, id uint, in MenuItemInput) (*models.MenuItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var m models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, id).Error; err != nil {
			return notFoundOr(err, "menu item %d not found", id)
		}
		if _, err := managedRestaurant(tx, actor, m.RestaurantID); err != nil {
			return apperr.NotFound("menu item %d not found", id)
		}
		if err := categoryOf(tx, m.RestaurantID, in.CategoryID); err != nil {
			return err
		}
		in.apply(&m)
		return tx.Save(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMenuItem removes the item and any cart lines pointing at it.
func (s *CatalogService) DeleteMenuItem(ctx context.Context, actor *models.User, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.MenuItem
		if err := tx.First(&m, id).Error; err != nil {
			return notFoundOr(err, "menu item %d not found", id)
		}
		if _, err := managedRestaurant(tx, actor, m.RestaurantID); err != nil {
			return apperr.NotFound("menu item %d not found", id)
		}
		if err := tx.Where("menu_item_id = ?", m.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&m).Error
	})
}

// MenuItemFilter narrows the item list; dietary flags only ever restrict.
type MenuItemFilter struct {
	RestaurantID  uint
	CategoryID    uint
	Vegetarian    bool
	Vegan         bool
	GlutenFree    bool
	MaxSpiceLevel *int
	Search        string
}

// ListMenuItems returns available items matching f.
func (s *CatalogService) ListMenuItems(ctx context.Context, f MenuItemFilter) ([]models.MenuItem, error) {
	q := s.db.WithContext(ctx).Where("is_available = ?", true)
	if f.RestaurantID != 0 {
		q = q.Where("restaurant_id = ?", f.RestaurantID)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Vegetarian {
		q = q.Where("is_vegetarian = ?", true)
	}
	if f.Vegan {
		q = q.Where("is_vegan = ?", true)
	}
	if f.GlutenFree {
		q = q.Where("is_gluten_free = ?", true)
	}
	if f.MaxSpiceLevel != nil {
		q = q.Where("spice_level <= ?", *f.MaxSpiceLevel)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(CAST(ingredients AS TEXT)) LIKE ?", p, p, p)
	}
	var out []models.MenuItem
	if err := q.Order("restaurant_id, category_id, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return out, nil
}

// MenuByCategory returns the categories of an active restaurant in display
// order, each with its available items.
func (s *CatalogService) MenuByCategory(ctx context.Context, restaurantID uint) ([]models.MenuCategory, error) {
	r, err := s.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return r.Categories, nil
}

// MealPeriodMenu is one section of the menu grouped by meal period.
type MealPeriodMenu struct {
	models.MealPeriodInfo
	Categories []models.MenuCategory `json:"categories"`
	ItemCount  int                   `json:"item_count"`
}

// MenuByMealPeriod groups categories under their meal period. Empty periods are omitted.
func (s *CatalogService) MenuByMealPeriod(ctx context.Context, restaurantID uint) ([]MealPeriodMenu, error) {
	categories, err := s.MenuByCategory(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	grouped := lo.GroupBy(categories, func(c models.MenuCategory) models.MealPeriod { return c.MealPeriod })

	var out []MealPeriodMenu
	for _, info := range models.MealPeriods {
		cats, ok := grouped[info.Period]
		if !ok {
			continue
		}
		out = append(out, MealPeriodMenu{
			MealPeriodInfo: info,
			Categories:     cats,
			ItemCount:      lo.SumBy(cats, func(c models.MenuCategory) int { return len(c.Items) }),
		})
	}
	return out, nil
}

// ── Reviews ─────────────────────────────────────────────────────────────────

type ReviewInput struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func (s *CatalogService) ListReviews(ctx context.Context, restaurantID uint) ([]models.RestaurantReview, error) {
	var out []models.RestaurantReview
	err := s.db.WithContext(ctx).Preload("User").
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// CreateReview records the user's single review of a restaurant and refreshes
// the restaurant's average rating in the same transaction.
func (s *CatalogService) CreateReview(ctx context.Context, user *models.User, restaurantID uint, in ReviewInput) (*models.RestaurantReview, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}
	review := models.RestaurantReview{RestaurantID: restaurantID, UserID: user.ID, Rating: in.Rating, Comment: in.Comment}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r models.Restaurant
		if err := tx.Where("id = ? AND is_active = ?", restaurantID, true).First(&r).Error; err != nil {
			return notFoundOr(err, "restaurant %d not found", restaurantID)
		}
		if err := tx.Create(&review).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("you have already reviewed this restaurant")
			}
			return fmt.Errorf("create review: %w", err)
		}
		var avg float64
		if err := tx.Model(&models.RestaurantReview{}).
			Where("restaurant_id = ?", restaurantID).
			Select("AVG(rating)").Row().Scan(&avg); err != nil {
			return fmt.Errorf("average rating: %w", err)
		}
		return tx.Model(&r).Update("rating", decimal.NewFromFloat(avg).Round(2)).Error
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ── Slug audit ──────────────────────────────────────────────────────────────

// SlugLength names a row whose slug is close to the column limit.
type SlugLength struct {
	ID     uint `json:"id"`
	Length int  `json:"length"`
}

type SlugAudit struct {
	DuplicateRestaurantSlugs map[string][]uint `json:"duplicate_restaurant_slugs"`
	DuplicateMenuItemSlugs   map[string][]uint `json:"duplicate_menu_item_slugs"`
	LongRestaurantSlugs      []SlugLength      `json:"long_restaurant_slugs"`
	LongMenuItemSlugs        []SlugLength      `json:"long_menu_item_slugs"`
}

// Clean reports whether the audit found nothing.
func (a *SlugAudit) Clean() bool {
	return len(a.DuplicateRestaurantSlugs) == 0 && len(a.DuplicateMenuItemSlugs) == 0 &&
		len(a.LongRestaurantSlugs) == 0 && len(a.LongMenuItemSlugs) == 0
}

type slugRow struct {
	ID   uint
	Slug string
}

// AuditSlugs looks for duplicated slugs and slugs longer than 250 characters.
func (s *CatalogService) AuditSlugs(ctx context.Context) (*SlugAudit, error) {
	var restaurants, items []slugRow
	if err := s.db.WithContext(ctx).Model(&models.Restaurant{}).Select("id, slug").Order("id").Scan(&restaurants).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.MenuItem{}).Select("id, slug").Order("id").Scan(&items).Error; err != nil {
		return nil, err
	}
	return &SlugAudit{
		DuplicateRestaurantSlugs: duplicateSlugs(restaurants),
		DuplicateMenuItemSlugs:   duplicateSlugs(items),
		LongRestaurantSlugs:      longSlugs(restaurants),
		LongMenuItemSlugs:        longSlugs(items),
	}, nil
}

func duplicateSlugs(rows []slugRow) map[string][]uint {
	grouped := lo.GroupBy(rows, func(r slugRow) string { return r.Slug })
	dups := lo.PickBy(grouped, func(_ string, rs []slugRow) bool { return len(rs) > 1 })
	return lo.MapValues(dups, func(rs []slugRow, _ string) []uint {
		return lo.Map(rs, func(r slugRow, _ int) uint { return r.ID })
	})
}

func longSlugs(rows []slugRow) []SlugLength {
	return lo.FilterMap(rows, func(r slugRow, _ int) (SlugLength, bool) {
		return SlugLength{ID: r.ID, Length: len(r.Slug)}, len(r.Slug) > 250
	})
}
