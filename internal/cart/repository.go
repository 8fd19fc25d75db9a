package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-checkout/pkg/db"
	"github.com/angelmondragon/storefront-checkout/pkg/db/models"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

// Total is the authoritative amount a checkout allocates against.
type Total struct {
	Amount   decimal.Decimal
	Currency enums.Currency
}

// Repository encapsulates cart persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the provided cart.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	if cart.Status == "" {
		cart.Status = enums.CartStatusActive
	}
	if !cart.Currency.IsValid() {
		cart.Currency = enums.CurrencyUSD
	}
	if cart.TotalAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart total must not be negative")
	}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// FindByID returns the cart with the given id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&cart).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return &cart, nil
}

// GetCurrentTotal reads the total of an active cart.
func (r *Repository) GetCurrentTotal(ctx context.Context, id uuid.UUID) (Total, error) {
	cart, err := r.FindByID(ctx, id)
	if err != nil {
		return Total{}, err
	}
	if !cart.Status.AcceptsCheckout() {
		return Total{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart already submitted")
	}
	return Total{Amount: cart.TotalAmount, Currency: cart.Currency}, nil
}

// ApplySummary records a successful submission on the cart and closes it.
func (r *Repository) ApplySummary(ctx context.Context, id uuid.UUID, summary types.OrderSummary) error {
	if summary.SubmittedAt.IsZero() {
		summary.SubmittedAt = time.Now().UTC()
	}
	submittedAt := summary.SubmittedAt

	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ?", id, enums.CartStatusActive).
		Updates(map[string]any{
			"status":       enums.CartStatusSubmitted,
			"summary":      &summary,
			"submitted_at": submittedAt,
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "apply order summary")
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart already submitted")
	}
	return nil
}
