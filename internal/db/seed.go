package db

import (
	"fmt"
	"time"

	"github.com/diewo77/go-pos/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed inserts the demo point of sale, staff user, catalogue, stock and
// the draft quote Q-1001. Running it twice changes nothing.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		pos := models.PointOfSale{Code: "MAIN", Name: "Boutique principale", City: "Paris", Country: "France", IsActive: true}
		if err := tx.Where(models.PointOfSale{Code: pos.Code}).FirstOrCreate(&pos).Error; err != nil {
			return fmt.Errorf("seed point of sale: %w", err)
		}

		profile := models.StaffProfile{DisplayName: "Administrateur", Role: "manager", DefaultPointOfSaleID: &pos.ID}
		if err := tx.Where(models.StaffProfile{DisplayName: profile.DisplayName}).FirstOrCreate(&profile).Error; err != nil {
			return fmt.Errorf("seed staff profile: %w", err)
		}

		user := models.User{Email: "admin@example.com", Name: "Admin", ProfileID: &profile.ID}
		if err := tx.Where(models.User{Email: user.Email}).FirstOrCreate(&user).Error; err != nil {
			return fmt.Errorf("seed user: %w", err)
		}

		client := models.Client{Name: "Client comptoir", Email: "comptoir@example.com", City: "Paris", Country: "France"}
		if err := tx.Where(models.Client{Name: client.Name}).FirstOrCreate(&client).Error; err != nil {
			return fmt.Errorf("seed client: %w", err)
		}

		catalogue := []models.Product{
			{Code: "P-001", Name: "Terminal de caisse", PurchasePrice: decimal.NewFromInt(600), SellingPrice: decimal.NewFromInt(1000), Unit: "unit", IsActive: true},
			{Code: "P-002", Name: "Rouleau de tickets", PurchasePrice: decimal.NewFromInt(2), SellingPrice: decimal.NewFromInt(5), Unit: "unit", IsActive: true},
		}
		products := make([]models.Product, 0, len(catalogue))
		for _, p := range catalogue {
			if err := tx.Where(models.Product{Code: p.Code}).FirstOrCreate(&p).Error; err != nil {
				return fmt.Errorf("seed product %s: %w", p.Code, err)
			}
			products = append(products, p)
			if err := seedStock(tx, p.ID, pos.ID, user.ID, decimal.NewFromInt(10)); err != nil {
				return err
			}
		}

		if err := seedQuote(tx, client.ID, user.ID, products[0]); err != nil {
			return err
		}

		// Keep generated quote numbers clear of the seeded one.
		seq := models.DocumentSequence{Scope: "quote", NextValue: 2}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
			return fmt.Errorf("seed quote sequence: %w", err)
		}
		return nil
	})
}

// seedStock creates the stock level with an opening movement, only once.
func seedStock(tx *gorm.DB, productID, posID, userID uint, qty decimal.Decimal) error {
	var count int64
	if err := tx.Model(&models.StockLevel{}).
		Where("product_id = ? AND point_of_sale_id = ?", productID, posID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("seed stock lookup: %w", err)
	}
	if count > 0 {
		return nil
	}
	level := models.StockLevel{ProductID: productID, PointOfSaleID: posID, Quantity: qty}
	if err := tx.Create(&level).Error; err != nil {
		return fmt.Errorf("seed stock level: %w", err)
	}
	movement := models.StockMovement{
		ProductID:      productID,
		PointOfSaleID:  posID,
		Direction:      models.MovementIn,
		Quantity:       qty,
		QuantityBefore: decimal.Zero,
		QuantityAfter:  qty,
		Reason:         models.ReasonStockReceived,
		UserID:         userID,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return fmt.Errorf("seed stock movement: %w", err)
	}
	return nil
}

func seedQuote(tx *gorm.DB, clientID, userID uint, product models.Product) error {
	var existing models.Quote
	err := tx.Where("number = ?", "Q-1001").First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("seed quote lookup: %w", err)
	}
	validUntil := time.Now().AddDate(0, 1, 0)
	quote := models.Quote{
		Number:      "Q-1001",
		ClientID:    clientID,
		CreatedByID: userID,
		Status:      models.QuoteStatusDraft,
		ValidUntil:  &validUntil,
		Items: []models.QuoteItem{{
			ProductID:   product.ID,
			Description: product.Name,
			Quantity:    decimal.NewFromInt(3),
			UnitPrice:   product.SellingPrice,
			Position:    1,
		}},
	}
	if err := tx.Create(&quote).Error; err != nil {
		return fmt.Errorf("seed quote: %w", err)
	}
	return nil
}
