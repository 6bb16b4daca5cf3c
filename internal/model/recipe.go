package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe limits.
const (
	MaxTitleLength = 255
	MaxLinkLength  = 255
	// PriceMaxDigits and PriceDecimalPlaces mirror the NUMERIC(5, 2) column.
	PriceMaxDigits     = 5
	PriceDecimalPlaces = 2
)

// MaxPrice is the largest price representable by the price column.
var MaxPrice = decimal.RequireFromString("999.99")

// Recipe is a user's recipe. IngredientIDs and TagIDs are the recipe's
// references as sets; Ingredients and Tags are only populated on detail reads.
type Recipe struct {
	ID            string
	UserID        string
	Title         string
	TimeMinutes   int
	Price         decimal.Decimal
	Link          string
	IngredientIDs []string
	TagIDs        []string
	Ingredients   []*Ingredient
	Tags          []*Tag
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
