package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CartItem is one product reference with a unit price and quantity. Cart
// items are assumed valid at add-time; availability windows are not
// re-checked here.
type CartItem struct {
	ProductRef string
	UnitPrice  decimal.Decimal
	Quantity   int
}

// Cart is an ordered collection of items. A single discount is applied to
// the cart subtotal, not per item.
type Cart struct {
	Currency string
	Items    []CartItem
}

// AddItem sets the quantity for a product reference. A quantity of zero or
// less removes the item.
func (c *Cart) AddItem(productRef string, unitPrice decimal.Decimal, quantity int) error {
	if productRef == "" {
		return fmt.Errorf("%w: missing product reference", ErrInvalidCartItem)
	}
	if unitPrice.IsNegative() {
		return fmt.Errorf("%w: negative unit price %s", ErrInvalidCartItem, unitPrice)
	}
	if quantity <= 0 {
		c.removeItem(productRef)
		return nil
	}
	for i, item := range c.Items {
		if item.ProductRef == productRef {
			c.Items[i].UnitPrice = unitPrice
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	c.Items = append(c.Items, CartItem{ProductRef: productRef, UnitPrice: unitPrice, Quantity: quantity})
	return nil
}

func (c *Cart) removeItem(productRef string) {
	for i, item := range c.Items {
		if item.ProductRef == productRef {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// Subtotal is the sum of unit price times quantity over all items.
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}

// Total applies the discount once to the subtotal and clamps at zero.
func (c *Cart) Total(discount DiscountContext) decimal.Decimal {
	return discount.EffectivePrice(c.Subtotal())
}
