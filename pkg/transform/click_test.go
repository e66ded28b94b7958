package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujan-004/etl-pipeline-project/pkg/models"
)

func addToCartClick() models.StagingClick {
	return models.StagingClick{
		ID:             7,
		ClickID:        ptr("CLK1"),
		CustomerID:     ptr("CUST1001"),
		ProductID:      ptr("PROD002"),
		ClickType:      ptr("add_to_cart"),
		ClickTimestamp: ptr("2024-01-10 11:30:00"),
		SessionID:      ptr("SESS1"),
		DeviceType:     ptr("mobile"),
	}
}

func TestIsAddToCart(t *testing.T) {
	click := addToCartClick()
	assert.True(t, IsAddToCart(click))

	click.ClickType = ptr(" ADD_TO_CART ")
	assert.True(t, IsAddToCart(click))

	click.ClickType = ptr("view")
	assert.False(t, IsAddToCart(click))

	click.ClickType = nil
	assert.False(t, IsAddToCart(click))
}

func TestCleanClick(t *testing.T) {
	click, ok := CleanClick(addToCartClick()).Value()
	require.True(t, ok)
	assert.Equal(t, "CLK1", click.ClickID)
	assert.Equal(t, time.Date(2024, 1, 10, 11, 30, 0, 0, time.UTC), click.ClickTimestamp)
	assert.Equal(t, "mobile", click.DeviceType)
	assert.Equal(t, DefaultBrowser, click.Browser)
}

func TestCleanClick_Rejections(t *testing.T) {
	raw := addToCartClick()
	raw.ProductID = nil
	assert.True(t, CleanClick(raw).Rejected())

	raw = addToCartClick()
	raw.ClickTimestamp = ptr("not a time")
	assert.True(t, CleanClick(raw).Rejected())

	raw = addToCartClick()
	raw.ClickID = nil
	assert.True(t, CleanClick(raw).Rejected())
}

func TestCartAbandonment(t *testing.T) {
	click, ok := CleanClick(addToCartClick()).Value()
	require.True(t, ok)

	fact, ok := CartAbandonment(click, 11, 22, 20240110)
	require.True(t, ok)
	require.NotNil(t, fact.CustomerKey)
	assert.Equal(t, int64(11), *fact.CustomerKey)
	assert.Equal(t, int64(22), fact.ProductKey)
	assert.Equal(t, 20240110, fact.DateKey)
	assert.Equal(t, click.ClickTimestamp, fact.AddToCartTime)
	assert.Equal(t, click.ClickTimestamp, fact.AbandonmentTime)
	assert.Equal(t, PlaceholderAbandonmentMinutes, fact.TimeToAbandonmentMinutes)
	assert.Equal(t, PlaceholderCartValue, fact.CartValue)
	assert.Equal(t, PlaceholderItemsCount, fact.ItemsCount)
}

func TestCartAbandonment_AnonymousCustomer(t *testing.T) {
	click, _ := CleanClick(addToCartClick()).Value()

	fact, ok := CartAbandonment(click, 0, 22, 20240110)
	require.True(t, ok)
	assert.Nil(t, fact.CustomerKey)
}

func TestCartAbandonment_NoFact(t *testing.T) {
	click, _ := CleanClick(addToCartClick()).Value()

	_, ok := CartAbandonment(click, 11, 0, 20240110)
	assert.False(t, ok, "missing product key")

	_, ok = CartAbandonment(click, 11, 22, 0)
	assert.False(t, ok, "missing date key")

	click.ClickType = "view"
	_, ok = CartAbandonment(click, 11, 22, 20240110)
	assert.False(t, ok, "view click")
}
