package transform

import (
	"strings"
	"time"

	"github.com/sujan-004/etl-pipeline-project/pkg/models"
)

const ClickTypeAddToCart = "add_to_cart"

// Cart abandonment is not correlated with later session events yet. These
// placeholders fill the measures until it is.
const (
	PlaceholderAbandonmentMinutes = 30
	PlaceholderCartValue          = 0.0
	PlaceholderItemsCount         = 1
	DefaultDeviceType             = "unknown"
	DefaultBrowser                = "unknown"
)

// IsAddToCart reports whether a raw click is relevant to cart abandonment.
func IsAddToCart(raw models.StagingClick) bool {
	return strings.ToLower(str(raw.ClickType)) == ClickTypeAddToCart
}

// CleanClick validates an add-to-cart click. The customer is optional so
// anonymous sessions still produce a fact.
func CleanClick(raw models.StagingClick) Result[models.CanonicalClick] {
	clickID := str(raw.ClickID)
	reject := func(format string, args ...any) Result[models.CanonicalClick] {
		return Reject[models.CanonicalClick](models.EntityClicks, clickID, format, args...)
	}

	if clickID == "" {
		return reject("click_id is required")
	}
	productID := str(raw.ProductID)
	if productID == "" {
		return reject("product_id is required")
	}
	tsText := str(raw.ClickTimestamp)
	if tsText == "" {
		return reject("click_timestamp is required")
	}
	ts, err := ParseTimestamp(tsText)
	if err != nil {
		return reject("click_timestamp: %v", err)
	}

	click := models.CanonicalClick{
		StagingID:      raw.ID,
		ClickID:        clickID,
		CustomerID:     str(raw.CustomerID),
		ProductID:      productID,
		ClickType:      strings.ToLower(str(raw.ClickType)),
		ClickTimestamp: ts,
		SessionID:      str(raw.SessionID),
		DeviceType:     strOr(raw.DeviceType, DefaultDeviceType),
		Browser:        strOr(raw.Browser, DefaultBrowser),
	}

	if err := validate.Struct(click); err != nil {
		return reject("invalid click: %v", err)
	}

	return Ok(click)
}

// CartAbandonment builds the abandonment fact for an add-to-cart click. Any
// other click type, or a missing product or date key, yields no fact. A zero
// customerKey records an anonymous click.
func CartAbandonment(click models.CanonicalClick, customerKey, productKey int64, dateKey int) (*models.CartAbandonmentFact, bool) {
	if click.ClickType != ClickTypeAddToCart || productKey == 0 || dateKey == 0 {
		return nil, false
	}

	var customer *int64
	if customerKey != 0 {
		customer = &customerKey
	}

	addedAt := click.ClickTimestamp
	return &models.CartAbandonmentFact{
		ClickID:                  click.ClickID,
		DateKey:                  dateKey,
		CustomerKey:              customer,
		ProductKey:               productKey,
		SessionID:                click.SessionID,
		AddToCartTime:            addedAt,
		AbandonmentTime:          abandonmentEstimate(addedAt),
		TimeToAbandonmentMinutes: PlaceholderAbandonmentMinutes,
		CartValue:                PlaceholderCartValue,
		ItemsCount:               PlaceholderItemsCount,
		DeviceType:               click.DeviceType,
		Browser:                  click.Browser,
	}, true
}

// abandonmentEstimate is the add-to-cart time itself until session
// correlation exists.
func abandonmentEstimate(addedAt time.Time) time.Time {
	return addedAt
}
