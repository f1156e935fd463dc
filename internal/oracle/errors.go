package oracle

import "errors"

var (
	ErrInvalidFeed                = errors.New("oracle: invalid price feed")
	ErrAssetFeedNotBound          = errors.New("oracle: no price feed bound for asset")
	ErrPriceExceedsDeviationLimit = errors.New("oracle: price exceeds deviation limit")
)
