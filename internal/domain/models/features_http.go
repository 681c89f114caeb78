package models

// Requests for the feature/dataset HTTP endpoints. Defined in domain for consistency and reuse.

type FeaturesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"0" validate:"gte=0,lte=5000"` // 0 = config MinWindow
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}

type FeatureNamesRequest struct {
	// no parameters; the layout is fixed by the server's pinned config
}

type DatasetRequest struct {
	Symbol        string  `query:"symbol" json:"symbol" validate:"required"`
	From          string  `query:"from" json:"from" validate:"required"`
	To            string  `query:"to" json:"to" validate:"required"`
	TF            string  `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
	FuturePeriods int     `query:"future_periods" json:"future_periods" default:"5" validate:"gte=1,lte=500"`
	Threshold     float64 `query:"threshold" json:"threshold" default:"0.02" validate:"gt=0,lte=1"`
	Publish       bool    `query:"publish" json:"publish"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
	Limit  int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=50000"`
}
