package models

// Query parameters of the market endpoints. The interval tag is registered by the HTTP handler.

type SeriesRequest struct {
	Ticker string `query:"ticker" json:"ticker" default:"6501" validate:"required,max=32"`
	Frame  string `query:"frame" json:"frame" default:"1d" validate:"interval"`
}

type PredictRequest struct {
	Ticker  string `query:"ticker" json:"ticker" default:"6501" validate:"required,max=32"`
	Frame   string `query:"frame" json:"frame" default:"1d" validate:"interval"`
	Horizon int    `query:"horizon" json:"horizon" default:"5" validate:"gte=1,lte=365"`
}
