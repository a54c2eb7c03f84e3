package features

const (
	ColOpen                   = "Open"
	ColHigh                   = "High"
	ColLow                    = "Low"
	ColClose                  = "Close"
	ColVolume                 = "Volume"
	ColRawClose               = "Raw_Close"
	ColPctChange1D            = "Pct_Change_1D"
	ColPctChange3D            = "Pct_Change_3D"
	ColVolumeChange           = "Volume_Change"
	ColRSI                    = "RSI"
	ColROC10                  = "ROC_10"
	ColMACD                   = "MACD"
	ColMACDSignal             = "MACD_Signal"
	ColMACDHist               = "MACD_Hist"
	ColKDJD                   = "KDJ_D"
	ColKDJJ                   = "KDJ_J"
	ColVolatility10           = "Volatility_10"
	ColVolatilityRatio        = "Volatility_Ratio"
	ColVolRatio               = "Vol_Ratio"
	ColVolumeSurge            = "Volume_Surge"
	ColReturn5D               = "Return_5D"
	ColRSIChange              = "RSI_Change"
	ColADLine                 = "AD_Line"
	ColADLineROC              = "AD_Line_ROC"
	ColIndexClose             = "IDX_N225"
	ColMarketTrend1D          = "Market_Trend_1D"
	ColMarketTrend5D          = "Market_Trend_5D"
	ColIndexCorr30            = "Corr_N225_30"
	ColRateChange1D           = "TNX_Change_1D"
	ColRateChange5D           = "TNX_Change_5D"
	ColRSIxMACDHist           = "RSI_x_MACD_Hist"
	ColVolRatioxMarketTrend5D = "Vol_Ratio_x_Market_Trend_5D"
	ColVolTickerRatio         = "Vol_Ticker_Ratio"
)

// FeatureColumns is the exact model input order.
var FeatureColumns = []string{
	ColClose, ColHigh, ColLow, ColOpen, ColVolume, ColRSI, ColMACD, ColMACDSignal,
	ColROC10, ColVolRatio, ColPctChange1D, ColPctChange3D, ColADLine, ColADLineROC,
	ColKDJD, ColKDJJ, ColVolatility10, ColVolumeChange, ColReturn5D, ColVolatilityRatio,
	ColRSIChange, ColMACDHist, ColVolumeSurge, ColVolTickerRatio,
	ColRSIxMACDHist, ColIndexClose, ColMarketTrend1D, ColMarketTrend5D, ColRateChange1D,
	ColRateChange5D, ColIndexCorr30, ColVolRatioxMarketTrend5D, ColRawClose,
}

// IndexColumns are derived from the broad index reference.
var IndexColumns = []string{ColIndexClose, ColMarketTrend1D, ColMarketTrend5D, ColIndexCorr30}

// RateColumns are derived from the benchmark rate reference.
var RateColumns = []string{ColRateChange1D, ColRateChange5D}
