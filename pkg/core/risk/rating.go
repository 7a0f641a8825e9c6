package risk

import "valuation_engine/pkg/core/dataset"

// Risk levels, lowest first.
const (
	LevelLow          = "low risk"
	LevelModerateLow  = "moderate-low risk"
	LevelModerate     = "moderate risk"
	LevelModerateHigh = "moderate-high risk"
	LevelHigh         = "high risk"
)

var recommendations = map[string]string{
	LevelLow:          "financially sound; suitable for investment",
	LevelModerateLow:  "generally healthy; suitable for investment with routine monitoring",
	LevelModerate:     "mixed signals; invest selectively and size positions conservatively",
	LevelModerateHigh: "material weaknesses; investment not recommended without further diligence",
	LevelHigh:         "elevated bankruptcy risk; investment not recommended",
}

// Rating is the synthesized overall risk view.
type Rating struct {
	Level          string   `json:"level"`
	Recommendation string   `json:"recommendation"`
	Investable     bool     `json:"investable"`
	MacroFactors   []string `json:"macro_factors"`
}

// Rate combines Z-score and F-score into a five-tier level. Either score may be
// nil; the rating then leans on the one available. Macro factors are attached
// as-is and do not move the level.
func Rate(z *ZScore, f *FScore, macro []string) Rating {
	level := rateLevel(z, f)
	if macro == nil {
		macro = []string{}
	}
	return Rating{
		Level:          level,
		Recommendation: recommendations[level],
		Investable:     level == LevelLow || level == LevelModerateLow || level == LevelModerate,
		MacroFactors:   macro,
	}
}

func rateLevel(z *ZScore, f *FScore) string {
	switch {
	case z != nil && f != nil:
		switch {
		case z.Score <= 1.0:
			return LevelHigh
		case z.Score > 2.5 && f.Score >= 7:
			return LevelLow
		case z.Score > 1.81 && f.Score >= 5:
			return LevelModerateLow
		case z.Score > 1.81 || f.Score >= 5:
			return LevelModerate
		default:
			return LevelModerateHigh
		}
	case z != nil:
		switch z.Zone {
		case ZoneSafe:
			return LevelModerateLow
		case ZoneGrey:
			return LevelModerate
		}
		if z.Score <= 1.0 {
			return LevelHigh
		}
		return LevelModerateHigh
	case f != nil:
		switch f.Health {
		case "strong":
			return LevelModerateLow
		case "moderate":
			return LevelModerate
		}
		return LevelModerateHigh
	}
	return LevelModerate
}

// MacroFactors lists the macroeconomic conditions the dataset triggers.
// GDP growth and inflation are in percent.
func MacroFactors(ds dataset.Dataset) []string {
	factors := []string{}
	if trend, ok := ds.String("interest_rate_trend"); ok && trend == "rising" {
		factors = append(factors, "rising interest rates")
	}
	if g, ok := ds.Float("gdp_growth"); ok && g < 1.0 {
		factors = append(factors, "weak GDP growth")
	}
	if inf, ok := ds.Float("inflation"); ok && inf > 5.0 {
		factors = append(factors, "high inflation")
	}
	if s, ok := ds.String("market_sentiment"); ok && s == "bearish" {
		factors = append(factors, "bearish market sentiment")
	}
	return factors
}
