package services

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ratio2 returns num/den rounded to two decimals, or 0 when den is 0.
func ratio2(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(num)).Div(decimal.NewFromInt(int64(den))).Round(2).InexactFloat64()
}

// percent2 returns num/den*100 rounded to two decimals, or 0 when den is 0.
func percent2(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(num)).Mul(hundred).Div(decimal.NewFromInt(int64(den))).Round(2).InexactFloat64()
}

// ratioInt returns num/den rounded half away from zero to a whole number.
func ratioInt(num, den int) int {
	if den == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(num)).Div(decimal.NewFromInt(int64(den))).Round(0).IntPart())
}

func mean2(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.Div(decimal.NewFromInt(int64(len(values)))).Round(2).InexactFloat64()
}

func roundInt(v float64) int {
	return int(decimal.NewFromFloat(v).Round(0).IntPart())
}
