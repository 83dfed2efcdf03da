package models

import "time"

// DailyReport is the archived end-of-day summary stored in MongoDB.
type DailyReport struct {
	Date           string    `bson:"_id" json:"date"`
	Day            string    `bson:"day" json:"day"`
	Batches        int       `bson:"batches" json:"batches"`
	TotalProduced  float64   `bson:"total_produced" json:"total_produced"`
	TotalSold      float64   `bson:"total_sold" json:"total_sold"`
	TotalRemaining float64   `bson:"total_remaining" json:"total_remaining"`
	SaleRatePct    float64   `bson:"sale_rate_pct" json:"sale_rate_pct"`
	EfficiencyPct  float64   `bson:"efficiency_pct" json:"efficiency_pct"`
	AvgCrispness   float64   `bson:"avg_crispness" json:"avg_crispness"`
	Temperature    *float64  `bson:"temperature,omitempty" json:"temperature,omitempty"`
	Promotion      bool      `bson:"promotion" json:"promotion"`
	Holiday        bool      `bson:"holiday" json:"holiday"`
	Suggestions    []string  `bson:"suggestions" json:"suggestions"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
