package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"insightminer/domain/dataset"
)

// RetailGeneratorConfig configures the retail order generator
type RetailGeneratorConfig struct {
	OrderCount int       `json:"order_count"`
	Regions    []string  `json:"regions"`
	Channels   []string  `json:"channels"`
	StartDate  time.Time `json:"start_date"`
	Months     int       `json:"months"`
	Seed       int64     `json:"seed"`
}

// DefaultRetailConfig returns sensible defaults for retail data generation
func DefaultRetailConfig() RetailGeneratorConfig {
	return RetailGeneratorConfig{
		OrderCount: 400,
		Regions:    []string{"north", "south", "east", "west"},
		Channels:   []string{"store", "online", "partner"},
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Months:     6,
		Seed:       42,
	}
}

// Retail field keys.
const (
	FieldChannel  = "channel"
	FieldMonth    = "month"
	FieldUnits    = "units"
	FieldRevenue  = "revenue"
	FieldDiscount = "discount"
	FieldReturns  = "returns"
)

// RetailDataGenerator produces order rows with planted structure:
// revenue tracks units, discount runs against unit price, and the "online"
// channel dominates the "west" region.
type RetailDataGenerator struct {
	config RetailGeneratorConfig
	rng    *rand.Rand
}

// NewRetailDataGenerator creates a new retail data generator
func NewRetailDataGenerator(config RetailGeneratorConfig) *RetailDataGenerator {
	return &RetailDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Dimensions lists the categorical fields the generator emits.
func (g *RetailDataGenerator) Dimensions() []string {
	return []string{FieldRegion, FieldChannel, FieldMonth}
}

// Measures lists the numeric fields the generator emits.
func (g *RetailDataGenerator) Measures() []string {
	return []string{FieldUnits, FieldRevenue, FieldDiscount, FieldReturns}
}

// GenerateRows generates the configured number of orders
func (g *RetailDataGenerator) GenerateRows() ([]dataset.Row, error) {
	if len(g.config.Regions) == 0 || len(g.config.Channels) == 0 {
		return nil, fmt.Errorf("retail generator needs at least one region and one channel")
	}
	if g.config.Months <= 0 {
		return nil, fmt.Errorf("retail generator needs a positive month count, got %d", g.config.Months)
	}

	rows := make([]dataset.Row, 0, g.config.OrderCount)
	for i := 0; i < g.config.OrderCount; i++ {
		rows = append(rows, g.generateOrder())
	}
	return rows, nil
}

func (g *RetailDataGenerator) generateOrder() dataset.Row {
	region := g.config.Regions[g.rng.Intn(len(g.config.Regions))]
	channel := g.pickChannel(region)
	month := g.config.StartDate.AddDate(0, g.rng.Intn(g.config.Months), 0)

	units := math.Max(1, math.Round(5+g.rng.NormFloat64()*2))
	if channel == "online" {
		units += 3
	}
	discount := math.Max(0, math.Min(0.5, 0.1+g.rng.NormFloat64()*0.08))
	unitPrice := 20 * (1 - discount)
	revenue := math.Round(units*unitPrice*100) / 100

	returns := 0.0
	if g.rng.Float64() < 0.05+discount/2 {
		returns = 1
	}

	return dataset.Row{
		FieldRegion:   dataset.String(region),
		FieldChannel:  dataset.String(channel),
		FieldMonth:    dataset.String(month.Format("2006-01-02")),
		FieldUnits:    dataset.Number(units),
		FieldRevenue:  dataset.Number(revenue),
		FieldDiscount: dataset.Number(math.Round(discount*1000) / 1000),
		FieldReturns:  dataset.Number(returns),
	}
}

// pickChannel skews "west" towards the first online-like channel
func (g *RetailDataGenerator) pickChannel(region string) string {
	if region == "west" && g.rng.Float64() < 0.7 {
		for _, c := range g.config.Channels {
			if c == "online" {
				return c
			}
		}
	}
	return g.config.Channels[g.rng.Intn(len(g.config.Channels))]
}
