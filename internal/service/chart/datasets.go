package chart

import (
	"sync"

	"github.com/mamadbah2/breadlog/internal/domain/metrics"
)

// Dataset is one plotted series.
type Dataset struct {
	Label string    `json:"label"`
	Kind  string    `json:"kind"`
	Data  []float64 `json:"data"`
}

// Chart is one chart's labels and datasets.
type Chart struct {
	Title    string    `json:"title"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Payload is what the front end draws: a production vs sales bar chart and a
// waste/efficiency line chart.
type Payload struct {
	Production Chart `json:"production"`
	Waste      Chart `json:"waste"`
}

// DatasetRenderer turns trend series into chart datasets.
type DatasetRenderer struct{}

func (DatasetRenderer) Render(trend metrics.Trend) (Instance, error) {
	labels := append([]string(nil), trend.Dates...)
	return &datasetInstance{payload: Payload{
		Production: Chart{
			Title:  "Produção vs Vendas",
			Labels: labels,
			Datasets: []Dataset{
				{Label: "Produzido", Kind: "bar", Data: append([]float64(nil), trend.Produced...)},
				{Label: "Vendido", Kind: "bar", Data: append([]float64(nil), trend.Sold...)},
			},
		},
		Waste: Chart{
			Title:  "Desperdício e Eficiência",
			Labels: labels,
			Datasets: []Dataset{
				{Label: "Sobras", Kind: "line", Data: append([]float64(nil), trend.Waste...)},
				{Label: "Eficiência (%)", Kind: "line", Data: append([]float64(nil), trend.Efficiency...)},
			},
		},
	}}, nil
}

type datasetInstance struct {
	mu       sync.Mutex
	payload  Payload
	disposed bool
}

func (d *datasetInstance) Payload() (Payload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return Payload{}, ErrDisposed
	}
	return d.payload, nil
}

func (d *datasetInstance) Dispose() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return ErrDisposed
	}
	d.disposed = true
	return nil
}
