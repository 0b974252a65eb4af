package ledgerapi

import (
	"fmt"
	"reflect"

	"github.com/c360studio/semstreams/component"

	"github.com/c360studio/ledgerstream/events"
)

// ledgerAPISchema holds the configuration schema generated from Config.
var ledgerAPISchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Config holds configuration for the ledger-api component. The defaults
// mirror the dashboard page defaults, so an empty config serves the
// standard views.
type Config struct {
	Ports *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`

	// StreamName is the JetStream stream sync requests publish to.
	StreamName string `json:"stream_name" schema:"type:string,description:JetStream stream name,category:basic,default:LEDGER"`

	// DefaultExcludes lists category patterns dropped from spending views
	// when a request carries no exclude parameter. Glob patterns work.
	DefaultExcludes []string `json:"default_excludes" schema:"type:array,description:Category patterns excluded from spending views,category:basic"`

	// Windows lists the moving-average windows, in months, for the total
	// spending view.
	Windows []int `json:"windows" schema:"type:array,description:Moving-average windows in months,category:advanced"`

	// ComparativeMonths is how many previous months the comparative
	// spending view covers.
	ComparativeMonths int `json:"comparative_months" schema:"type:int,description:Months covered by the comparative view,category:advanced,default:3,min:1,max:24"`

	// HistogramBins is the default bin count for transaction histograms.
	HistogramBins int `json:"histogram_bins" schema:"type:int,description:Histogram bin count,category:advanced,default:30,min:1,max:500"`

	// DefaultCategory drives the histogram and subcategory views when a
	// request names no category.
	DefaultCategory string `json:"default_category" schema:"type:string,description:Category used when none is requested,category:basic,default:Shopping"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		return fmt.Errorf("stream_name is required")
	}
	if c.ComparativeMonths <= 0 {
		return fmt.Errorf("comparative_months must be positive")
	}
	if c.HistogramBins <= 0 {
		return fmt.Errorf("histogram_bins must be positive")
	}
	for _, w := range c.Windows {
		if w <= 0 {
			return fmt.Errorf("moving-average windows must be positive, got %d", w)
		}
	}
	return nil
}

// DefaultConfig returns the standard dashboard configuration.
func DefaultConfig() Config {
	return Config{
		StreamName:        events.StreamName,
		DefaultExcludes:   []string{"Rent"},
		Windows:           []int{3, 6, 12},
		ComparativeMonths: 3,
		HistogramBins:     30,
		DefaultCategory:   "Shopping",
		Ports: &component.PortConfig{
			Outputs: []component.PortDefinition{
				{
					Name:        "sync.out",
					Type:        "jetstream",
					Subject:     events.SyncRequestSubject,
					StreamName:  events.StreamName,
					Required:    false,
					Description: "Sync requests published on demand",
				},
			},
		},
	}
}
