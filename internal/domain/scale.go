package domain

// ChartScale is the host chart's price<->pixel mapping. Implementations must
// be monotonic and mutually inverse within the visible range; the tool never
// caches results across frames.
type ChartScale interface {
	YFromPrice(price float64) float64
	PriceFromY(y float64) float64
}

// LinearScale maps a visible [PriceBottom, PriceTop] range onto [Height, 0]
// pixels, top of the chart being y=0.
type LinearScale struct {
	PriceTop    float64
	PriceBottom float64
	Height      float64
}

func (s LinearScale) YFromPrice(price float64) float64 {
	span := s.PriceTop - s.PriceBottom
	if span == 0 {
		return 0
	}
	return (s.PriceTop - price) / span * s.Height
}

func (s LinearScale) PriceFromY(y float64) float64 {
	if s.Height == 0 {
		return s.PriceTop
	}
	return s.PriceTop - y/s.Height*(s.PriceTop-s.PriceBottom)
}
