package health

type Status string

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

// Indicator is a named readiness probe surfaced by the /health endpoint.
type Indicator struct {
	Name  string
	Check func() error
}

func NewIndicator(name string, check func() error) *Indicator {
	return &Indicator{Name: name, Check: check}
}
