package health

import "context"

// Probe checks one dependency; a nil error means it is usable.
type Probe func(ctx context.Context) error

// Pinger checks database availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingProbe adapts a Pinger.
func PingProbe(p Pinger) Probe { return p.Ping }
