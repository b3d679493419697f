package contact

// Config controls contact detection
type Config struct {
	// Tolerance is relative to the largest master or slave facet diameter. Swept volumes must overlap by more
	// than Tolerance*h to collide.
	Tolerance float64
	Verbose   bool
}

func DefaultConfig() Config {
	return Config{
		Tolerance: 1.e-8,
	}
}
