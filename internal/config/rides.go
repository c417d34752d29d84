package config

type RidesConfig struct {
	StrictStatusTransitions bool `yaml:"strict_status_transitions"`
	MaxCarCapacity          int  `yaml:"max_car_capacity"`
	MaxSeatsPerBooking      int  `yaml:"max_seats_per_booking"`
}

func loadRidesConfig() *RidesConfig {
	return &RidesConfig{
		StrictStatusTransitions: getEnvAsBool("RIDES_STRICT_STATUS_TRANSITIONS", false),
		MaxCarCapacity:          getEnvAsInt("RIDES_MAX_CAR_CAPACITY", 20),
		MaxSeatsPerBooking:      getEnvAsInt("RIDES_MAX_SEATS_PER_BOOKING", 20),
	}
}
