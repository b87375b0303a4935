package monitor

import "time"

// Status is the last observed health of the backing services.
type Status struct {
	Store        bool      `json:"store"`
	StoreDriver  string    `json:"storeDriver"`
	Redis        bool      `json:"redis"`
	RedisEnabled bool      `json:"redisEnabled"`
	LastCheck    time.Time `json:"lastCheck"`
}

// Healthy reports whether every configured dependency answered.
func (s Status) Healthy() bool {
	return s.Store && (s.Redis || !s.RedisEnabled)
}
