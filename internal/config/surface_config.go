package config

import "time"

type SurfaceConfig interface {
	GetListenAddress() string
	GetCallbackPath() string
	GetPollInterval() time.Duration
	GetHardTimeout() time.Duration
}

type Surface struct{}

var _ SurfaceConfig = Surface{}

func (Surface) GetListenAddress() string {
	return GetEnv("REDIRECT_LISTEN_ADDR", "127.0.0.1:53682")
}

func (Surface) GetCallbackPath() string {
	return GetEnv("REDIRECT_CALLBACK_PATH", "/callback")
}

func (Surface) GetPollInterval() time.Duration {
	return 250 * time.Millisecond
}

func (Surface) GetHardTimeout() time.Duration {
	return 5 * time.Minute
}
