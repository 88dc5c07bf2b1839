package config

type Config interface {
	EnvConfig
	ProviderConfig
	SurfaceConfig
	PersistenceConfig
}

type mainConfig struct {
	EnvVars
	Providers
	Surface
	Persistence
}

func New() Config {
	return mainConfig{}
}
