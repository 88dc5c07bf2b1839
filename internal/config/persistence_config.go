package config

type PersistenceConfig interface {
	GetPersistTokens() bool
	GetPersistRefreshToken() bool
}

type Persistence struct{}

var _ PersistenceConfig = Persistence{}

func (Persistence) GetPersistTokens() bool {
	return GetEnv("PERSIST_TOKENS", "true") == "true"
}

// Refresh tokens stay in memory unless explicitly opted in.
func (Persistence) GetPersistRefreshToken() bool {
	return GetEnv("PERSIST_REFRESH_TOKEN", "false") == "true"
}
