package config

type ProviderConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetMicrosoftClientID() string
	GetMicrosoftTenant() string
	GetMicrosoftB2CDomain() string
}

type Providers struct{}

var _ ProviderConfig = Providers{}

func (Providers) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (Providers) GetGoogleClientSecret() string {
	return GetEnv("GOOGLE_CLIENT_SECRET", "")
}

func (Providers) GetMicrosoftClientID() string {
	return GetEnv("MICROSOFT_CLIENT_ID", "")
}

func (Providers) GetMicrosoftTenant() string {
	return GetEnv("MICROSOFT_TENANT", "common")
}

func (Providers) GetMicrosoftB2CDomain() string {
	return GetEnv("MICROSOFT_B2C_DOMAIN", "")
}
