// Command authdemo runs an interactive sign-in from the terminal: it wires
// the provider adapters to a loopback redirect surface, signs in with the
// provider named on the command line, prints the resulting user, exercises a
// token refresh where the provider supports one and signs out again.
//
// Usage: authdemo [google|microsoft]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/google"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/microsoft"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/jrsteele09/go-auth-client/storage"
	"github.com/jrsteele09/go-auth-client/surface"
	"github.com/jrsteele09/go-auth-client/token"
)

func main() {
	if err := run(); err != nil {
		log.Err(err).Msg("authdemo failed")
		os.Exit(1)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()
	c := config.New()
	setupLogging(c)
	displayAppName(c.GetAppName())

	provider := authmodel.ProviderGoogle
	if len(os.Args) > 1 {
		provider = authmodel.Provider(os.Args[1])
	}

	service, err := buildService(c)
	if err != nil {
		return err
	}

	unsubscribe := service.OnAuthStateChanged(func(user *authmodel.User) {
		if user == nil {
			log.Info().Msg("Signed out")
			return
		}
		log.Info().Str("provider", string(user.Provider)).Str("email", user.Email).Msg("Signed in")
	})
	defer unsubscribe()

	ctx := context.Background()

	user, err := service.SilentRestore(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		if user, err = service.Login(ctx, provider, authmodel.LoginOptions{}); err != nil {
			return err
		}
	}
	printUser(user)

	if provider != authmodel.ProviderApple {
		tokens, err := service.RefreshToken(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Token refresh failed")
		} else {
			log.Info().Time("expires", time.UnixMilli(tokens.ExpirationTime)).Msg("Tokens refreshed")
		}
	}

	return service.Logout(ctx)
}

func buildService(c config.Config) (*auth.Service, error) {
	surf := surface.NewLoopback(c.GetListenAddress(),
		surface.WithCallbackPath(c.GetCallbackPath()),
		surface.WithPollInterval(c.GetPollInterval()),
		surface.WithHardTimeout(c.GetHardTimeout()),
	)

	storeOptions := []sessions.StoreOption{}
	if !c.GetPersistTokens() {
		storeOptions = append(storeOptions, sessions.WithoutPersistedTokens())
	}
	if c.GetPersistRefreshToken() {
		storeOptions = append(storeOptions, sessions.WithPersistedRefreshToken())
	}
	store, err := sessions.NewStore(storage.NewMemory(), storeOptions...)
	if err != nil {
		return nil, err
	}

	adapters := auth.Adapters{
		Google: google.New(google.Config{
			ClientID:     c.GetGoogleClientID(),
			ClientSecret: c.GetGoogleClientSecret(),
			RedirectURI:  surf.RedirectURI(),
		}, nil, surf),
		Microsoft: microsoft.New(microsoft.Config{
			ClientID:    c.GetMicrosoftClientID(),
			Tenant:      c.GetMicrosoftTenant(),
			B2CDomain:   c.GetMicrosoftB2CDomain(),
			RedirectURI: surf.RedirectURI(),
		}, surf, token.NewExchanger()),
	}
	return auth.NewService(adapters, store)
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func displayAppName(appName string) {
	banner := figure.NewFigure(appName, "", true)
	banner.Print()
	fmt.Println()
}

func printUser(user *authmodel.User) {
	if user == nil {
		return
	}
	log.Info().
		Str("provider", string(user.Provider)).
		Str("email", user.Email).
		Str("name", user.Name).
		Strs("scopes", user.Scopes).
		Msg("Current user")
}
