// Command adaboards-devserver runs the in-memory Adaboards API locally,
// so the client can be developed and demoed without a real deployment.
package main

import (
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"adaboards/fakeapi"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	tokenTTL := time.Hour
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid TOKEN_TTL: %v", err)
		}
		tokenTTL = d
	}

	opts := []fakeapi.Option{fakeapi.WithTokenTTL(tokenTTL)}
	if secret := os.Getenv("AUTH_SECRET"); secret != "" {
		opts = append(opts, fakeapi.WithSecret([]byte(secret)))
	}

	srv := fakeapi.New(opts...)
	e := srv.Echo()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	pprof.Register(e)

	listenAddr := ":3000"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	log.WithField("addr", listenAddr).Info("adaboards dev server starting")
	e.Logger.Fatal(e.Start(listenAddr))
}
