package repositories

import (
	"context"
	"flag"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"patisserie/internal/config"
)

var testCfg *config.Config

func mustStartMongoContainer() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	dbContainer, err := mongodb.Run(context.Background(), "mongo:latest")
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "27017/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	testCfg = &config.Config{
		MongoURI:       fmt.Sprintf("mongodb://%s:%s", dbHost, dbPort.Port()),
		MongoDatabase:  "patisserie_test",
		OTPTTL:         5 * time.Minute,
		OTPMaxAttempts: 3,
		OTPCodeLength:  5,
	}

	return dbContainer.Terminate, err
}

func TestMain(m *testing.M) {
	// testing.Short panics if the test flags are not parsed yet.
	flag.Parse()
	if testing.Short() {
		m.Run()
		return
	}

	teardown, err := mustStartMongoContainer()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not start mongodb container")
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatal().Err(err).Msg("Could not teardown mongodb container")
	}
}
