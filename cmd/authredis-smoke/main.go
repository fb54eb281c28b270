// Command authredis-smoke exercises every adapter operation against a live
// Redis and reports each step. Intended for verifying a deployment target
// (ElastiCache, Valkey, plain Redis) before pointing an application at it.
//
// The target comes from -redis-addr, the REDIS_ADDR environment variable, or
// an embedded miniredis when neither is set. All keys are written under the
// -prefix namespace and removed on success.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/moo2u2/authredis"
)

func main() {
	var (
		redisAddr = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix    = flag.String("prefix", "authredis-smoke:", "base key prefix for all smoke-test keys")
		ttl       = flag.Duration("ttl", 5*time.Minute, "sliding TTL applied to every key (0 disables expiry)")
		timeout   = flag.Duration("timeout", 30*time.Second, "overall deadline for the smoke run")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("start miniredis")
		}
		addr = mr.Addr()
		cleanup = mr.Close
		log.Info().Str("addr", addr).Msg("no target configured, using miniredis")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer func() {
		_ = client.Close()
		if cleanup != nil {
			cleanup()
		}
	}()

	adapter := authredis.New(client, authredis.Options{
		BaseKeyPrefix: *prefix,
		TTL:           *ttl,
		Logger:        &log,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, adapter, log); err != nil {
		log.Fatal().Err(err).Msg("smoke run failed")
	}
	log.Info().Msg("all operations passed")
}

func run(ctx context.Context, adapter *authredis.Adapter, log zerolog.Logger) error {
	latency, err := adapter.Ping(ctx)
	if err != nil {
		return err
	}
	log.Info().Dur("latency", latency).Msg("ping")

	user, err := adapter.CreateUser(ctx, authredis.User{
		Name:  "Smoke Test",
		Email: "smoke@example.com",
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	log.Info().Str("id", user.ID).Msg("created user")

	if got, err := adapter.GetUserByEmail(ctx, "smoke@example.com"); err != nil {
		return fmt.Errorf("get user by email: %w", err)
	} else if got == nil || got.ID != user.ID {
		return fmt.Errorf("email index resolved %v, want %s", got, user.ID)
	}

	if _, err := adapter.LinkAccount(ctx, authredis.Account{
		UserID:            user.ID,
		Type:              "oauth",
		Provider:          "smoke",
		ProviderAccountID: "1",
	}); err != nil {
		return fmt.Errorf("link account: %w", err)
	}
	if got, err := adapter.GetUserByAccount(ctx, "smoke", "1"); err != nil {
		return fmt.Errorf("get user by account: %w", err)
	} else if got == nil || got.ID != user.ID {
		return fmt.Errorf("account index resolved %v, want %s", got, user.ID)
	}

	if _, err := adapter.CreateSession(ctx, authredis.Session{
		SessionToken: "smoke-token",
		UserID:       user.ID,
		Expires:      time.Now().Add(time.Hour),
	}); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if sess, u, err := adapter.GetSessionAndUser(ctx, "smoke-token"); err != nil {
		return fmt.Errorf("get session and user: %w", err)
	} else if sess == nil || u == nil {
		return fmt.Errorf("session round-trip incomplete: %v %v", sess, u)
	}

	if _, err := adapter.CreateVerificationToken(ctx, authredis.VerificationToken{
		Identifier: "smoke@example.com",
		Token:      "smoke-verify",
		Expires:    time.Now().Add(time.Hour),
	}); err != nil {
		return fmt.Errorf("create verification token: %w", err)
	}
	if tok, err := adapter.UseVerificationToken(ctx, "smoke@example.com", "smoke-verify"); err != nil {
		return fmt.Errorf("use verification token: %w", err)
	} else if tok == nil {
		return fmt.Errorf("verification token missing on first use")
	}
	if tok, err := adapter.UseVerificationToken(ctx, "smoke@example.com", "smoke-verify"); err != nil {
		return fmt.Errorf("reuse verification token: %w", err)
	} else if tok != nil {
		return fmt.Errorf("verification token usable twice")
	}
	log.Info().Msg("verification token single-use verified")

	if err := adapter.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if got, err := adapter.GetUser(ctx, user.ID); err != nil {
		return fmt.Errorf("verify delete: %w", err)
	} else if got != nil {
		return fmt.Errorf("user survived delete")
	}
	log.Info().Msg("cleanup verified")

	return nil
}
