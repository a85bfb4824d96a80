package repository

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

var (
	testPool  *pgxpool.Pool
	testRedis *redis.Client
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to test database: %v\n", err)
			os.Exit(1)
		}
		if err := EnsureSchema(ctx, pool); err != nil {
			fmt.Fprintf(os.Stderr, "failed to apply schema: %v\n", err)
			os.Exit(1)
		}
		testPool = pool
	} else {
		fmt.Println("TEST_DATABASE_URL not set, skipping postgres integration tests")
	}

	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		testRedis = redis.NewClient(&redis.Options{Addr: addr, DB: 15})
		if err := testRedis.Ping(ctx).Err(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to test redis: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Println("TEST_REDIS_ADDR not set, skipping redis integration tests")
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	if testRedis != nil {
		testRedis.Close()
	}
	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL not set")
	}
}

func requireRedis(t *testing.T) {
	t.Helper()
	if testRedis == nil {
		t.Skip("TEST_REDIS_ADDR not set")
	}
}

func cleanupTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE feedback, wishlist_items, notifications, order_items, orders, products, sellers, users RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to cleanup tables: %v", err)
	}
}
