package hierarchy

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/servicecenter_backend/config"
	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/store/storetest"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Concurrent smart updates built from the same version: the Redis lock serializes them
// on MySQL, one wins and every other writer sees a conflict.
func TestConcurrentReconcileOnMySQLWithRedisLock(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "servicecenter_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	require.NoError(t, models.MigrateTable(db))

	clock := storetest.NewClock()
	f := &fixture{
		svc:      NewService(store.NewGormStore(db), WithClock(clock.Now), WithLocker(NewRedisLocker(config.GetRedisLock()))),
		db:       db,
		clock:    clock,
		customer: storetest.Customer(t, db, "Asha Rao", "+919876543210"),
		tech:     storetest.Employee(t, db, "Vikram"),
		screen:   storetest.Part(t, db, 0, "Screen", 1200),
		battery:  storetest.Part(t, db, 0, "Battery", 800),
	}
	so := f.phoneOrder(t)

	const writers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
		others    []error
	)
	for i := 0; i < writers; i++ {
		doc := updateDocFrom(so)
		job := &doc.Items[0].Jobs[0]
		job.JobParts = append(job.JobParts, models.JobPartUpdate{
			JobPartPatch: models.JobPartPatch{PartId: f.battery.ID, Quantity: i + 1},
		})
		wg.Add(1)
		go func(doc *models.ServiceOrderUpdate) {
			defer wg.Done()
			_, _, err := f.svc.ReconcileServiceOrder(context.Background(), doc)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case utils.IsConflict(err):
				conflicts++
			default:
				others = append(others, err)
			}
		}(doc)
	}
	wg.Wait()

	require.Empty(t, others)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, writers-1, conflicts)

	got, err := f.svc.GetServiceOrderDetailed(context.Background(), so.ID)
	require.NoError(t, err)
	assert.Greater(t, got.Version, so.Version)
	assert.Len(t, got.Items[0].Jobs[0].JobParts, 2)
	f.requireCostInvariant(t)
}

func TestRedisLockerRejectsHeldServiceOrder(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	config.ConnectRedisWithRetry()

	locker := NewRedisLocker(config.GetRedisLock())
	locker.Retries = 2
	locker.Backoff = 10 * time.Millisecond

	ctx := context.Background()
	unlock, err := locker.Lock(ctx, 7)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, 7)
	assert.True(t, utils.IsConflict(err), "%v", err)

	other, err := locker.Lock(ctx, 8)
	require.NoError(t, err)
	other()

	unlock()
	again, err := locker.Lock(ctx, 7)
	require.NoError(t, err)
	again()
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("servicecenter-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "redis-cli", "ping"); err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("servicecenter-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=servicecenter_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent"); err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// "127.0.0.1:49154\n"
	m := regexp.MustCompile(`:(\d+)`).FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	b, err := exec.Command("docker", args...).CombinedOutput()
	return string(b), err
}
