package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/production_backend/config"
	"bitbucket.org/mmdatafocus/production_backend/models"
	"bitbucket.org/mmdatafocus/production_backend/utils"
	"bitbucket.org/mmdatafocus/production_backend/workflow"
)

func TestArticleLifecycleAgainstMySQL(t *testing.T) {
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
	t.Setenv("DB_NAME", "production_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()
	db := config.GetDB()

	ctx := utils.SetFactoryIdInContext(context.Background(), "factory-a")
	ctx = utils.SetUserNameInContext(ctx, "integration")

	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Code:   "scarf",
		Name:   "Scarf",
		Floors: []string{"knit", "1st checking", "wh"},
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	provider := models.NewProductFloorSequenceProvider(db, nil)
	order, err := models.CreateProductionOrder(ctx, &models.NewProductionOrder{
		OrderNumber: "PO-1",
		Articles: []models.NewArticle{
			{ArticleNo: "SC-1", ProductId: product.ID, PlannedQuantity: 100},
			{ArticleNo: "SW-1", PlannedQuantity: 50},
		},
	}, provider)
	if err != nil {
		t.Fatalf("CreateProductionOrder: %v", err)
	}
	if len(order.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(order.Articles))
	}
	scarf := order.Articles[0]
	if len(scarf.FloorQuantities) != 3 {
		t.Fatalf("product route not applied, %d floor records", len(scarf.FloorQuantities))
	}
	if len(order.Articles[1].FloorQuantities) != len(models.DefaultFloorSequence()) {
		t.Fatalf("default route not applied to article without product")
	}

	_, err = models.CreateProductionOrder(ctx, &models.NewProductionOrder{
		OrderNumber: "PO-1",
		Articles:    []models.NewArticle{{ArticleNo: "X-1", PlannedQuantity: 1}},
	}, provider)
	if !errors.Is(err, models.ErrDuplicateOrderNumber) {
		t.Fatalf("expected ErrDuplicateOrderNumber, got %v", err)
	}

	store := models.NewGormArticleStore(db)
	lifecycle := workflow.NewArticleLifecycle(store, provider, models.NewTransferEventSink(db),
		workflow.WithLocker(workflow.NewRedisArticleLocker()),
		workflow.WithSinglePass(false),
	)

	t.Run("progress persists counters and mirrors the order floor", func(t *testing.T) {
		if _, err := lifecycle.UpdateProgress(ctx, scarf.ID, models.FloorKnitting, 100, workflow.ProgressMetadata{}); err != nil {
			t.Fatalf("UpdateProgress: %v", err)
		}
		a, err := store.GetArticle(ctx, scarf.ID)
		if err != nil {
			t.Fatalf("GetArticle: %v", err)
		}
		if a.CurrentFloor != models.FloorChecking || a.Version != 1 {
			t.Fatalf("unexpected article state floor=%s version=%d", a.CurrentFloor, a.Version)
		}
		if got := a.Record(models.FloorChecking).Received; got != 100 {
			t.Fatalf("Checking received = %d, want 100", got)
		}
		o, err := models.GetProductionOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("GetProductionOrder: %v", err)
		}
		if o.CurrentFloor != models.FloorChecking {
			t.Fatalf("order floor = %s, want Checking", o.CurrentFloor)
		}

		events, err := models.ListArticleTransferEvents(ctx, db, scarf.ID)
		if err != nil {
			t.Fatalf("ListArticleTransferEvents: %v", err)
		}
		kinds := map[models.TransferKind]int{}
		for _, e := range events {
			kinds[e.Kind]++
			if e.PublishStatus != models.OutboxPublishStatusPending || e.Actor != "integration" {
				t.Fatalf("unexpected ledger row %+v", e)
			}
		}
		if kinds[models.TransferKindProgress] != 1 || kinds[models.TransferKindTransfer] != 1 || kinds[models.TransferKindFloorAdvance] != 1 {
			t.Fatalf("unexpected ledger kinds %v", kinds)
		}
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		stale, err := store.GetArticle(ctx, scarf.ID)
		if err != nil {
			t.Fatalf("GetArticle: %v", err)
		}
		fresh := stale.Clone()
		if err := store.SaveArticle(ctx, fresh); err != nil {
			t.Fatalf("SaveArticle: %v", err)
		}
		if err := store.SaveArticle(ctx, stale); !errors.Is(err, models.ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("other factories cannot see the article", func(t *testing.T) {
		other := utils.SetFactoryIdInContext(context.Background(), "factory-b")
		if _, err := lifecycle.GetArticle(other, scarf.ID); !errors.Is(err, workflow.ErrArticleNotFound) {
			t.Fatalf("expected ErrArticleNotFound across factories, got %v", err)
		}
	})

	t.Run("delete keeps the ledger", func(t *testing.T) {
		if err := lifecycle.DeleteArticle(ctx, scarf.ID); err != nil {
			t.Fatalf("DeleteArticle: %v", err)
		}
		if _, err := lifecycle.GetArticle(ctx, scarf.ID); !errors.Is(err, workflow.ErrArticleNotFound) {
			t.Fatalf("expected ErrArticleNotFound after delete, got %v", err)
		}
		var records int64
		db.WithContext(ctx).Model(&models.FloorQuantity{}).Where("article_id = ?", scarf.ID).Count(&records)
		if records != 0 {
			t.Fatalf("expected floor records to be deleted, %d left", records)
		}
		events, _ := models.ListOrderTransferEvents(ctx, db, order.ID)
		if len(events) == 0 {
			t.Fatalf("ledger rows must survive article deletion")
		}
	})
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("production-test-redis-%d", time.Now().UnixNano())
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
	name := fmt.Sprintf("production-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=production_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
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
