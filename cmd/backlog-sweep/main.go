package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/production_backend/config"
	"bitbucket.org/mmdatafocus/production_backend/models"
	"bitbucket.org/mmdatafocus/production_backend/utils"
	"bitbucket.org/mmdatafocus/production_backend/workflow"
	"github.com/sirupsen/logrus"
)

// backlog-sweep pushes completed-but-untransferred units forward for articles that were
// updated while PROPAGATION_SINGLE_PASS was on, then re-runs the completion check.
func main() {
	factoryID := flag.String("factory-id", "", "Optional: only sweep this factory's articles")
	articleID := flag.Int("article-id", 0, "Optional: sweep a single article id")
	orderID := flag.Int("order-id", 0, "Optional: sweep every open article of one order")
	actor := flag.String("actor", "backlog-sweep", "Actor recorded on ledger entries")
	continueOnError := flag.Bool("continue-on-error", true, "Continue when an article fails")
	dryRun := flag.Bool("dry-run", false, "Report backlog only (no writes)")
	flag.Parse()

	overrides, err := config.GetFloorSequenceOverrides()
	if err != nil {
		fmt.Fprintf(os.Stderr, "floor sequences: %v\n", err)
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	locker := workflow.ArticleLocker(workflow.NewKeyedMutex())
	if strings.TrimSpace(os.Getenv("REDIS_ADDRESS")) != "" {
		config.ConnectRedisWithRetry()
		locker = workflow.NewRedisArticleLocker()
	}

	logger := config.GetLogger()
	ctx := utils.SetUserNameInContext(context.Background(), *actor)
	if f := strings.TrimSpace(*factoryID); f != "" {
		ctx = utils.SetFactoryIdInContext(ctx, f)
	} else {
		ctx = utils.SetSkipFactoryScopeInContext(ctx, true)
	}

	ids, err := openArticleIDs(ctx, *articleID, *orderID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed: %v\n", err)
		os.Exit(1)
	}

	store := models.NewGormArticleStore(db)
	provider := models.NewProductFloorSequenceProvider(db, overrides)
	lifecycle := workflow.NewArticleLifecycle(store, provider, models.NewTransferEventSink(db), workflow.WithLocker(locker))

	var swept, failed int
	for _, id := range ids {
		if *dryRun {
			backlog, err := articleBacklog(ctx, store, provider, id)
			if err != nil {
				fmt.Fprintf(os.Stderr, "article_id=%d failed: %v\n", id, err)
				failed++
				continue
			}
			fmt.Printf("article_id=%d backlog_units=%d\n", id, backlog)
			continue
		}
		article, err := lifecycle.SweepBacklog(ctx, id, *actor)
		if err != nil && !workflow.IsAuditWarning(err) {
			config.LogError(logger, "backlog-sweep", "main", "SweepBacklog", id, err)
			fmt.Fprintf(os.Stderr, "article_id=%d failed: %v\n", id, err)
			failed++
			if !*continueOnError {
				os.Exit(1)
			}
			continue
		}
		if err != nil {
			logger.WithFields(logrus.Fields{"field": "backlog-sweep", "article_id": id}).Warn(err.Error())
		}
		swept++
		fmt.Printf("article_id=%d current_floor=%s status=%s progress=%s\n", id, article.CurrentFloor, article.Status, article.Progress)
	}
	fmt.Printf("articles=%d swept=%d failed=%d dry_run=%t\n", len(ids), swept, failed, *dryRun)
	if failed > 0 {
		os.Exit(1)
	}
}

func openArticleIDs(ctx context.Context, articleID, orderID int) ([]int, error) {
	if articleID > 0 {
		return []int{articleID}, nil
	}
	q := config.GetDB().WithContext(ctx).Model(&models.Article{}).
		Where("status <> ?", models.ArticleStatusCompleted)
	if orderID > 0 {
		q = q.Where("order_id = ?", orderID)
	}
	var ids []int
	err := q.Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

func articleBacklog(ctx context.Context, store *models.GormArticleStore, provider *models.ProductFloorSequenceProvider, id int) (int, error) {
	article, err := store.GetArticle(ctx, id)
	if err != nil {
		return 0, err
	}
	floors, err := provider.FloorSequence(ctx, article)
	if err != nil {
		return 0, err
	}
	seq := models.FloorSequence(floors)
	total := 0
	for _, rec := range article.FloorQuantities {
		if !seq.Contains(rec.Floor) {
			continue
		}
		if b := rec.Backlog(seq.Role(rec.Floor)); b > 0 {
			total += b
		}
	}
	return total, nil
}
