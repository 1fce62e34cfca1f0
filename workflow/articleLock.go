package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/production_backend/config"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

// ArticleLocker serializes mutations of one article. Unlock must always be called.
type ArticleLocker interface {
	Lock(ctx context.Context, articleId int) (unlock func(), err error)
}

// KeyedMutex is an in-process lock per article id. Entries are dropped when nobody holds or
// waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int]*keyedEntry)}
}

func (k *KeyedMutex) Lock(ctx context.Context, articleId int) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[articleId]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.locks[articleId] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(articleId, e)
		return func() {}, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(articleId, e)
		})
	}, nil
}

func (k *KeyedMutex) release(articleId int, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, articleId)
	}
}

// RedisArticleLocker adds a cross-instance Redis lock on top of the in-process lock.
// The Redis lock is best-effort: when Redis is down or the lock stays busy the call proceeds and
// the optimistic version check on save rejects the losing writer.
type RedisArticleLocker struct {
	local   *KeyedMutex
	client  func() *redislock.Client
	ttl     time.Duration
	backoff redislock.RetryStrategy
	logger  *logrus.Logger
}

func NewRedisArticleLocker() *RedisArticleLocker {
	return &RedisArticleLocker{
		local:  NewKeyedMutex(),
		client: config.GetRedisLock,
		ttl:    30 * time.Second,
		logger: config.GetLogger(),
	}
}

func articleLockKey(articleId int) string {
	return fmt.Sprintf("article-lock:%d", articleId)
}

func (l *RedisArticleLocker) Lock(ctx context.Context, articleId int) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, articleId)
	if err != nil {
		return unlockLocal, err
	}

	locker := l.client()
	if locker == nil {
		return unlockLocal, nil
	}
	retry := l.backoff
	if retry == nil {
		retry = redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50)
	}
	lock, err := locker.Obtain(ctx, articleLockKey(articleId), l.ttl, &redislock.Options{RetryStrategy: retry})
	if err != nil {
		msg := "error obtaining redis lock; proceeding without redis lock: " + err.Error()
		if errors.Is(err, redislock.ErrNotObtained) {
			msg = "could not obtain redis lock; proceeding without redis lock"
		}
		l.logger.WithFields(logrus.Fields{
			"field":      "RedisArticleLocker",
			"article_id": articleId,
		}).Warn(msg)
		return unlockLocal, nil
	}

	return func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			l.logger.WithFields(logrus.Fields{
				"field":      "RedisArticleLocker",
				"article_id": articleId,
			}).Warn("failed to release redis lock: " + releaseErr.Error())
		}
		unlockLocal()
	}, nil
}
