package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
	"valentine_week_backend/internal/config"
	"valentine_week_backend/internal/model"
	"valentine_week_backend/internal/repository"
	"valentine_week_backend/internal/util"
	"valentine_week_backend/pkg/logger"
	"valentine_week_backend/pkg/monitoring"
	"valentine_week_backend/pkg/tracing"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProgressNotifier 进度变更后推送给同一用户的其它设备
type ProgressNotifier interface {
	PublishProgress(ctx context.Context, p *model.UserProgress)
}

// ProgressService 负责解锁判断、完成记录和回放模式
type ProgressService struct {
	repo       *repository.ProgressRepository
	events     *repository.CompletionEventRepository
	cache      repository.ProgressCache
	notifier   ProgressNotifier
	catalog    []model.ValentineDay
	autoReplay bool
	now        func() time.Time

	// 同一用户的写操作在进程内串行
	locks sync.Map
}

func NewProgressService(
	repo *repository.ProgressRepository,
	events *repository.CompletionEventRepository,
	cache repository.ProgressCache,
	cfg config.ProgressConfig,
) *ProgressService {
	return &ProgressService{
		repo:       repo,
		events:     events,
		cache:      cache,
		catalog:    model.ValentineWeek(),
		autoReplay: cfg.AutoReplay,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *ProgressService) SetNotifier(n ProgressNotifier) {
	s.notifier = n
}

func (s *ProgressService) Catalog() []model.ValentineDay {
	return model.ValentineWeek()
}

func (s *ProgressService) lock(userID string) func() {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func checkUserID(userID string) error {
	if !util.ValidUserID(userID) {
		return fmt.Errorf("%w: %q", util.ErrInvalidUserID, userID)
	}
	return nil
}

// GetProgress 读取进度，优先走缓存；不存在时返回 ErrProgressNotFound
func (s *ProgressService) GetProgress(ctx context.Context, userID string) (p *model.UserProgress, err error) {
	ctx, span := tracing.StartSpan(ctx, "progress.get", userID)
	defer func() { tracing.EndSpan(span, ignoreNotFound(err)) }()

	if err := checkUserID(userID); err != nil {
		return nil, err
	}

	if s.cache == nil {
		return s.repo.FindByUserID(ctx, userID)
	}
	if cached := s.cachedProgress(ctx, userID); cached != nil {
		monitoring.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	monitoring.CacheLookups.WithLabelValues("miss").Inc()

	// 回填与写操作互斥，避免把提交前读到的快照写回缓存
	unlock := s.lock(userID)
	defer unlock()
	if cached := s.cachedProgress(ctx, userID); cached != nil {
		return cached, nil
	}

	p, err = s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.storeCache(ctx, p)
	return p, nil
}

func (s *ProgressService) cachedProgress(ctx context.Context, userID string) *model.UserProgress {
	cached, err := s.cache.Get(ctx, userID)
	if err != nil {
		logger.Log.Warn("progress cache read failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return cached
}

// InitProgress 创建初始进度（第一天解锁），已存在时原样返回
func (s *ProgressService) InitProgress(ctx context.Context, userID string) (p *model.UserProgress, created bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "progress.init", userID)
	defer func() { tracing.EndSpan(span, err) }()

	if err := checkUserID(userID); err != nil {
		return nil, false, err
	}

	unlock := s.lock(userID)
	defer unlock()

	p, created, err = s.repo.Create(ctx, model.NewUserProgress(userID, s.catalog, s.now()))
	if err != nil {
		return nil, false, err
	}
	if created {
		logger.Log.Info("progress initialized", zap.String("user_id", userID), zap.Int("days", len(p.Days)))
		s.storeCache(ctx, p)
	}
	return p, created, nil
}

// GetOrInitProgress 单用户旧接口使用：不存在时自动初始化
func (s *ProgressService) GetOrInitProgress(ctx context.Context, userID string) (*model.UserProgress, error) {
	p, err := s.GetProgress(ctx, userID)
	if errors.Is(err, util.ErrProgressNotFound) {
		p, _, err = s.InitProgress(ctx, userID)
	}
	return p, err
}

// IsUnlocked 纯函数，无副作用
func (s *ProgressService) IsUnlocked(p *model.UserProgress, dayNumber int) bool {
	return model.IsUnlocked(p, dayNumber)
}

// CompleteDay 标记某天完成。未解锁时返回 ErrDayLocked 且不修改状态；
// 非回放模式下重复完成是幂等的成功调用。
func (s *ProgressService) CompleteDay(ctx context.Context, userID string, dayNumber int, meta datatypes.JSONMap) (p *model.UserProgress, err error) {
	ctx, span := tracing.StartSpan(ctx, "progress.complete_day", userID)
	defer func() { tracing.EndSpan(span, err) }()

	if err := checkUserID(userID); err != nil {
		return nil, err
	}

	unlock := s.lock(userID)
	defer unlock()

	var outcome model.CompletionOutcome
	p, err = s.repo.Update(ctx, userID, func(tx *gorm.DB, p *model.UserProgress) (bool, error) {
		now := s.now()
		replay := p.ReplayMode
		wasCompleted := p.Day(dayNumber) != nil && p.Day(dayNumber).IsCompleted

		outcome = p.Complete(dayNumber, now)
		switch outcome {
		case model.OutcomeInvalidDay:
			return false, fmt.Errorf("%w: %d (have %d days)", util.ErrInvalidDay, dayNumber, len(p.Days))
		case model.OutcomeLocked:
			return false, fmt.Errorf("%w: day %d", util.ErrDayLocked, dayNumber)
		case model.OutcomeUnchanged:
			return false, nil
		}

		if outcome == model.OutcomeCompleted && p.AllCompleted && s.autoReplay {
			p.SetReplay(true, now)
		}

		event := &model.CompletionEvent{
			UserID:          userID,
			DayNumber:       dayNumber,
			Replay:          replay,
			FirstCompletion: !wasCompleted,
			Metadata:        meta,
			OccurredAt:      now,
		}
		if err := s.events.WithTx(tx).Create(ctx, event); err != nil {
			return false, err
		}
		return outcome == model.OutcomeCompleted, nil
	})

	day := strconv.Itoa(dayNumber)
	if err != nil {
		if errors.Is(err, util.ErrDayLocked) {
			monitoring.LockedRejections.WithLabelValues(day).Inc()
			logger.Log.Info("completion rejected: day locked", zap.String("user_id", userID), zap.Int("day", dayNumber))
		}
		return nil, err
	}

	monitoring.DayCompletions.WithLabelValues(day, outcome.String()).Inc()
	logger.Log.Info("day completion",
		zap.String("user_id", userID),
		zap.Int("day", dayNumber),
		zap.String("outcome", outcome.String()),
		zap.Bool("all_completed", p.AllCompleted),
	)

	if outcome == model.OutcomeCompleted {
		s.afterMutation(ctx, p)
	}
	return p, nil
}

// SetReplayMode 切换回放模式，不改变任何一天的完成状态
func (s *ProgressService) SetReplayMode(ctx context.Context, userID string, enabled bool) (p *model.UserProgress, err error) {
	ctx, span := tracing.StartSpan(ctx, "progress.set_replay", userID)
	defer func() { tracing.EndSpan(span, err) }()

	if err := checkUserID(userID); err != nil {
		return nil, err
	}

	unlock := s.lock(userID)
	defer unlock()

	changed := false
	p, err = s.repo.Update(ctx, userID, func(_ *gorm.DB, p *model.UserProgress) (bool, error) {
		changed = p.SetReplay(enabled, s.now())
		return changed, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		logger.Log.Info("replay mode changed", zap.String("user_id", userID), zap.Bool("enabled", enabled))
		s.afterMutation(ctx, p)
	}
	return p, nil
}

// ResetProgress 重建初始状态并清空完成记录
func (s *ProgressService) ResetProgress(ctx context.Context, userID string) (p *model.UserProgress, err error) {
	ctx, span := tracing.StartSpan(ctx, "progress.reset", userID)
	defer func() { tracing.EndSpan(span, err) }()

	if err := checkUserID(userID); err != nil {
		return nil, err
	}

	unlock := s.lock(userID)
	defer unlock()

	fresh := model.NewUserProgress(userID, s.catalog, s.now())
	p, err = s.repo.Replace(ctx, fresh, func(tx *gorm.DB) error {
		return s.events.WithTx(tx).DeleteByUser(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("progress reset", zap.String("user_id", userID))
	s.afterMutation(ctx, p)
	return p, nil
}

// History 返回完成记录，进度不存在时返回 ErrProgressNotFound
func (s *ProgressService) History(ctx context.Context, userID string) ([]model.CompletionEvent, error) {
	if _, err := s.GetProgress(ctx, userID); err != nil {
		return nil, err
	}
	events, err := s.events.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.CompletionEvent{}
	}
	return events, nil
}

func (s *ProgressService) afterMutation(ctx context.Context, p *model.UserProgress) {
	s.storeCache(ctx, p)
	if s.notifier != nil {
		s.notifier.PublishProgress(ctx, p)
	}
}

func (s *ProgressService) storeCache(ctx context.Context, p *model.UserProgress) {
	if s.cache == nil {
		return
	}
	written, err := s.cache.Set(ctx, p)
	if err != nil {
		// 写缓存失败时删除，避免读到旧快照
		logger.Log.Warn("progress cache write failed", zap.String("user_id", p.UserID), zap.Error(err))
		_ = s.cache.Delete(ctx, p.UserID)
		return
	}
	if !written {
		logger.Log.Debug("progress cache holds a newer snapshot", zap.String("user_id", p.UserID))
	}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, util.ErrProgressNotFound) {
		return nil
	}
	return err
}
