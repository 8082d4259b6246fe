package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lwatty24/fortniteshop.site/internal/client"
	"github.com/lwatty24/fortniteshop.site/internal/domain"
	"github.com/lwatty24/fortniteshop.site/internal/domain/task"
	"github.com/lwatty24/fortniteshop.site/internal/email"
	"github.com/lwatty24/fortniteshop.site/internal/history"
	"github.com/lwatty24/fortniteshop.site/internal/notify"
	"github.com/lwatty24/fortniteshop.site/internal/queue"
	"github.com/lwatty24/fortniteshop.site/internal/repository"
	"github.com/lwatty24/fortniteshop.site/internal/sanitize"
	"github.com/lwatty24/fortniteshop.site/internal/state"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Searcher resolves sanitized queries; see search.Service.
type Searcher interface {
	Search(ctx context.Context, query string) []domain.CatalogItem
}

type Service struct {
	client        client.FortniteClient
	searcher      Searcher
	history       history.Store
	state         state.StateManager
	subscriptions repository.SubscriptionRepository
	dispatcher    *notify.Dispatcher
	queue         queue.Queue
	sender        email.Sender
	clock         clock.Clock

	groupName    string
	minIdleTime  time.Duration
	refreshEvery time.Duration
}

func NewService(
	client client.FortniteClient,
	searcher Searcher,
	historyStore history.Store,
	stateManager state.StateManager,
	subscriptions repository.SubscriptionRepository,
	dispatcher *notify.Dispatcher,
	queue queue.Queue,
	sender email.Sender,
	clk clock.Clock,
	groupName string,
	minIdleTime time.Duration,
	refreshEvery time.Duration,
) *Service {
	return &Service{
		client:        client,
		searcher:      searcher,
		history:       historyStore,
		state:         stateManager,
		subscriptions: subscriptions,
		dispatcher:    dispatcher,
		queue:         queue,
		sender:        sender,
		clock:         clk,
		groupName:     groupName,
		minIdleTime:   minIdleTime,
		refreshEvery:  refreshEvery,
	}
}

// RefreshShop fetches and normalizes the current shop, records today's
// history entry and dispatches wishlist alerts for items that just returned.
// The fetch error is fatal and surfaced; history and alert failures degrade
// to log lines so the snapshot still reaches the caller.
func (s *Service) RefreshShop(ctx context.Context) (*domain.ShopSnapshot, error) {
	snapshot, err := s.client.GetCurrentShop(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.history.Record(ctx, snapshot); err != nil {
		log.Errorf("❌ Failed to record shop history for %s: %v", snapshot.Date, err)
	}

	returned := s.dispatcher.Observe(snapshot)
	if len(returned) > 0 {
		log.Infof("🔄 %d items returned to the shop on %s", len(returned), snapshot.Date)
		s.fanOutAlerts(ctx, returned)
	}

	return snapshot, nil
}

// fanOutAlerts enqueues one alert task per user whose wishlist intersects the
// returned items. Queue failures are logged only; the observed transition is
// already committed and is never rolled back.
func (s *Service) fanOutAlerts(ctx context.Context, returned []domain.CatalogItem) {
	recipients, err := s.state.AlertEmails(ctx)
	if err != nil {
		log.Errorf("❌ Failed to list alert recipients: %v", err)
		return
	}

	for userID, address := range recipients {
		wishlist, err := s.state.Wishlist(ctx, userID)
		if err != nil {
			log.Errorf("❌ Failed to read wishlist for %s: %v", userID, err)
			continue
		}

		matched := notify.FilterWishlisted(returned, wishlist)
		if len(matched) == 0 {
			continue
		}

		alertItems := make([]task.AlertItem, 0, len(matched))
		for _, item := range matched {
			alertItems = append(alertItems, task.AlertItem{
				Name:   item.Name,
				Image:  item.Image,
				Price:  item.Price,
				Type:   item.Type,
				Rarity: item.Rarity,
			})
		}

		if _, err := s.queue.AddTask(ctx, &task.ItemAlertTask{Recipient: address, Items: alertItems}); err != nil {
			log.Errorf("❌ Failed to enqueue alert for %s: %v", address, err)
		}
	}
}

// RunRefreshLoop refreshes the shop immediately and then on the configured
// interval until the context is cancelled.
func (s *Service) RunRefreshLoop(ctx context.Context) error {
	if _, err := s.RefreshShop(ctx); err != nil {
		log.Errorf("❌ Initial shop refresh failed: %v", err)
	}

	ticker := s.clock.Ticker(s.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RefreshShop(ctx); err != nil {
				log.Errorf("❌ Shop refresh failed: %v", err)
			}
		}
	}
}

// ShopForDate serves a historical snapshot, preferring the local history
// store and falling back to an upstream historical fetch.
func (s *Service) ShopForDate(ctx context.Context, date string) (*domain.ShopSnapshot, error) {
	entry, err := s.history.Get(ctx, date)
	if err == nil {
		return &entry.Snapshot, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		log.Warnf("History lookup for %s failed, falling back to upstream: %v", date, err)
	}

	snapshot, err := s.client.GetShopForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	if err := s.history.Record(ctx, snapshot); err != nil {
		log.Warnf("Failed to cache historical shop for %s: %v", date, err)
	}
	return snapshot, nil
}

// HistoryDates returns every stored date ascending, for prev/next navigation.
func (s *Service) HistoryDates(ctx context.Context) ([]string, error) {
	return s.history.ListDates(ctx)
}

// SearchItems sanitizes and resolves a query, recording it in the user's
// recent searches when it was long enough to run.
func (s *Service) SearchItems(ctx context.Context, userID, rawQuery string) []domain.CatalogItem {
	query := sanitize.Clean(rawQuery)
	results := s.searcher.Search(ctx, query)

	if userID != "" {
		if err := s.state.RecordSearch(ctx, userID, query); err != nil {
			log.Warnf("Failed to record search %q for %s: %v", query, userID, err)
		}
	}
	return results
}

func (s *Service) RecentSearches(ctx context.Context, userID string) ([]string, error) {
	return s.state.RecentSearches(ctx, userID)
}

func (s *Service) ClearRecentSearches(ctx context.Context, userID string) error {
	return s.state.ClearRecentSearches(ctx, userID)
}

// ToggleWishlist flips an item's wishlist membership and reports whether the
// item is wishlisted afterwards.
func (s *Service) ToggleWishlist(ctx context.Context, userID string, item domain.CatalogItem) (bool, error) {
	present, err := s.state.InWishlist(ctx, userID, item.ID)
	if err != nil {
		return false, err
	}
	if present {
		return false, s.state.RemoveFromWishlist(ctx, userID, item.ID)
	}
	return true, s.state.AddToWishlist(ctx, userID, item)
}

func (s *Service) Wishlist(ctx context.Context, userID string) ([]domain.CatalogItem, error) {
	return s.state.Wishlist(ctx, userID)
}

func (s *Service) AddToWishlist(ctx context.Context, userID string, item domain.CatalogItem) error {
	return s.state.AddToWishlist(ctx, userID, item)
}

func (s *Service) RemoveFromWishlist(ctx context.Context, userID, itemID string) error {
	return s.state.RemoveFromWishlist(ctx, userID, itemID)
}

// Subscribe registers an email for return alerts. A duplicate email fails
// with domain.ErrSubscriptionConflict; the welcome email is fire-and-forget.
func (s *Service) Subscribe(ctx context.Context, userID, address string) error {
	if err := s.subscriptions.Subscribe(ctx, address); err != nil {
		return err
	}

	if err := s.state.SetAlertEmail(ctx, userID, address); err != nil {
		log.Errorf("❌ Failed to store alert email for %s: %v", userID, err)
	}

	if _, err := s.queue.AddTask(ctx, &task.WelcomeEmailTask{Recipient: address}); err != nil {
		log.Errorf("❌ Failed to enqueue welcome email for %s: %v", address, err)
	}
	return nil
}

func (s *Service) Unsubscribe(ctx context.Context, userID, address string) error {
	if err := s.subscriptions.Unsubscribe(ctx, address); err != nil {
		return err
	}
	if err := s.state.SetAlertEmail(ctx, userID, ""); err != nil {
		log.Errorf("❌ Failed to clear alert email for %s: %v", userID, err)
	}
	return nil
}

// RunWorkers consumes the email task streams until the context is cancelled.
func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	var wg sync.WaitGroup

	for _, taskType := range s.queue.TaskTypes() {
		s.runWorkersForStream(ctx, &wg, numWorkers, s.queue.StreamName(taskType), taskType)
	}

	wg.Wait()
	return nil
}

func (s *Service) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, streamName, workerType string) {
	// Auto-claimer re-assigns messages abandoned by dead consumers.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := s.clock.Ticker(s.minIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%s-%d", workerType, s.clock.Now().UnixNano())
				claimed, err := s.queue.AutoClaim(ctx, s.groupName, consumer, streamName, s.minIdleTime)
				if err != nil {
					log.Errorf("❌ Failed to auto-claim messages for %s: %v", streamName, err)
					continue
				}
				for i := range claimed {
					if err := s.processMessage(ctx, streamName, &claimed[i]); err != nil {
						log.Errorf("❌ Failed to process auto-claimed message %s: %v", claimed[i].ID, err)
					}
				}
			}
		}
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("%s-worker-%d", workerType, workerID)
			log.Infof("🚀 Starting worker %s", consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 Worker %s stopping", consumer)
					return
				default:
					msg, err := s.queue.GetTask(ctx, s.groupName, consumer, streamName)
					if err != nil {
						log.Errorf("❌ Failed to get task from %s: %v", streamName, err)
						continue
					}
					if msg != nil {
						if err := s.processMessage(ctx, streamName, msg); err != nil {
							log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}(i + 1)
	}
}

// processMessage delivers one email task. Delivery failures are logged and
// the message is acked anyway: alerts are fire-and-forget, never retried.
func (s *Service) processMessage(ctx context.Context, streamName string, msg *redis.XMessage) error {
	taskType, ok := msg.Values["task_type"].(string)
	if !ok {
		return fmt.Errorf("invalid task type in message %s", msg.ID)
	}
	taskData, ok := msg.Values["task_data"].(string)
	if !ok {
		return fmt.Errorf("invalid task data in message %s", msg.ID)
	}

	switch taskType {
	case "ItemAlertTask":
		alert, err := task.UnmarshalTask[*task.ItemAlertTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal item alert task: %w", err)
		}
		if err := s.sender.SendItemAlert(ctx, alert.Recipient, alert.Items); err != nil {
			log.Errorf("❌ Failed to deliver item alert to %s: %v", alert.Recipient, err)
		}

	case "WelcomeEmailTask":
		welcome, err := task.UnmarshalTask[*task.WelcomeEmailTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal welcome email task: %w", err)
		}
		if err := s.sender.SendWelcome(ctx, welcome.Recipient); err != nil {
			log.Errorf("❌ Failed to deliver welcome email to %s: %v", welcome.Recipient, err)
		}

	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}

	if err := s.queue.AckTask(ctx, streamName, s.groupName, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}
	return nil
}
