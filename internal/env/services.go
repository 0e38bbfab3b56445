package environment

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"plandesk-bot/internal/config"
	"plandesk-bot/internal/localization"
	"plandesk-bot/internal/metrics"
	"plandesk-bot/internal/storage"
	"plandesk-bot/internal/stories/audit"
	"plandesk-bot/internal/stories/inbox"
	"plandesk-bot/internal/telegram"
	"plandesk-bot/internal/telegram/cmds"
	"plandesk-bot/internal/telegram/flows/declineitem"
	"plandesk-bot/internal/telegram/states"
	"plandesk-bot/internal/workers"
	"plandesk-bot/internal/workers/digest"
)

type Services struct {
	TelegramRouter *telegram.Router
	WorkerManager  *workers.Manager
	AuditService   *audit.Service
	InboxService   *inbox.Service
}

func newServices(ctx context.Context, clients *Clients, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	var s Services

	if clients.TelegramBot == nil {
		return nil, errors.New("telegram bot is not initialized")
	}

	storageImpl := storage.New(clients.SQLiteDB.DB)
	if err := storageImpl.EnsureSchema(ctx); err != nil {
		return nil, errors.Wrap(err, "ensure storage schema")
	}

	auditService := audit.NewService(storageImpl)
	s.AuditService = auditService

	recorder := metrics.NewRecorder()

	inboxService := inbox.NewService(clients.AdminAPI, auditService, recorder, logger)
	s.InboxService = inboxService

	localizer, err := localization.NewService()
	if err != nil {
		return nil, errors.Wrap(err, "load translations")
	}

	stateManager := states.NewManager()
	adminChecker := telegram.NewAdminChecker(&cfg.Telegram)

	inboxCommand := cmds.NewInboxCommand(
		clients.TelegramBot.GetBotAPI(),
		inboxService,
		stateManager,
		adminChecker,
		logger,
	)

	auditCommand := cmds.NewAuditCommand(
		clients.TelegramBot.GetBotAPI(),
		auditService,
		logger,
	)

	declineHandler := declineitem.NewHandler(
		clients.TelegramBot,
		stateManager,
		inboxService,
		inboxCommand,
		logger,
	)

	s.TelegramRouter = telegram.NewRouter(
		clients.TelegramBot.GetBotAPI(),
		stateManager,
		adminChecker,
		declineHandler,
		inboxCommand,
		auditCommand,
	)

	var workerList []workers.Worker
	if cfg.Digest.Enabled {
		workerList = append(workerList, digest.NewWorker(
			clients.AdminAPI,
			clients.TelegramBot,
			localizer,
			cfg.Digest,
			cfg.Telegram.AdminIDs,
			logger,
		))
	}
	s.WorkerManager = workers.NewManager(logger, workerList...)

	return &s, nil
}
