package cli

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"

	"github.com/avaldivia/cosecha/internal/agent"
	"github.com/avaldivia/cosecha/internal/config"
	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/oracle"
	"github.com/avaldivia/cosecha/internal/repository"
	"github.com/avaldivia/cosecha/internal/server"
	"github.com/avaldivia/cosecha/internal/service"
)

// App holds the wired application: database handle plus the HTTP handler
// serving the bridge and admin API.
type App struct {
	DB      *sql.DB
	Handler http.Handler

	Configs repository.AgentConfigRepo
	Logs    service.LogService
}

// BuildApp opens the database and wires repositories, services, the turn
// runner, and the HTTP handler.
func BuildApp(cfg *config.Config) (*App, error) {
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	producerRepo := repository.NewSQLiteProducerRepo(database)
	formRepo := repository.NewSQLiteFormRepo(database)
	alertRepo := repository.NewSQLiteAlertRepo(database)
	messageRepo := repository.NewSQLiteMessageRepo(database)
	logTypeRepo := repository.NewSQLiteLogTypeRepo(database)
	configRepo := repository.NewSQLiteAgentConfigRepo(database)
	templateRepo := repository.NewSQLiteTemplateRepo(database)
	assignmentRepo := repository.NewSQLiteAssignmentRepo(database)
	taskRepo := repository.NewSQLiteTaskRepo(database)
	dailyLogRepo := repository.NewSQLiteDailyLogRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)
	observer := service.NewLogUseCaseObserver(os.Stderr)

	producerSvc := service.NewProducerService(producerRepo, cfg.DefaultTimezone, observer)
	formSvc := service.NewFormService(formRepo)
	planSvc := service.NewPlanService(templateRepo, assignmentRepo, dailyLogRepo, uow, cfg.DailyLogLimit, cfg.Plan.SupersedeActive, observer)
	taskSvc := service.NewTaskService(taskRepo, uow, observer)
	alertSvc := service.NewAlertService(alertRepo)
	logSvc := service.NewLogService(dailyLogRepo, logTypeRepo, uow)
	actionSvc := service.NewActionService(uow, observer)

	oracleClient := oracle.NewClient(oracle.Config{
		Endpoint:    cfg.Oracle.Endpoint,
		Model:       cfg.Oracle.Model,
		Temperature: cfg.Oracle.Temperature,
		TimeoutMs:   cfg.Oracle.TimeoutMs,
		MaxRetries:  cfg.Oracle.MaxRetries,
		BackoffMs:   cfg.Oracle.BackoffMs,
	}, oracle.NewLogObserver(os.Stderr))

	builder := agent.NewContextBuilder(
		formRepo, messageRepo, taskRepo, dailyLogRepo, assignmentRepo,
		cfg.ChatHistoryLimit, cfg.DailyLogLimit,
		cfg.DefaultTimezone, cfg.CheckinHour, nil,
	)
	runner := agent.NewRunner(producerSvc, formSvc, actionSvc, messageRepo, configRepo, builder, oracleClient)

	handler := server.New(server.Deps{
		Runner:    runner,
		Producers: producerSvc,
		Forms:     formSvc,
		Plans:     planSvc,
		Tasks:     taskSvc,
		Alerts:    alertSvc,
		Logs:      logSvc,
		Configs:   configRepo,
	})

	return &App{
		DB:      database,
		Handler: handler,
		Configs: configRepo,
		Logs:    logSvc,
	}, nil
}
