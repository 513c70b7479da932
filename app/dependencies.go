package app

import (
	"context"
	"fmt"

	"github.com/gromit-app/gromit/apple"
	"github.com/gromit-app/gromit/config"
	"github.com/gromit-app/gromit/github"
	"github.com/gromit-app/gromit/handlers"
	"github.com/gromit-app/gromit/middleware"
	"github.com/gromit-app/gromit/repositories"
	"github.com/gromit-app/gromit/repositories/postgres"
	"github.com/gromit-app/gromit/services"
	"github.com/gromit-app/gromit/token"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserAccountRepository
	Commits   repositories.CommitRepository
	TxManager repositories.TransactionManager

	// Outbound clients
	Codec  *token.Codec
	Apple  *apple.Verifier
	GitHub *github.Client

	// Services
	Accounts *services.UserAccountService
	Login    *services.LoginService

	// Request pipeline
	ErrorTranslator *middleware.ErrorTranslator
	Authenticator   *middleware.Authenticator
	AccessPolicy    *middleware.AccessPolicy

	// Handlers
	UserAccountHandler *handlers.UserAccountHandler
	LoginHandler       *handlers.LoginHandler
	HealthHandler      *handlers.HealthHandler
}

// NewDependencies opens the database and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires all dependencies over an existing repository factory
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, factory); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	deps.initServices()

	if err := deps.initPipeline(); err != nil {
		return nil, fmt.Errorf("failed to initialize request pipeline: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase checks connectivity and applies the schema when configured to
func (d *Dependencies) initDatabase(ctx context.Context, factory *postgres.RepositoryFactory) error {
	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if d.Config.Database.AutoMigrate {
		if err := d.DB.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	d.Logger.Info("database ready",
		zap.Bool("auto_migrate", d.Config.Database.AutoMigrate))
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Commits = repos.Commits
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initClients builds the token codec and the Apple and GitHub clients
func (d *Dependencies) initClients() error {
	codec, err := token.NewCodec(d.Config.JWT)
	if err != nil {
		return fmt.Errorf("failed to create token codec: %w", err)
	}
	d.Codec = codec

	if d.Config.Apple.ClientID == "" {
		d.Logger.Warn("apple client id not configured, identity tokens will be rejected")
	}
	d.Apple = apple.NewVerifier(d.Config.Apple)
	d.GitHub = github.NewClient(d.Config.GitHub, d.Logger)

	return nil
}

func (d *Dependencies) initServices() {
	repos := &repositories.Repositories{Users: d.Users, Commits: d.Commits}

	d.Accounts = services.NewUserAccountService(repos, d.TxManager, d.Apple, d.GitHub, d.Codec, d.Logger)
	d.Login = services.NewLoginService(d.Users, d.Apple, d.Codec, d.Logger)
}

func (d *Dependencies) initPipeline() error {
	policy, err := middleware.NewAccessPolicy(middleware.DefaultRules(), d.Logger)
	if err != nil {
		return err
	}

	d.AccessPolicy = policy
	d.ErrorTranslator = middleware.NewErrorTranslator(d.Logger)
	d.Authenticator = middleware.NewAuthenticator(d.Codec, d.Logger)
	return nil
}

func (d *Dependencies) initHandlers() {
	d.UserAccountHandler = handlers.NewUserAccountHandler(d.Accounts, d.Logger)
	d.LoginHandler = handlers.NewLoginHandler(d.Login, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
