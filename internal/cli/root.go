package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/martijn/userbase/internal/core/service"
	"github.com/martijn/userbase/internal/flash"
	"github.com/martijn/userbase/internal/infrastructure/sqlstore"
	"github.com/martijn/userbase/internal/logging"
	"github.com/martijn/userbase/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "userbase",
	Short: "Userbase - user records over HTML forms and JSON",
	Long: `Userbase manages a single table of user records.

It provides:
- HTML pages to list, show, create, edit and destroy users
- A JSON API under /api/users
- Schema migrations for sqlite and postgres
- Command line user management`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// Load configuration
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.DefaultConfigPath+")")
}

// Services holds all initialized services
type Services struct {
	DB          *sqlstore.DB
	Logger      logging.Logger
	UserService *service.UserService
}

// initServices opens the database, applying pending migrations when
// auto_migrate is set, and builds the user service on top of it.
func initServices(ctx context.Context) (*Services, error) {
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	db, err := sqlstore.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	userRepo := sqlstore.NewUserRepository(db)

	return &Services{
		DB:          db,
		Logger:      logger,
		UserService: service.NewUserService(userRepo, logger),
	}, nil
}

// Close closes all resources
func (s *Services) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
}

// newFlasher builds the flash message store selected by flash_store. The
// returned closer releases the store's connections.
func newFlasher(ctx context.Context, logger logging.Logger) (*flash.Flasher, func() error, error) {
	secure := cfg.SSLCert != ""

	switch cfg.FlashStore {
	case config.FlashStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return flash.NewFlasher(flash.NewRedisStore(rdb), cfg.FlashTTL, secure, logger), rdb.Close, nil

	default:
		secret := []byte(cfg.FlashSecret)
		if len(secret) == 0 {
			var err error
			if secret, err = flash.RandomSecret(); err != nil {
				return nil, nil, err
			}
			logger.Warn(ctx, "flash_secret not set, using a random secret; pending messages are lost on restart")
		}
		store := flash.NewSignedStore(secret)
		return flash.NewFlasher(store, cfg.FlashTTL, secure, logger), func() error { return nil }, nil
	}
}
