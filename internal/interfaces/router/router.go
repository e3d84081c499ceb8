package router

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	authsvc "onda-backend/internal/application/auth"
	collectionsvc "onda-backend/internal/application/collections"
	eventsvc "onda-backend/internal/application/events"
	loansvc "onda-backend/internal/application/loans"
	offersvc "onda-backend/internal/application/offers"
	optionsvc "onda-backend/internal/application/options"
	rentalsvc "onda-backend/internal/application/rentals"
	usersvc "onda-backend/internal/application/users"
	walletsvc "onda-backend/internal/application/wallets"
	"onda-backend/internal/compression"
	"onda-backend/internal/config"
	"onda-backend/internal/constants"
	"onda-backend/internal/custody"
	"onda-backend/internal/infrastructure/database"
	authhandler "onda-backend/internal/interfaces/handlers/auth"
	collectionhandler "onda-backend/internal/interfaces/handlers/collections"
	escrowhandler "onda-backend/internal/interfaces/handlers/escrow"
	eventhandler "onda-backend/internal/interfaces/handlers/events"
	healthhandler "onda-backend/internal/interfaces/handlers/health"
	loanhandler "onda-backend/internal/interfaces/handlers/loans"
	offerhandler "onda-backend/internal/interfaces/handlers/offers"
	optionhandler "onda-backend/internal/interfaces/handlers/options"
	payhandler "onda-backend/internal/interfaces/handlers/payments"
	rentalhandler "onda-backend/internal/interfaces/handlers/rentals"
	userhandler "onda-backend/internal/interfaces/handlers/users"
	wallethandler "onda-backend/internal/interfaces/handlers/wallets"
	"onda-backend/internal/metadata"
	"onda-backend/internal/middleware"
	"onda-backend/internal/token"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	stripeWebhook := &payhandler.WebhookHandler{WebhookSecret: cfg.StripeWebhookSecret}
	app.Post("/api/v1/stripe/webhook", func(c *fiber.Ctx) error {
		return stripeWebhook.HandleWebhook(c)
	})

	sessionHandler, redisClient, err := middleware.Session(middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	})
	if err != nil {
		return nil, nil, nil, err
	}
	rdb := redisClient
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.ResponseFormatter())
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	app.Use(func(c *fiber.Ctx) error {
		user := c.Locals("user")
		if user == nil {
			c.Locals("user", nil)
		}
		return c.Next()
	})

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             nil,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
		hh.DB = &gormDBPinger{db: db}
	}

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}

	var userFinder authsvc.UserFinder
	if db != nil {
		userFinder = &authsvc.GormUserFinder{DB: db}
	}
	ah := &authhandler.Handlers{
		UserFinder: userFinder,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if db != nil {
		stripeWebhook.DB = db
	}

	if db != nil && rdb != nil {
		resolver := &metadata.HTTPClient{BaseURL: cfg.MetadataServiceURL, APIKey: cfg.MetadataAPIKey}
		cust := &custody.Service{Tokens: token.LedgerGateway{}, Metadata: resolver}

		// Users
		us := &usersvc.Service{DB: db}
		uh := &userhandler.Handlers{Service: us}
		app.Post("/api/v1/users/register", uh.Register)
		ug := app.Group("/api/v1/users", middleware.RequireAuth())
		ug.Get("/me", uh.Me)
		ug.Patch("/:user_id/role", middleware.AuthorizePermission(constants.AssignRole), uh.UpdateRole)

		// Collections
		cs := &collectionsvc.Service{DB: db}
		ch := &collectionhandler.Handlers{Service: cs}
		cg := app.Group("/api/v1/collections")
		cg.Get("/", ch.List)
		cg.Get("/:mint", ch.Get)
		cg.Post("/", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageCollections), ch.Init)
		cg.Patch("/:mint", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageCollections), ch.Update)
		cg.Delete("/:mint", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageCollections), ch.Close)

		// Loans
		ls := &loansvc.Service{DB: db, Custody: cust, Now: time.Now}
		lh := &loanhandler.Handlers{Service: ls}
		lg := app.Group("/api/v1/loans")
		lg.Get("/mint/:mint", lh.ByMint)
		lg.Get("/mine", middleware.RequireAuth(), lh.Mine)
		lg.Post("/ask", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ListAsset), lh.Ask)
		lg.Post("/:loan_id/give", middleware.RequireAuth(), middleware.AuthorizePermission(constants.LendFunds), lh.Give)
		lg.Post("/:loan_id/repay", middleware.RequireAuth(), lh.Repay)
		lg.Post("/:loan_id/repossess", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ClaimAsset), lh.Repossess)
		lg.Delete("/:loan_id", middleware.RequireAuth(), lh.Close)

		// Call options
		ops := &optionsvc.Service{DB: db, Custody: cust, Now: time.Now}
		oh := &optionhandler.Handlers{Service: ops}
		og := app.Group("/api/v1/options")
		og.Get("/mint/:mint", oh.ByMint)
		og.Post("/ask", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ListAsset), oh.Ask)
		og.Post("/:option_id/buy", middleware.RequireAuth(), middleware.AuthorizePermission(constants.TradeProducts), oh.Buy)
		og.Post("/:option_id/exercise", middleware.RequireAuth(), middleware.AuthorizePermission(constants.TradeProducts), oh.Exercise)
		og.Delete("/:option_id", middleware.RequireAuth(), oh.Close)

		// Rentals
		rs := &rentalsvc.Service{DB: db, Custody: cust, Now: time.Now}
		rh := &rentalhandler.Handlers{Service: rs}
		rg := app.Group("/api/v1/rentals")
		rg.Get("/mint/:mint", rh.ByMint)
		rg.Post("/list", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ListAsset), rh.List)
		rg.Post("/:rental_id/take", middleware.RequireAuth(), middleware.AuthorizePermission(constants.TradeProducts), rh.Take)
		rg.Post("/:rental_id/extend", middleware.RequireAuth(), rh.Extend)
		rg.Post("/:rental_id/recover", middleware.RequireAuth(), rh.Recover)
		rg.Post("/:rental_id/withdraw", middleware.RequireAuth(), rh.Withdraw)
		rg.Delete("/:rental_id", middleware.RequireAuth(), rh.Close)

		// Collection-level offers and bids
		ofs := &offersvc.Service{DB: db, Custody: cust, Now: time.Now}
		ofh := &offerhandler.Handlers{Service: ofs}
		ofg := app.Group("/api/v1/offers")
		ofg.Get("/loans/:collection_mint", ofh.ByCollection)
		ofg.Get("/options/:collection_mint", ofh.BidsByCollection)
		ofg.Post("/loans", middleware.RequireAuth(), middleware.AuthorizePermission(constants.LendFunds), ofh.OfferLoan)
		ofg.Delete("/loans", middleware.RequireAuth(), ofh.CloseLoanOffer)
		ofg.Post("/loans/take", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ListAsset), ofh.TakeLoanOffer)
		ofg.Post("/options", middleware.RequireAuth(), middleware.AuthorizePermission(constants.TradeProducts), ofh.BidCallOption)
		ofg.Delete("/options", middleware.RequireAuth(), ofh.CloseBid)
		ofg.Post("/options/sell", middleware.RequireAuth(), middleware.AuthorizePermission(constants.TradeProducts), ofh.SellCallOption)

		// Escrow claims and ledger views
		eh := &escrowhandler.Handlers{DB: db, Custody: cust}
		eg := app.Group("/api/v1/escrow")
		eg.Get("/:mint", eh.Manager)
		eg.Post("/:mint/claim", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ClaimAsset), eh.Claim)

		// Wallets
		ws := &walletsvc.Service{DB: db}
		wh := &wallethandler.Handlers{Service: ws}
		wg := app.Group("/api/v1/wallets", middleware.RequireAuth())
		wg.Get("/balance", wh.Balance)
		wg.Post("/transfer", wh.Transfer)
		th := &payhandler.TopUpHandlers{
			StripeCreator: &payhandler.RealStripeCreator{SecretKey: cfg.StripeSecretKey},
		}
		wg.Post("/top-up", th.TopUp)

		// Event feed, mirrored to the compressed ledger when configured
		var compressed compression.Client
		if cfg.CompressionURL != "" {
			compressed = &compression.HTTPClient{BaseURL: cfg.CompressionURL, APIKey: cfg.CompressionAPIKey}
		}
		es := &eventsvc.Service{DB: db, Compressed: compressed}
		evh := &eventhandler.Handlers{Service: es}
		evg := app.Group("/api/v1/events")
		evg.Get("/mint/:mint", evh.ByMint)
		evg.Get("/recent", evh.Recent)
		evg.Post("/mint/:mint/mirror", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageAdmins), evh.MirrorMint)
	}

	return app, db, rdb, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
