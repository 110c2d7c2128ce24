package connection

import (
	"context"
	"log"

	"taskmanager/controller/auth"
	"taskmanager/controller/task"
	"taskmanager/controller/user"
	"taskmanager/database"
	"taskmanager/middleware"
	"taskmanager/scheduler"
	"taskmanager/search"
	"taskmanager/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// App holds the wired services behind the HTTP surface.
type App struct {
	DB     *gorm.DB
	Index  search.Index
	Tasks  *services.TaskService
	Users  *services.UserService
	Tokens *services.TokenService
}

func NewApp(db *gorm.DB, index search.Index, cfg Config) *App {
	return &App{
		DB:     db,
		Index:  index,
		Tasks:  services.NewTaskService(db, index),
		Users:  services.NewUserService(db, cfg.PasswordCost),
		Tokens: services.NewTokenService(db, cfg.JWTSecret, cfg.TokenTTL),
	}
}

func NewRouter(app *App, cfg Config) *gin.Engine {
	router := gin.Default()

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Api is running!"})
	})

	if len(cfg.CORSOrigins) == 0 {
		router.Use(cors.Default())
	} else {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.CORSOrigins
		corsCfg.AddAllowHeaders("Authorization")
		router.Use(cors.New(corsCfg))
	}

	authRequired := middleware.AccessTokenMiddleware(app.Tokens)
	api := router.Group("/api")

	auth.AuthController(api, app.Users, app.Tokens, authRequired)
	user.UserController(api, authRequired)
	task.TaskController(api, app.Tasks, authRequired, cfg.DefaultPerPage)

	return router
}

// OpenIndex builds the search collaborator selected by SEARCH_DRIVER.
func OpenIndex(ctx context.Context, db *gorm.DB, cfg Config) (search.Index, func(), error) {
	if cfg.SearchDriver != SearchDriverFirestore {
		return search.NewDatabaseIndex(db), func() {}, nil
	}
	FB, err := FBConnection(ctx, cfg.CredentialsPath)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := FB.Close(); err != nil {
			log.Printf("[search] close firestore: %v", err)
		}
	}
	return search.NewFirestoreIndex(FB, cfg.SearchCollection), closeFn, nil
}

func StartServer(cfg Config) {
	DB, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	index, closeIndex, err := OpenIndex(context.Background(), DB, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize search index: %v", err)
	}
	defer closeIndex()

	app := NewApp(DB, index, cfg)

	reindexSpec := ""
	if cfg.SearchDriver == SearchDriverFirestore {
		reindexSpec = cfg.ReindexSchedule
	}
	cron, err := scheduler.StartScheduler(app.Tasks, app.Tokens, reindexSpec)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer cron.Stop()

	router := NewRouter(app, cfg)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
