package di

import (
	"time"

	convrepo "counseling-platform/backend/conversation/repository"
	convservice "counseling-platform/backend/conversation/service"
	"counseling-platform/backend/conversation/ws"
	counselorrepo "counseling-platform/backend/counselor/repository"
	counselorservice "counseling-platform/backend/counselor/service"
	"counseling-platform/backend/fileocr"
	"counseling-platform/backend/matching/keywords"
	matchingrepo "counseling-platform/backend/matching/repository"
	matchingservice "counseling-platform/backend/matching/service"
	"counseling-platform/backend/pkg/config"
	"counseling-platform/backend/pkg/health"
	"counseling-platform/backend/pkg/jwt"
	"counseling-platform/backend/pkg/logger"
	"counseling-platform/backend/pkg/pubsub"
	userrepo "counseling-platform/backend/user/repository"
	userservice "counseling-platform/backend/user/service"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB              *gorm.DB
	Logger          *logger.Logger
	JWTService      *jwt.Service
	Broker          *pubsub.RedisBroker
	Directory       *counselorservice.Directory
	MessageService  *convservice.MessageService
	MessageRouter   *convservice.MessageRouter
	MatchingService *matchingservice.MatchingService
	UserService     *userservice.UserService
	Hub             *ws.Hub
	Health          *health.Checker
}

// New wires the application graph from configuration
func New(db *gorm.DB, log *logger.Logger, jwtSecret string) *Container {
	cfg := config.Get()

	jwtService := jwt.NewService(jwtSecret, cfg.JWT.Expiry)
	broker := pubsub.NewRedisBroker(log)

	cacheTTL := time.Duration(0)
	if cfg.Directory.CacheEnabled {
		cacheTTL = cfg.Directory.CacheTTL
	}
	directory := counselorservice.NewDirectory(counselorrepo.NewGormCounselorRepository(db), cacheTTL)

	messageService := convservice.NewMessageService(
		convrepo.NewGormMessageRepository(db),
		cfg.Conversation.ReportingOffset,
		cfg.Conversation.DefaultPageSize,
		log,
	)
	messageRouter := convservice.NewMessageRouter(messageService, broker, log)

	var recognizer matchingservice.TextRecognizer = fileocr.NoopRecognizer{}
	if cfg.Services.OCRServiceURL != "" {
		recognizer = fileocr.NewHTTPClient(cfg.Services.OCRServiceURL, log)
	}

	matchingService := matchingservice.NewMatchingService(
		matchingrepo.NewGormRequestRepository(db),
		directory,
		messageRouter,
		keywords.NewExtractor(keywords.DefaultDictionary()),
		recognizer,
		cfg.Matching.GreetingFallback,
		log,
	)

	userSvc := userservice.NewUserService(userrepo.NewGormUserRepository(db), jwtService, log)

	hub := ws.NewHub(broker, messageRouter, log)

	checker := health.NewChecker(log, 30*time.Second)
	checker.RegisterDatabaseCheck(db)
	checker.RegisterBrokerCheck(broker)

	return &Container{
		DB:              db,
		Logger:          log,
		JWTService:      jwtService,
		Broker:          broker,
		Directory:       directory,
		MessageService:  messageService,
		MessageRouter:   messageRouter,
		MatchingService: matchingService,
		UserService:     userSvc,
		Hub:             hub,
		Health:          checker,
	}
}
