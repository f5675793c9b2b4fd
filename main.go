package main

import (
	"context"
	"log"

	api "outreach-backend/cmd/api"
	authDelivery "outreach-backend/internal/auth/delivery"
	campaigndomain "outreach-backend/internal/campaign/domain"
	campaignRepo "outreach-backend/internal/campaign/repository"
	campaignUsecase "outreach-backend/internal/campaign/usecase"
	leadRepo "outreach-backend/internal/lead/repository"
	leadUsecase "outreach-backend/internal/lead/usecase"
	"outreach-backend/pkg/config"
	"outreach-backend/pkg/database"
	"outreach-backend/pkg/firebase"
	"outreach-backend/pkg/pubsub"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg := config.Load()

	// Firebase is needed for Firestore storage and for App Check
	var fb *firebase.Client
	if cfg.StorageDriver == config.StorageFirestore || cfg.AppCheckEnforced {
		var err error
		fb, err = firebase.NewClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentials)
		if err != nil {
			log.Fatal("Failed to initialize Firebase:", err)
		}
	}

	// Initialize repositories (dependency injection)
	var leads leadRepo.LeadRepository
	var campaigns campaignRepo.CampaignRepository

	switch cfg.StorageDriver {
	case config.StorageFirestore:
		fs, err := fb.Firestore(ctx)
		if err != nil {
			log.Fatal("Failed to connect to Firestore:", err)
		}
		defer fs.Close()
		leads = leadRepo.NewFirestoreLeadRepository(fs)
		campaigns = campaignRepo.NewFirestoreCampaignRepository(fs)

	case config.StoragePostgres:
		db, err := database.NewPostgresConnection(cfg)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		if err := db.AutoMigrate(&leadRepo.LeadRecord{}, &campaigndomain.Campaign{}); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		leads = leadRepo.NewGormLeadRepository(db)
		campaigns = campaignRepo.NewGormCampaignRepository(db)

	case config.StorageMemory:
		log.Printf("[WARN] Using in-memory storage, data is lost on restart")
		leads = leadRepo.NewMemoryLeadRepository(cfg.WriteBatchSize)
		campaigns = campaignRepo.NewMemoryCampaignRepository()

	default:
		log.Fatalf("Unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	// Initialize use cases (dependency injection)
	leadUsecaseInstance := leadUsecase.NewLeadUsecase(leads, leadUsecase.Options{
		MaxImportRows:        cfg.MaxImportRows,
		ExistenceChunkSize:   cfg.ExistenceChunkSize,
		ExistenceConcurrency: cfg.ExistenceConcurrency,
		WriteBatchSize:       cfg.WriteBatchSize,
		DefaultOrgID:         cfg.DefaultOrgID,
	})
	campaignUsecaseInstance := campaignUsecase.NewCampaignUsecase(campaigns, cfg.DefaultRedirectURL)

	// Import events (Pub/Sub), only when a project and topic are configured
	if cfg.GoogleProjectID != "" && cfg.GooglePubSubTopic != "" {
		publisher, err := pubsub.NewPublisher(ctx, cfg.GoogleProjectID, cfg.GooglePubSubTopic, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize publisher, import events disabled: %v", err)
		} else {
			defer publisher.Close()
			leadUsecaseInstance.SetEventPublisher(publisher)
		}
	} else {
		log.Printf("[WARN] GOOGLE_PROJECT_ID or GOOGLE_PUBSUB_TOPIC not configured, import events disabled")
	}

	// App Check
	var verifier authDelivery.TokenVerifier
	if cfg.AppCheckEnforced {
		appCheck, err := fb.AppCheck(ctx)
		if err != nil {
			log.Fatal("Failed to initialize App Check:", err)
		}
		verifier = appCheck
	}

	// Initialize HTTP handler
	handler := api.NewHandler(leadUsecaseInstance, campaignUsecaseInstance, verifier, cfg)
	defer handler.Close()

	// Start server
	log.Printf("Server starting on port %s (storage: %s)", cfg.Port, cfg.StorageDriver)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
