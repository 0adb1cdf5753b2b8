package main

import (
	"context"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/twilio/twilio-go"

	"github.com/cardpoint/onboarding-service/internal/app"
	"github.com/cardpoint/onboarding-service/internal/config"
	"github.com/cardpoint/onboarding-service/internal/controllers"
	"github.com/cardpoint/onboarding-service/internal/services"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

const cleanupJobTimeout = 5 * time.Minute

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize onboarding-service:", err)
	}
	defer application.Close()

	// External clients
	var twilioClient *twilio.RestClient
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		twilioClient = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
	} else {
		utils.Logger.Warn("Twilio credentials not set; mobile lookup and reference SMS are disabled")
	}

	hub := services.NewViewHub()
	scheduler := services.NewScheduler()

	// Services
	var otpProvider services.OTPProvider
	switch cfg.OTPProvider {
	case config.OTPProviderEmail:
		otpProvider = services.NewEmailOTPProvider(
			cfg, application.Challenges, sendgrid.NewSendClient(cfg.SendGridAPIKey), nil)
	default:
		otpProvider = services.NewDemoOTPProvider(scheduler, hub, cfg.OTPNotifyDelay)
	}

	var notifier services.ReferenceNotifier
	if twilioClient != nil {
		notifier = services.NewSMSReferenceNotifier(cfg, twilioClient)
	}

	onboardingService := services.NewOnboardingService(
		cfg, application.Sessions, otpProvider, notifier, hub, scheduler, twilioClient, nil)
	tokenService := services.NewSessionTokenService(cfg.SessionSigningKey, cfg.SessionTTL, nil)
	themeService := services.NewThemeService(application.Themes)
	cleanupService := services.NewCleanupService(application.Sessions, application.Challenges)

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	// Controllers
	router := controllers.NewRouter(controllers.Handlers{
		Health:     controllers.NewHealthController(application),
		Onboarding: controllers.NewOnboardingController(cfg, onboardingService, tokenService),
		Theme:      controllers.NewThemeController(themeService),
		Events:     controllers.NewEventsController(onboardingService, hub, allowedOrigins),
		Tokens:     tokenService,
	})

	// Cron job setup
	c := cron.New(cron.WithLocation(time.UTC))
	_, err = c.AddFunc(cfg.CleanupSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupJobTimeout)
		defer cancel()
		utils.Logger.Info("Starting onboarding cleanup cron job...")
		if err := cleanupService.CleanupDaily(ctx); err != nil {
			utils.Logger.WithError(err).Error("Onboarding cleanup failed")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule onboarding cleanup cron")
	}
	c.Start()
	defer c.Stop()
	utils.Logger.Infof("Scheduled onboarding cleanup: %s", cfg.CleanupSchedule)

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Platform", "X-Device-ID"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("onboarding-service failed to start:", err)
	}
}
